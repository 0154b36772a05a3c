package directory

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// backoff returns the pre-jitter delay before retry number attempt (1-based).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << (attempt - 1)
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		d = p.MaxDelay
	}
	return d
}

// Retrying retries calls that fail with ErrTransient, using exponential
// backoff with full jitter. Other errors are returned immediately.
type Retrying struct {
	next   Directory
	policy RetryPolicy
	jitter func(time.Duration) time.Duration
}

func NewRetrying(next Directory, policy RetryPolicy) *Retrying {
	return &Retrying{
		next:   next,
		policy: policy,
		jitter: func(d time.Duration) time.Duration {
			if d <= 0 {
				return 0
			}
			return time.Duration(rand.Int64N(int64(d) + 1))
		},
	}
}

func withRetry[T any](ctx context.Context, r *Retrying, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.jitter(r.policy.backoff(attempt))
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
			slog.Debug("retrying directory call", "op", op, "attempt", attempt, "error", lastErr)
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}
	slog.Warn("directory retries exhausted", "op", op, "attempts", r.policy.MaxRetries+1, "error", lastErr)
	return zero, lastErr
}

func (r *Retrying) Filter(ctx context.Context, f Filter) ([]models.TenantUser, error) {
	return withRetry(ctx, r, "filter", func(ctx context.Context) ([]models.TenantUser, error) {
		return r.next.Filter(ctx, f)
	})
}

func (r *Retrying) Get(ctx context.Context, tenantID, id uuid.UUID) (models.TenantUser, error) {
	return withRetry(ctx, r, "get", func(ctx context.Context) (models.TenantUser, error) {
		return r.next.Get(ctx, tenantID, id)
	})
}

func (r *Retrying) Create(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	// A fixed id keeps a retried insert from creating a second record.
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return withRetry(ctx, r, "create", func(ctx context.Context) (models.TenantUser, error) {
		return r.next.Create(ctx, u)
	})
}

func (r *Retrying) Update(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	return withRetry(ctx, r, "update", func(ctx context.Context) (models.TenantUser, error) {
		return r.next.Update(ctx, u)
	})
}

func (r *Retrying) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	_, err := withRetry(ctx, r, "delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Delete(ctx, tenantID, id)
	})
	return err
}
