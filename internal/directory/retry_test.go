package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

// flaky wraps a Directory and fails the first failures calls with err.
type flaky struct {
	Directory
	failures int
	err      error
	calls    int
}

func (f *flaky) fail() error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flaky) Filter(ctx context.Context, flt Filter) ([]models.TenantUser, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Directory.Filter(ctx, flt)
}

func (f *flaky) Create(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	if err := f.fail(); err != nil {
		return models.TenantUser{}, err
	}
	return f.Directory.Create(ctx, u)
}

func noDelay(maxRetries int) RetryPolicy {
	return RetryPolicy{MaxRetries: maxRetries}
}

func transientErr() error {
	return fmt.Errorf("filter staff: %w: %w", ErrTransient, errors.New("connection refused"))
}

func TestRetryingRecoversFromTransientErrors(t *testing.T) {
	tenantID := uuid.New()
	mem := NewMemory()
	mustCreate(t, mem, staffRecord(tenantID, "Ana", "ana@x.test", "staff"))

	f := &flaky{Directory: mem, failures: 2, err: transientErr()}
	r := NewRetrying(f, noDelay(3))

	got, err := r.Filter(context.Background(), Filter{TenantID: tenantID})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d records, want 1", len(got))
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
}

func TestRetryingGivesUpAfterMaxRetries(t *testing.T) {
	f := &flaky{Directory: NewMemory(), failures: 10, err: transientErr()}
	r := NewRetrying(f, noDelay(2))

	_, err := r.Filter(context.Background(), Filter{TenantID: uuid.New()})
	if !IsTransient(err) {
		t.Fatalf("error = %v, want transient", err)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
}

func TestRetryingDoesNotRetryPermanentErrors(t *testing.T) {
	f := &flaky{Directory: NewMemory(), failures: 10, err: ErrNotFound}
	r := NewRetrying(f, noDelay(3))

	_, err := r.Filter(context.Background(), Filter{TenantID: uuid.New()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
}

func TestRetryingStopsOnContextCancel(t *testing.T) {
	f := &flaky{Directory: NewMemory(), failures: 10, err: transientErr()}
	r := NewRetrying(f, RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour})
	r.jitter = func(d time.Duration) time.Duration { return d }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Filter(ctx, Filter{TenantID: uuid.New()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
}

func TestRetryingCreateKeepsIDAcrossAttempts(t *testing.T) {
	tenantID := uuid.New()
	f := &flaky{Directory: NewMemory(), failures: 1, err: transientErr()}
	r := NewRetrying(f, noDelay(2))

	created, err := r.Create(context.Background(), staffRecord(tenantID, "Ana", "ana@x.test", "staff"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("id not assigned")
	}

	all, _ := f.Directory.Filter(context.Background(), Filter{TenantID: tenantID})
	if len(all) != 1 {
		t.Errorf("stored %d records, want 1", len(all))
	}
}

func TestBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 500 * time.Millisecond},
		{10, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := p.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	if got := (RetryPolicy{}).backoff(3); got != 0 {
		t.Errorf("zero policy backoff = %v, want 0", got)
	}
}
