package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

// ListCache is the subset of cache.Cache used for staff lists. Counter
// returns 0 for a missing key.
type ListCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Counter(ctx context.Context, key string) (int64, error)
}

// Cached keeps each tenant's full staff list in a cache and drops it on
// every write for that tenant. Role and status filters are applied to the
// cached list.
//
// Each tenant has a generation counter bumped by every write. A list is
// stored with the generation read before it was loaded and served only
// while that generation is current, so a list loaded before a concurrent
// write is never served after it.
type Cached struct {
	next  Directory
	cache ListCache
	ttl   time.Duration
}

func NewCached(next Directory, cache ListCache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl}
}

type cachedList struct {
	Generation int64               `json:"generation"`
	Users      []models.TenantUser `json:"users"`
}

func listKey(tenantID uuid.UUID) string {
	return "staff:list:" + tenantID.String()
}

func generationKey(tenantID uuid.UUID) string {
	return "staff:gen:" + tenantID.String()
}

func (c *Cached) Filter(ctx context.Context, f Filter) ([]models.TenantUser, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	gen, err := c.cache.Counter(ctx, generationKey(f.TenantID))
	if err != nil {
		slog.Debug("staff list generation unavailable, bypassing cache", "tenant_id", f.TenantID, "error", err)
		return c.next.Filter(ctx, f)
	}

	key := listKey(f.TenantID)
	var entry cachedList
	if err := c.cache.Get(ctx, key, &entry); err != nil || entry.Generation != gen {
		all, err := c.next.Filter(ctx, Filter{TenantID: f.TenantID})
		if err != nil {
			return nil, err
		}
		entry = cachedList{Generation: gen, Users: all}
		if err := c.cache.Set(ctx, key, entry, c.ttl); err != nil {
			slog.Debug("staff list cache set failed", "tenant_id", f.TenantID, "error", err)
		}
	}

	out := make([]models.TenantUser, 0, len(entry.Users))
	for _, u := range entry.Users {
		if f.Matches(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (c *Cached) Get(ctx context.Context, tenantID, id uuid.UUID) (models.TenantUser, error) {
	return c.next.Get(ctx, tenantID, id)
}

func (c *Cached) Create(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	created, err := c.next.Create(ctx, u)
	if err != nil {
		return created, err
	}
	c.invalidate(ctx, created.TenantID)
	return created, nil
}

func (c *Cached) Update(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	updated, err := c.next.Update(ctx, u)
	if err != nil {
		return updated, err
	}
	c.invalidate(ctx, updated.TenantID)
	return updated, nil
}

func (c *Cached) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := c.next.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	c.invalidate(ctx, tenantID)
	return nil
}

func (c *Cached) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if _, err := c.cache.Incr(ctx, generationKey(tenantID)); err != nil {
		slog.Warn("staff list generation bump failed", "tenant_id", tenantID, "error", err)
	}
	if err := c.cache.Delete(ctx, listKey(tenantID)); err != nil {
		slog.Warn("staff list cache invalidation failed", "tenant_id", tenantID, "error", err)
	}
}
