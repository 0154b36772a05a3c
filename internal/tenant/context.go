package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

type contextKey string

const (
	tenantKey contextKey = "tenant"
	actorKey  contextKey = "actor"
)

func WithTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

func FromContext(ctx context.Context) *models.Tenant {
	t, _ := ctx.Value(tenantKey).(*models.Tenant)
	return t
}

func IDFromContext(ctx context.Context) uuid.UUID {
	if t := FromContext(ctx); t != nil {
		return t.ID
	}
	return uuid.Nil
}

// WithActor records the staff member making the request.
func WithActor(ctx context.Context, u *models.TenantUser) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

func ActorFromContext(ctx context.Context) *models.TenantUser {
	u, _ := ctx.Value(actorKey).(*models.TenantUser)
	return u
}

func ActorIDFromContext(ctx context.Context) *uuid.UUID {
	if u := ActorFromContext(ctx); u != nil {
		id := u.ID
		return &id
	}
	return nil
}
