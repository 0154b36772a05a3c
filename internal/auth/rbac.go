package auth

import (
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/clinicstaff/internal/permission"
	"github.com/nikhilbhutani/clinicstaff/internal/tenant"
)

// Enforcer gates routes on the calling staff member's effective
// permissions. It is off unless explicitly enabled; when off every Require
// middleware passes requests through.
type Enforcer struct {
	resolver *permission.Resolver
	enabled  bool
}

func NewEnforcer(resolver *permission.Resolver, enabled bool) *Enforcer {
	return &Enforcer{resolver: resolver, enabled: enabled}
}

// Require admits callers holding id at min or above (view < edit < full).
func (e *Enforcer) Require(id string, min permission.Level) func(http.Handler) http.Handler {
	if !e.resolver.Catalog().Has(id) {
		panic("auth: require unknown permission " + id)
	}

	return func(next http.Handler) http.Handler {
		if !e.enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := tenant.ActorFromContext(r.Context())
			if actor == nil {
				writeError(w, http.StatusForbidden, "no user in context")
				return
			}

			levels, err := e.resolver.Resolve(*actor)
			if err != nil {
				slog.Error("permission resolution failed", "user_id", actor.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "permission check failed")
				return
			}
			if !levels[id].AtLeast(min) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
