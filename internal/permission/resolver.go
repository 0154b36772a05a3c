package permission

import (
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

// Mode selects how stored permissions are interpreted and written.
type Mode string

const (
	// ModeCompat stores presence only. Every stored id resolves to full.
	ModeCompat Mode = "compat"
	// ModeStrict additionally stores the level of each granted id.
	ModeStrict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCompat, "":
		return ModeCompat, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown permission mode %q", s)
}

type Resolver struct {
	catalog *Catalog
	matrix  *Matrix
	mode    Mode
}

func NewResolver(matrix *Matrix, mode Mode) *Resolver {
	if mode == "" {
		mode = ModeCompat
	}
	return &Resolver{catalog: matrix.Catalog(), matrix: matrix, mode: mode}
}

func (r *Resolver) Catalog() *Catalog { return r.catalog }
func (r *Resolver) Matrix() *Matrix   { return r.matrix }
func (r *Resolver) Mode() Mode        { return r.mode }

// Resolve computes the effective levels for u. A user with no stored
// permissions gets the role defaults, graded levels included. Once any
// permissions are stored, each stored id resolves to full (compat mode) or
// to its stored level (strict mode, when levels were written), and every
// other id to LevelNone.
func (r *Resolver) Resolve(u models.TenantUser) (Levels, error) {
	if len(u.Permissions) == 0 {
		role, err := ParseRole(u.Role)
		if err != nil {
			return nil, fmt.Errorf("resolve user %s: %w", u.ID, err)
		}
		return r.matrix.Defaults(role)
	}

	out := r.catalog.None()
	useLevels := r.mode == ModeStrict && len(u.PermissionLevels) > 0

	for _, id := range u.Permissions {
		if !r.catalog.Has(id) {
			slog.Warn("ignoring unknown stored permission", "user_id", u.ID, "tenant_id", u.TenantID, "permission", id)
			continue
		}
		level := LevelFull
		if useLevels {
			if raw, ok := u.PermissionLevels[id]; ok {
				if parsed, err := ParseLevel(raw); err == nil && parsed.Granted() {
					level = parsed
				}
			}
		}
		out[id] = level
	}
	return out, nil
}

// NewEditor seeds an editor with the effective levels of u.
func (r *Resolver) NewEditor(u models.TenantUser) (*Editor, error) {
	working, err := r.Resolve(u)
	if err != nil {
		return nil, err
	}
	return &Editor{resolver: r, user: u, working: working}, nil
}
