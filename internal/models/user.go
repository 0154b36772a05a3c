package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusInvited  = "invited"
)

// TenantUser is a staff member of one tenant. Permissions is persisted as a
// flat array of permission ids and carries no level information.
// PermissionLevels is only written in strict permission mode.
type TenantUser struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	TenantID         uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	FullName         string            `json:"full_name" db:"full_name"`
	Email            string            `json:"email" db:"email"`
	Role             string            `json:"role" db:"role"`
	Status           string            `json:"status" db:"status"`
	Permissions      []string          `json:"permissions" db:"permissions"`
	PermissionLevels map[string]string `json:"permission_levels,omitempty" db:"permission_levels"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so callers cannot alias stored slices and maps.
func (u TenantUser) Clone() TenantUser {
	out := u
	out.Permissions = append(make([]string, 0, len(u.Permissions)), u.Permissions...)
	if u.PermissionLevels != nil {
		out.PermissionLevels = make(map[string]string, len(u.PermissionLevels))
		for k, v := range u.PermissionLevels {
			out.PermissionLevels[k] = v
		}
	}
	return out
}
