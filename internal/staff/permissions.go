package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/audit"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
	"github.com/nikhilbhutani/clinicstaff/internal/permission"
	"github.com/nikhilbhutani/clinicstaff/internal/webhook"
)

const (
	SourceDefaults = "role_defaults"
	SourceStored   = "stored"
)

type Effective struct {
	User   models.TenantUser `json:"user"`
	Levels permission.Levels `json:"levels"`
	// Source tells whether Levels came from the role matrix or from the
	// stored permission list.
	Source string `json:"source"`
}

// Change is one level toggle, applied in order by ApplyChanges.
type Change struct {
	PermissionID string           `json:"permission_id"`
	Level        permission.Level `json:"level"`
}

func (s *Service) Effective(ctx context.Context, tenantID, id uuid.UUID) (Effective, error) {
	u, err := s.dir.Get(ctx, tenantID, id)
	if err != nil {
		return Effective{}, err
	}
	return s.effective(u)
}

func (s *Service) effective(u models.TenantUser) (Effective, error) {
	levels, err := s.resolver.Resolve(u)
	if err != nil {
		return Effective{}, err
	}
	source := SourceStored
	if len(u.Permissions) == 0 {
		source = SourceDefaults
	}
	return Effective{User: u, Levels: levels, Source: source}, nil
}

// ApplyChanges seeds an editor from the current record, applies each change
// with SetLevel semantics and commits once. Either every change is persisted
// or none is.
func (s *Service) ApplyChanges(ctx context.Context, tenantID, id uuid.UUID, changes []Change) (Effective, error) {
	u, err := s.dir.Get(ctx, tenantID, id)
	if err != nil {
		return Effective{}, err
	}

	editor, err := s.resolver.NewEditor(u)
	if err != nil {
		return Effective{}, err
	}
	for i, c := range changes {
		if _, err := editor.SetLevel(c.PermissionID, c.Level); err != nil {
			return Effective{}, asValidation(fmt.Sprintf("changes[%d]", i), err)
		}
	}

	saved, err := editor.Commit(ctx, s.dir)
	if err != nil {
		return Effective{}, err
	}

	s.record(ctx, audit.ActionStaffPermissionsUpdated, webhook.EventStaffPermissionsUpdated, saved, map[string]interface{}{
		"permissions": saved.Permissions,
		"changes":     len(changes),
	})
	return s.effective(saved)
}
