// Package staff connects the permission engine to the tenant directory:
// listing, creating and editing staff records and their permissions.
package staff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/audit"
	"github.com/nikhilbhutani/clinicstaff/internal/directory"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
	"github.com/nikhilbhutani/clinicstaff/internal/permission"
	"github.com/nikhilbhutani/clinicstaff/internal/tenant"
	"github.com/nikhilbhutani/clinicstaff/internal/validation"
	"github.com/nikhilbhutani/clinicstaff/internal/webhook"
)

type Auditor interface {
	Log(ctx context.Context, entry audit.LogEntry) error
}

type Notifier interface {
	Dispatch(ctx context.Context, event string, payload interface{}) error
}

type Service struct {
	dir      directory.Directory
	resolver *permission.Resolver
	auditor  Auditor
	notifier Notifier
}

type Option func(*Service)

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(dir directory.Directory, resolver *permission.Resolver, opts ...Option) *Service {
	s := &Service{dir: dir, resolver: resolver}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Resolver() *permission.Resolver {
	return s.resolver
}

type CreateInput struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Role     string `json:"role" validate:"required,oneof=admin manager veterinarian receptionist groomer accountant staff"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive invited"`
}

// UpdateInput replaces the profile fields of a staff record. Permissions,
// when set, replaces the stored permission list as well.
type UpdateInput struct {
	FullName    string    `json:"full_name" validate:"required,max=200"`
	Email       string    `json:"email" validate:"required,email,max=320"`
	Role        string    `json:"role" validate:"required,oneof=admin manager veterinarian receptionist groomer accountant staff"`
	Status      string    `json:"status" validate:"required,oneof=active inactive invited"`
	Permissions *[]string `json:"permissions,omitempty"`
}

type ListResult struct {
	Users []models.TenantUser
	// Degraded is set when the directory could not be read and Users is
	// empty for that reason.
	Degraded bool
}

// List returns the tenant's staff. A directory failure yields an empty,
// degraded result instead of an error; only an invalid filter is an error.
func (s *Service) List(ctx context.Context, f directory.Filter) (ListResult, error) {
	if err := f.Validate(); err != nil {
		return ListResult{}, err
	}
	if f.Role != "" {
		if _, err := permission.ParseRole(f.Role); err != nil {
			return ListResult{}, &directory.ValidationError{Field: "role", Message: err.Error()}
		}
	}

	users, err := s.dir.Filter(ctx, f)
	if err != nil {
		slog.Warn("staff list unavailable, returning empty list", "tenant_id", f.TenantID, "error", err)
		return ListResult{Users: []models.TenantUser{}, Degraded: true}, nil
	}
	return ListResult{Users: users}, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (models.TenantUser, error) {
	return s.dir.Get(ctx, tenantID, id)
}

// Create stores a new staff member whose permissions are the role defaults,
// flattened to ids.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput) (models.TenantUser, error) {
	return s.create(ctx, tenantID, uuid.Nil, in)
}

// Bootstrap creates the first admin of a tenant under a fixed id so a
// signed token can name it. It returns the existing record when the id is
// already stored.
func (s *Service) Bootstrap(ctx context.Context, tenantID, id uuid.UUID, fullName, email string) (models.TenantUser, error) {
	if tenantID == uuid.Nil || id == uuid.Nil {
		return models.TenantUser{}, &directory.ValidationError{Field: "id", Message: "bootstrap tenant and admin ids are required"}
	}
	existing, err := s.dir.Get(ctx, tenantID, id)
	if err == nil {
		return existing, nil
	}
	if !directory.IsNotFound(err) {
		return models.TenantUser{}, err
	}
	return s.create(ctx, tenantID, id, CreateInput{
		FullName: fullName,
		Email:    email,
		Role:     string(permission.RoleAdmin),
		Status:   models.StatusActive,
	})
}

func (s *Service) create(ctx context.Context, tenantID, id uuid.UUID, in CreateInput) (models.TenantUser, error) {
	if err := validation.Struct(in); err != nil {
		return models.TenantUser{}, err
	}
	role, err := permission.ParseRole(in.Role)
	if err != nil {
		return models.TenantUser{}, &directory.ValidationError{Field: "role", Message: err.Error()}
	}
	ids, err := s.resolver.Matrix().DefaultIDs(role)
	if err != nil {
		return models.TenantUser{}, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusActive
	}

	created, err := s.dir.Create(ctx, models.TenantUser{
		ID:          id,
		TenantID:    tenantID,
		FullName:    strings.TrimSpace(in.FullName),
		Email:       strings.TrimSpace(in.Email),
		Role:        string(role),
		Status:      status,
		Permissions: ids,
	})
	if err != nil {
		return models.TenantUser{}, fmt.Errorf("create staff: %w", err)
	}

	s.record(ctx, audit.ActionStaffCreated, webhook.EventStaffCreated, created, map[string]interface{}{
		"role":        created.Role,
		"permissions": created.Permissions,
	})
	return created, nil
}

// Update sends the whole record back to the directory with the new profile
// fields applied.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateInput) (models.TenantUser, error) {
	if err := validation.Struct(in); err != nil {
		return models.TenantUser{}, err
	}

	existing, err := s.dir.Get(ctx, tenantID, id)
	if err != nil {
		return models.TenantUser{}, err
	}

	rec := existing.Clone()
	rec.FullName = strings.TrimSpace(in.FullName)
	rec.Email = strings.TrimSpace(in.Email)
	rec.Role = in.Role
	rec.Status = in.Status

	if in.Permissions != nil {
		ids, err := s.cleanIDs(*in.Permissions)
		if err != nil {
			return models.TenantUser{}, err
		}
		rec.Permissions = ids
		rec.PermissionLevels = nil
	}

	updated, err := s.dir.Update(ctx, rec)
	if err != nil {
		return models.TenantUser{}, fmt.Errorf("update staff: %w", err)
	}

	s.record(ctx, audit.ActionStaffUpdated, webhook.EventStaffUpdated, updated, map[string]interface{}{
		"role":   updated.Role,
		"status": updated.Status,
	})
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	existing, err := s.dir.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.dir.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	s.record(ctx, audit.ActionStaffDeleted, webhook.EventStaffDeleted, existing, nil)
	return nil
}

// cleanIDs rejects ids missing from the catalog and drops duplicates,
// keeping first occurrence order.
func (s *Service) cleanIDs(ids []string) ([]string, error) {
	catalog := s.resolver.Catalog()
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !catalog.Has(id) {
			return nil, &directory.ValidationError{Field: "permissions", Message: fmt.Sprintf("unknown permission %q", id)}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// record writes the audit entry and queues the webhook event. Neither can
// fail the operation that already succeeded.
func (s *Service) record(ctx context.Context, action, event string, u models.TenantUser, details map[string]interface{}) {
	if tenant.IDFromContext(ctx) == uuid.Nil {
		ctx = tenant.WithTenant(ctx, &models.Tenant{ID: u.TenantID})
	}

	if s.auditor != nil {
		id := u.ID
		err := s.auditor.Log(ctx, audit.LogEntry{
			Action:       action,
			ResourceType: "tenant_user",
			ResourceID:   &id,
			Details:      details,
		})
		if err != nil {
			slog.Error("failed to write audit log", "action", action, "user_id", u.ID, "error", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Dispatch(ctx, event, u); err != nil {
			slog.Error("failed to dispatch staff event", "event", event, "user_id", u.ID, "error", err)
		}
	}
}

func asValidation(field string, err error) error {
	var unknown *permission.UnknownPermissionError
	if errors.As(err, &unknown) || errors.Is(err, permission.ErrInvalidLevel) {
		return &directory.ValidationError{Field: field, Message: err.Error()}
	}
	return err
}
