// Package directory is the tenant-scoped store of staff records. Every read
// is filtered by tenant; no implementation may return another tenant's rows.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

type Directory interface {
	Filter(ctx context.Context, f Filter) ([]models.TenantUser, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (models.TenantUser, error)
	// Create assigns the id and timestamps.
	Create(ctx context.Context, u models.TenantUser) (models.TenantUser, error)
	// Update replaces the whole record identified by u.ID within u.TenantID.
	// Callers must send every field, not only the changed ones.
	Update(ctx context.Context, u models.TenantUser) (models.TenantUser, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Filter selects staff records. TenantID is required; Role and Status are
// optional exact matches.
type Filter struct {
	TenantID uuid.UUID
	Role     string
	Status   string
}

func (f Filter) Validate() error {
	if f.TenantID == uuid.Nil {
		return &ValidationError{Field: "tenant_id", Message: "tenant is required"}
	}
	return nil
}

func (f Filter) Matches(u models.TenantUser) bool {
	if u.TenantID != f.TenantID {
		return false
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	return true
}

var (
	ErrNotFound  = errors.New("staff member not found")
	ErrTransient = errors.New("directory temporarily unavailable")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validateRecord checks the fields every stored record must carry.
func validateRecord(u models.TenantUser) error {
	switch {
	case u.TenantID == uuid.Nil:
		return &ValidationError{Field: "tenant_id", Message: "tenant is required"}
	case strings.TrimSpace(u.FullName) == "":
		return &ValidationError{Field: "full_name", Message: "full name is required"}
	case strings.TrimSpace(u.Email) == "":
		return &ValidationError{Field: "email", Message: "email is required"}
	case u.Role == "":
		return &ValidationError{Field: "role", Message: "role is required"}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
