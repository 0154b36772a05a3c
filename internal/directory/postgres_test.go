package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		transient bool
		field     string
	}{
		{name: "no rows", err: pgx.ErrNoRows, notFound: true},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), notFound: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, field: "email"},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", ColumnName: "permissions"}, field: "permissions"},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, transient: true},
		{name: "too many connections", err: &pgconn.PgError{Code: "53300"}, transient: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}},
		{name: "canceled", err: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("op", tt.err)

			if IsNotFound(got) != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v (%v)", IsNotFound(got), tt.notFound, got)
			}
			if IsTransient(got) != tt.transient {
				t.Errorf("IsTransient = %v, want %v (%v)", IsTransient(got), tt.transient, got)
			}
			var ve *ValidationError
			isValidation := errors.As(got, &ve)
			if isValidation != (tt.field != "") {
				t.Fatalf("validation = %v, want field %q (%v)", isValidation, tt.field, got)
			}
			if isValidation && ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
			if tt.transient && !errors.Is(got, tt.err) {
				t.Errorf("transient error dropped the cause: %v", got)
			}
		})
	}
}

func TestEncodePermissions(t *testing.T) {
	perms, levels, err := encodePermissions(models.TenantUser{})
	if err != nil {
		t.Fatalf("encodePermissions: %v", err)
	}
	if string(perms) != "[]" {
		t.Errorf("empty permissions = %s, want []", perms)
	}
	if levels != nil {
		t.Errorf("levels = %s, want nil", levels)
	}

	perms, levels, err = encodePermissions(models.TenantUser{
		Permissions:      []string{"manage_sales", "manage_users"},
		PermissionLevels: map[string]string{"manage_sales": "view"},
	})
	if err != nil {
		t.Fatalf("encodePermissions: %v", err)
	}
	if string(perms) != `["manage_sales","manage_users"]` {
		t.Errorf("permissions = %s", perms)
	}
	if string(levels) != `{"manage_sales":"view"}` {
		t.Errorf("levels = %s", levels)
	}
}
