package permission

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

// memSaver stores the last record written through Update.
type memSaver struct {
	saved models.TenantUser
	calls int
}

func (s *memSaver) Update(_ context.Context, u models.TenantUser) (models.TenantUser, error) {
	s.calls++
	s.saved = u.Clone()
	return u.Clone(), nil
}

func newUser(role Role, perms ...string) models.TenantUser {
	return models.TenantUser{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		FullName:    "Dana Ortiz",
		Email:       "dana@example.com",
		Role:        string(role),
		Status:      models.StatusActive,
		Permissions: perms,
	}
}

func TestResolveEmptyPermissionsUsesRoleDefaults(t *testing.T) {
	r := NewResolver(DefaultMatrix(), ModeCompat)

	for _, role := range Roles {
		got, err := r.Resolve(newUser(role))
		if err != nil {
			t.Fatalf("Resolve(%s): %v", role, err)
		}
		want, _ := DefaultMatrix().Defaults(role)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: resolved %v, want defaults %v", role, got, want)
		}
	}
}

func TestResolveStoredPermissionsCollapseToFull(t *testing.T) {
	r := NewResolver(DefaultMatrix(), ModeCompat)

	got, err := r.Resolve(newUser(RoleVeterinarian, PermManageCustomers, PermManageSales))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != len(DefaultCatalog().IDs()) {
		t.Fatalf("resolved %d ids, want complete map", len(got))
	}
	for id, l := range got {
		want := LevelNone
		if id == PermManageCustomers || id == PermManageSales {
			want = LevelFull
		}
		if l != want {
			t.Errorf("%s = %s, want %s", id, l, want)
		}
	}
}

func TestResolveIgnoresUnknownStoredIDs(t *testing.T) {
	r := NewResolver(DefaultMatrix(), ModeCompat)

	got, err := r.Resolve(newUser(RoleStaff, "legacy_flag", PermManageInventory))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := got["legacy_flag"]; ok {
		t.Error("unknown id leaked into resolved levels")
	}
	if got[PermManageInventory] != LevelFull {
		t.Errorf("manage_inventory = %s, want full", got[PermManageInventory])
	}
}

func TestResolveUnknownRoleWithoutPermissions(t *testing.T) {
	r := NewResolver(DefaultMatrix(), ModeCompat)
	if _, err := r.Resolve(newUser("janitor")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestResolveStrictModeReadsStoredLevels(t *testing.T) {
	u := newUser(RoleStaff, PermManageCustomers, PermManageSales)
	u.PermissionLevels = map[string]string{PermManageCustomers: "view"}

	strict, err := NewResolver(DefaultMatrix(), ModeStrict).Resolve(u)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if strict[PermManageCustomers] != LevelView {
		t.Errorf("strict manage_customers = %s, want view", strict[PermManageCustomers])
	}
	// Ids without a stored level still resolve to full.
	if strict[PermManageSales] != LevelFull {
		t.Errorf("strict manage_sales = %s, want full", strict[PermManageSales])
	}

	compat, _ := NewResolver(DefaultMatrix(), ModeCompat).Resolve(u)
	if compat[PermManageCustomers] != LevelFull {
		t.Errorf("compat manage_customers = %s, want full", compat[PermManageCustomers])
	}
}

func TestCommitThenResolveIsLossy(t *testing.T) {
	r := NewResolver(DefaultMatrix(), ModeCompat)
	saver := &memSaver{}

	ed, err := r.NewEditor(newUser(RoleVeterinarian))
	if err != nil {
		t.Fatalf("NewEditor: %v", err)
	}
	// Role default for veterinarian is view; setting view clears it.
	if l, _ := ed.SetLevel(PermViewReports, LevelView); l != LevelNone {
		t.Fatalf("toggle off view_reports = %s", l)
	}
	if _, err := ed.SetLevel(PermManageSales, LevelView); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	staged := ed.Levels()

	saved, err := ed.Commit(context.Background(), saver)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := r.Resolve(saved)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got[PermManageSales] != LevelFull {
		t.Errorf("manage_sales after round trip = %s, want full", got[PermManageSales])
	}
	if got[PermViewReports] != LevelNone {
		t.Errorf("view_reports after round trip = %s, want none", got[PermViewReports])
	}
	// Membership survives the round trip even though levels do not.
	for id, l := range staged {
		if l.Granted() != got[id].Granted() {
			t.Errorf("%s membership changed: staged %s, resolved %s", id, l, got[id])
		}
	}
}

func TestStrictCommitPreservesLevels(t *testing.T) {
	r := NewResolver(DefaultMatrix(), ModeStrict)
	saver := &memSaver{}

	ed, err := r.NewEditor(newUser(RoleReceptionist))
	if err != nil {
		t.Fatalf("NewEditor: %v", err)
	}
	before := ed.Levels()

	saved, err := ed.Commit(context.Background(), saver)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if saved.PermissionLevels[PermManageMedicalRecords] != "view" {
		t.Errorf("stored level = %q, want view", saved.PermissionLevels[PermManageMedicalRecords])
	}

	after, err := r.Resolve(saved)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("strict round trip changed levels:\nbefore %v\nafter  %v", before, after)
	}
}

func TestViewOnCustomersResolvesFullAfterCommit(t *testing.T) {
	r := NewResolver(DefaultMatrix(), ModeCompat)

	ed, err := r.NewEditor(newUser(RoleManager))
	if err != nil {
		t.Fatalf("NewEditor: %v", err)
	}
	if l, err := ed.SetLevel(PermManageCustomers, LevelView); err != nil || l != LevelView {
		t.Fatalf("SetLevel = %s, %v; want view", l, err)
	}

	saved, err := ed.Commit(context.Background(), &memSaver{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, err := r.Resolve(saved)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got[PermManageCustomers] != LevelFull {
		t.Errorf("manage_customers = %s, want full", got[PermManageCustomers])
	}
}
