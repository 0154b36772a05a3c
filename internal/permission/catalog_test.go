package permission

import (
	"strings"
	"testing"
)

func TestDefaultCatalogCategories(t *testing.T) {
	c := DefaultCatalog()
	cats := c.Categories()

	want := []string{CategoryClinical, CategoryRetail, CategoryAdministrative}
	if len(cats) != len(want) {
		t.Fatalf("got %d categories, want %d", len(cats), len(want))
	}
	for i, key := range want {
		if cats[i].Key != key {
			t.Errorf("category %d = %q, want %q", i, cats[i].Key, key)
		}
		if len(cats[i].Permissions) == 0 {
			t.Errorf("category %q has no permissions", key)
		}
		for _, p := range cats[i].Permissions {
			if p.Category != key {
				t.Errorf("permission %q category = %q, want %q", p.ID, p.Category, key)
			}
		}
	}
}

func TestPermissionByIDResolvesAcrossCategories(t *testing.T) {
	c := DefaultCatalog()
	for _, id := range c.IDs() {
		p, ok := c.PermissionByID(id)
		if !ok {
			t.Fatalf("PermissionByID(%q) not found", id)
		}
		if p.ID != id {
			t.Errorf("PermissionByID(%q).ID = %q", id, p.ID)
		}
		inCat, ok := c.PermissionsIn(p.Category)
		if !ok {
			t.Fatalf("PermissionsIn(%q) not found", p.Category)
		}
		found := false
		for _, q := range inCat {
			if q.ID == id {
				found = true
			}
		}
		if !found {
			t.Errorf("%q not listed in its category %q", id, p.Category)
		}
	}

	if _, ok := c.PermissionByID("launch_rockets"); ok {
		t.Error("unknown id resolved")
	}
	if _, ok := c.PermissionsIn("kennel"); ok {
		t.Error("unknown category resolved")
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		wantErr    string
	}{
		{
			name: "duplicate id across categories",
			categories: []Category{
				{Key: "a", Permissions: []Permission{{ID: "x"}}},
				{Key: "b", Permissions: []Permission{{ID: "x"}}},
			},
			wantErr: `duplicate permission id "x"`,
		},
		{
			name: "duplicate id within category",
			categories: []Category{
				{Key: "a", Permissions: []Permission{{ID: "x"}, {ID: "x"}}},
			},
			wantErr: `duplicate permission id "x"`,
		},
		{
			name: "duplicate category",
			categories: []Category{
				{Key: "a", Permissions: []Permission{{ID: "x"}}},
				{Key: "a", Permissions: []Permission{{ID: "y"}}},
			},
			wantErr: `duplicate category "a"`,
		},
		{
			name:       "empty id",
			categories: []Category{{Key: "a", Permissions: []Permission{{ID: ""}}}},
			wantErr:    "empty id",
		},
		{
			name:    "no categories",
			wantErr: "no categories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.categories...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	cats := c.Categories()
	cats[0].Permissions[0].Label = "changed"

	if p, _ := c.PermissionByID(cats[0].Permissions[0].ID); p.Label == "changed" {
		t.Error("mutating Categories() result changed the catalog")
	}
	if again := c.Categories(); again[0].Permissions[0].Label == "changed" {
		t.Error("mutating Categories() result changed later calls")
	}
}

func TestValidateIDs(t *testing.T) {
	c := DefaultCatalog()
	if err := c.Validate([]string{PermManageUsers, PermManageSales}); err != nil {
		t.Errorf("Validate known ids: %v", err)
	}
	err := c.Validate([]string{PermManageUsers, "groom_cats"})
	if err == nil || !strings.Contains(err.Error(), "groom_cats") {
		t.Errorf("Validate error = %v, want unknown groom_cats", err)
	}
}
