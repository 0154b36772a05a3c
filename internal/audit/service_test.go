package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestListQueryDefaults(t *testing.T) {
	tenantID := uuid.New()

	query, args := listQuery(tenantID, Query{})
	if !strings.HasSuffix(query, "ORDER BY created_at DESC LIMIT $2 OFFSET $3") {
		t.Errorf("query = %q", query)
	}
	if len(args) != 3 || args[0] != tenantID || args[1] != 50 || args[2] != 0 {
		t.Errorf("args = %v, want [tenant 50 0]", args)
	}
}

func TestListQueryNumbersFiltersInOrder(t *testing.T) {
	tenantID := uuid.New()
	resourceID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query, args := listQuery(tenantID, Query{
		Action:     ActionStaffPermissionsUpdated,
		ResourceID: &resourceID,
		StartDate:  &start,
		EndDate:    &end,
		Limit:      10,
		Offset:     20,
	})

	for _, clause := range []string{
		"tenant_id = $1",
		"action = $2",
		"resource_id = $3",
		"created_at >= $4",
		"created_at <= $5",
		"LIMIT $6 OFFSET $7",
	} {
		if !strings.Contains(query, clause) {
			t.Errorf("query missing %q: %s", clause, query)
		}
	}
	want := []interface{}{tenantID, ActionStaffPermissionsUpdated, resourceID, start, end, 10, 20}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestListQuerySkipsUnsetFilters(t *testing.T) {
	start := time.Now()

	query, args := listQuery(uuid.New(), Query{StartDate: &start})
	if strings.Contains(query, "action =") || strings.Contains(query, "resource_id =") {
		t.Errorf("query has unset filters: %s", query)
	}
	if !strings.Contains(query, "created_at >= $2") || !strings.Contains(query, "LIMIT $3 OFFSET $4") {
		t.Errorf("query = %s", query)
	}
	if len(args) != 4 {
		t.Errorf("args = %v", args)
	}
}

func TestParseIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"not-an-ip", ""},
		{"10.0.0.7", "10.0.0.7"},
		{"::1", "::1"},
	}
	for _, tt := range tests {
		got := parseIP(tt.in)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("parseIP(%q) = %v, want nil", tt.in, got)
		case tt.want != "" && (got == nil || got.String() != tt.want):
			t.Errorf("parseIP(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}
