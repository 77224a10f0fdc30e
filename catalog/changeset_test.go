package catalog

import (
	"errors"
	"testing"

	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/ordering"
)

func TestResolve(t *testing.T) {
	cands := []Selection{
		{ID: "c1", Label: "Members"},
		{ID: "c2", Label: "Billing"},
	}
	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr bool
	}{
		{"by id", "c2", "c2", false},
		{"by exact name", "Members", "c1", false},
		{"name case-insensitive", "billing", "c2", false},
		{"unknown", "Reports", "", true},
		{"empty", "  ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Resolve(cands, tt.token)
			if tt.wantErr {
				if !errors.Is(err, models.ErrNotFound) {
					t.Fatalf("err = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if sel.ID != tt.wantID {
				t.Errorf("ID = %s, want %s", sel.ID, tt.wantID)
			}
		})
	}
}

func TestComputeRename(t *testing.T) {
	sibs := []Sibling{
		{ID: "t1", Name: "View Members"},
		{ID: "t2", Name: "Edit Members"},
	}
	ch, err := ComputeRename(sibs, "t1", "Browse Members", true)
	if err != nil {
		t.Fatalf("ComputeRename: %v", err)
	}
	if ch.NewName != "Browse Members" || ch.NewSlug != "browse-members" {
		t.Errorf("change = %+v", ch)
	}

	// Renaming to its own current name is allowed (self excluded from check).
	if _, err := ComputeRename(sibs, "t1", "View Members", true); err != nil {
		t.Errorf("rename to own name: %v", err)
	}

	if _, err := ComputeRename(sibs, "t1", "edit members", true); !errors.Is(err, models.ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
	if _, err := ComputeRename(sibs, "t1", "  ", true); !errors.Is(err, models.ErrNameRequired) {
		t.Errorf("err = %v, want ErrNameRequired", err)
	}
	if _, err := ComputeRename(sibs, "zz", "Anything", true); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// Categories carry no slug.
	ch, err = ComputeRename(sibs, "t2", "Manage Members", false)
	if err != nil {
		t.Fatalf("ComputeRename: %v", err)
	}
	if ch.NewSlug != "" {
		t.Errorf("NewSlug = %q, want empty for category rename", ch.NewSlug)
	}
}

func TestComputeReposition(t *testing.T) {
	items := []ordering.Item{{ID: "a", Order: 1}, {ID: "b", Order: 2}, {ID: "c", Order: 3}}
	ch, err := ComputeReposition(items, "c", 1)
	if err != nil {
		t.Fatalf("ComputeReposition: %v", err)
	}
	if ch.Plan.SubjectOrder != 1 {
		t.Errorf("SubjectOrder = %d, want 1", ch.Plan.SubjectOrder)
	}
	if _, err := ComputeReposition(items, "c", 4); !errors.Is(err, models.ErrPositionOutOfRange) {
		t.Errorf("err = %v, want ErrPositionOutOfRange", err)
	}
}

func TestComputeRecategorize(t *testing.T) {
	cats := []Selection{{ID: "c1", Label: "Members"}}
	ch, err := ComputeRecategorize(cats, "t1", "Members")
	if err != nil {
		t.Fatalf("ComputeRecategorize: %v", err)
	}
	if ch.CategoryID == nil || *ch.CategoryID != "c1" {
		t.Errorf("change = %+v", ch)
	}
	ch, err = ComputeRecategorize(cats, "t1", "Uncategorized")
	if err != nil {
		t.Fatalf("ComputeRecategorize: %v", err)
	}
	if ch.CategoryID != nil {
		t.Errorf("CategoryID = %v, want nil", *ch.CategoryID)
	}
	if _, err := ComputeRecategorize(cats, "t1", "Nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestComputeBindingChanges(t *testing.T) {
	roles := []RoleRef{
		{ID: "r1", Name: "Admin"},
		{ID: "r2", Name: "Sales"},
		{ID: "r3", Name: "Reception", IsFixed: true},
	}
	changes, missing, err := ComputeBindingChanges(roles, "t1", []string{"admin", "Ghost"}, []string{"Sales"})
	if err != nil {
		t.Fatalf("ComputeBindingChanges: %v", err)
	}
	if len(missing) != 1 || missing[0] != "Ghost" {
		t.Errorf("missing = %v, want [Ghost]", missing)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %v", changes)
	}
	if !changes[0].Activate || changes[0].RoleID != "r1" {
		t.Errorf("changes[0] = %+v, want activate r1", changes[0])
	}
	if changes[1].Activate || changes[1].RoleID != "r2" {
		t.Errorf("changes[1] = %+v, want deactivate r2", changes[1])
	}

	if _, _, err := ComputeBindingChanges(roles, "t1", []string{"Reception"}, nil); !errors.Is(err, models.ErrFixedRole) {
		t.Errorf("err = %v, want ErrFixedRole", err)
	}
}
