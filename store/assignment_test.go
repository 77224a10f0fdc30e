package store

import (
	"context"
	"errors"
	"testing"

	"github.com/gymstack/rbac/models"
)

func setupAssignmentTest(t *testing.T) (*RoleUserStore, *RoleStore) {
	t.Helper()
	db, err := getTestGormDB()
	if err != nil {
		t.Fatal("failed to setup test database:", err)
	}
	wipeModuleData(t, db, string(models.ModuleFOH))
	return NewRoleUserStore(db), NewRoleStore(db)
}

func TestRoleUserStore_AssignRemoveRestore(t *testing.T) {
	rus, rs := setupAssignmentTest(t)
	ctx := context.Background()

	role, err := rs.Create(ctx, models.Role{OrgID: "org-1", Name: "Sales", Module: models.ModuleFOH, IsActive: true}, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, created, err := rus.Assign(ctx, "org-1", role.ID, "user-1", models.ModuleFOH, false)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("first assign should create a row")
	}

	// Assigning again is a no-op on the same row.
	again, created, err := rus.Assign(ctx, "org-1", role.ID, "user-1", models.ModuleFOH, false)
	if err != nil {
		t.Fatal(err)
	}
	if created || again.ID != first.ID {
		t.Errorf("repeat assign created a new row: created=%v id=%s want %s", created, again.ID, first.ID)
	}

	if err := rus.Remove(ctx, role.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	active, err := rus.ListActiveByRole(ctx, role.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("assignment still active after remove: %+v", active)
	}
	all, err := rus.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("soft delete dropped the row: %d rows", len(all))
	}
	if !all[0].IsDeleted || all[0].DeletedAt == nil {
		t.Errorf("deletion pair out of sync: is_deleted=%v deleted_at=%v", all[0].IsDeleted, all[0].DeletedAt)
	}

	// Re-assigning restores the same row.
	restored, created, err := rus.Assign(ctx, "org-1", role.ID, "user-1", models.ModuleFOH, false)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("restore should not create a new row")
	}
	if restored.ID != first.ID {
		t.Errorf("restore replaced the row: %s != %s", restored.ID, first.ID)
	}
	all, _ = rus.ListByUser(ctx, "user-1")
	if len(all) != 1 || all[0].IsDeleted || all[0].DeletedAt != nil {
		t.Errorf("restored row not clean: %+v", all)
	}
}

func TestRoleUserStore_ForceRecreates(t *testing.T) {
	rus, rs := setupAssignmentTest(t)
	ctx := context.Background()

	role, err := rs.Create(ctx, models.Role{OrgID: "org-1", Name: "Sales", Module: models.ModuleFOH, IsActive: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	first, _, err := rus.Assign(ctx, "org-1", role.ID, "user-1", models.ModuleFOH, false)
	if err != nil {
		t.Fatal(err)
	}

	forced, created, err := rus.Assign(ctx, "org-1", role.ID, "user-1", models.ModuleFOH, true)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("force assign should create a fresh row")
	}
	if forced.ID == first.ID {
		t.Error("force assign reused the old row")
	}
	all, _ := rus.ListByUser(ctx, "user-1")
	if len(all) != 1 {
		t.Fatalf("force left %d rows, want 1", len(all))
	}
}

func TestRoleUserStore_RemoveMissing(t *testing.T) {
	rus, _ := setupAssignmentTest(t)
	if err := rus.Remove(context.Background(), "no-such-role", "no-such-user"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
