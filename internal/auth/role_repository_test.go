package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRoleRepository_CreateWithPermissions(t *testing.T) {
	db := testDB(t)
	ids := seedPermissions(t, db, "Read_Brand", "Write_Brand")
	repo := NewRoleRepository(db)
	ctx := context.Background()

	role := &Role{Name: "Merchandiser", Description: "Brand editor"}
	if err := repo.Create(ctx, role, []string{ids["Read_Brand"], ids["Write_Brand"], ids["Read_Brand"]}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rp, err := repo.RoleWithPermissions(ctx, role.ID)
	if err != nil {
		t.Fatalf("RoleWithPermissions() error = %v", err)
	}
	if want := []string{"Read_Brand", "Write_Brand"}; !reflect.DeepEqual(rp.Permissions, want) {
		t.Errorf("permissions = %v, want %v", rp.Permissions, want)
	}
}

func TestRoleRepository_CreateUnknownPermissionWritesNothing(t *testing.T) {
	db := testDB(t)
	ids := seedPermissions(t, db, "Read_Brand")
	repo := NewRoleRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &Role{Name: "Broken"}, []string{ids["Read_Brand"], "prm-missing"})
	if !errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("Create() error = %v, want ErrPermissionNotFound", err)
	}
	if _, err := repo.GetByName(ctx, "Broken"); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("role persisted after failed create: %v", err)
	}
}

func TestRoleRepository_CreateDuplicateName(t *testing.T) {
	db := testDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &Role{Name: "Ops"}, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &Role{Name: "Ops"}, nil); !errors.Is(err, ErrRoleExists) {
		t.Errorf("duplicate: got %v, want ErrRoleExists", err)
	}
	if err := repo.Create(ctx, &Role{Name: "  "}, nil); !errors.Is(err, ErrInvalidName) {
		t.Errorf("blank name: got %v, want ErrInvalidName", err)
	}
}

func TestRoleRepository_PermissionNames(t *testing.T) {
	db := testDB(t)
	empty := seedRole(t, db, "Empty")
	full := seedRole(t, db, "Full", "Read_User", "Delete_User")
	repo := NewRoleRepository(db)
	ctx := context.Background()

	names, err := repo.PermissionNames(ctx, empty.ID)
	if err != nil || len(names) != 0 {
		t.Errorf("empty role: got %v, %v; want no names", names, err)
	}

	names, err = repo.PermissionNames(ctx, full.ID)
	if err != nil {
		t.Fatalf("PermissionNames() error = %v", err)
	}
	if want := []string{"Delete_User", "Read_User"}; !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}

	if _, err := repo.PermissionNames(ctx, "rol-missing"); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("missing role: got %v, want ErrRoleNotFound", err)
	}
}

func TestRoleRepository_List(t *testing.T) {
	db := testDB(t)
	seedRole(t, db, "B-role", "Read_User", "Write_User")
	seedRole(t, db, "A-role")
	repo := NewRoleRepository(db)

	roles, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("got %d roles, want 2", len(roles))
	}
	if roles[0].Name != "A-role" || len(roles[0].Permissions) != 0 {
		t.Errorf("roles[0] = %+v, want A-role with no permissions", roles[0])
	}
	if roles[1].Name != "B-role" || len(roles[1].Permissions) != 2 {
		t.Errorf("roles[1] = %+v, want B-role with 2 permissions", roles[1])
	}
}

func TestRoleRepository_Update(t *testing.T) {
	db := testDB(t)
	role := seedRole(t, db, "Editor", "Read_Brand")
	extra := seedPermissions(t, db, "Write_Brand")
	existing, _ := NewPermissionRepository(db).GetByName(context.Background(), "Read_Brand")
	repo := NewRoleRepository(db)
	ctx := context.Background()

	name, desc := "Brand Editor", "Edits brands"
	updated, err := repo.Update(ctx, role.ID, RolePatch{
		Name:             &name,
		Description:      &desc,
		AddPermissionIDs: []string{existing.ID, extra["Write_Brand"]},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != name || updated.Description != desc {
		t.Errorf("got %+v", updated)
	}

	names, _ := repo.PermissionNames(ctx, role.ID)
	if want := []string{"Read_Brand", "Write_Brand"}; !reflect.DeepEqual(names, want) {
		t.Errorf("permissions = %v, want %v", names, want)
	}
}

func TestRoleRepository_UpdateUnknownPermissionAppliesNothing(t *testing.T) {
	db := testDB(t)
	role := seedRole(t, db, "Editor")
	repo := NewRoleRepository(db)
	ctx := context.Background()

	name := "Renamed"
	_, err := repo.Update(ctx, role.ID, RolePatch{Name: &name, AddPermissionIDs: []string{"prm-missing"}})
	if !errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("Update() error = %v, want ErrPermissionNotFound", err)
	}

	got, _ := repo.GetByID(ctx, role.ID)
	if got.Name != "Editor" {
		t.Errorf("name = %q after failed patch, want Editor", got.Name)
	}

	if _, err := repo.Update(ctx, "rol-missing", RolePatch{}); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("missing role: got %v, want ErrRoleNotFound", err)
	}
}

func TestRoleRepository_Delete(t *testing.T) {
	db := testDB(t)
	used := seedRole(t, db, "Used", "Read_User")
	unused := seedRole(t, db, "Unused", "Write_User")
	seedUser(t, db, "Ada", "ada@keygate.io", used.ID)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	if err := repo.Delete(ctx, used.ID); !errors.Is(err, ErrRoleInUse) {
		t.Errorf("in-use role: got %v, want ErrRoleInUse", err)
	}
	if err := repo.Delete(ctx, unused.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, unused.ID); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("second delete: got %v, want ErrRoleNotFound", err)
	}

	var links int
	if err := db.QueryRow("SELECT COUNT(*) FROM role_permissions WHERE role_id = ?", unused.ID).Scan(&links); err != nil {
		t.Fatalf("counting links: %v", err)
	}
	if links != 0 {
		t.Errorf("%d links survived role delete", links)
	}
}
