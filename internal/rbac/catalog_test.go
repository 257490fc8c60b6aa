package rbac

import "testing"

func TestSuperAdminSupersetOfAdmin(t *testing.T) {
	for perm := range Catalog[RoleAdmin] {
		if !Catalog[RoleSuperAdmin].Has(perm) {
			t.Fatalf("super_admin missing admin permission %q", perm)
		}
	}
}

func TestSuperAdminOnlyPermissions(t *testing.T) {
	only := []Permission{PermAdminsManage, PermSystemSettings, PermDatabaseAccess, PermProfileDelete}
	for _, perm := range only {
		if !Catalog[RoleSuperAdmin].Has(perm) {
			t.Fatalf("super_admin missing %q", perm)
		}
		for _, role := range []Role{RoleStudent, RoleMentor, RoleAdmin} {
			if Catalog[role].Has(perm) {
				t.Fatalf("%s must not hold super-admin permission %q", role, perm)
			}
		}
	}
}

func TestStudentMentorOverlapIsSelfServiceOnly(t *testing.T) {
	for perm := range Catalog[RoleStudent] {
		if !Catalog[RoleMentor].Has(perm) {
			continue
		}
		if !selfServicePerms.Has(perm) {
			t.Fatalf("student and mentor share %q outside the self-service set", perm)
		}
	}
}

func TestCatalogExactness(t *testing.T) {
	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleStudent, PermSessionBook, true},
		{RoleStudent, PermAvailabilitySet, false},
		{RoleStudent, PermSessionViewAll, false},
		{RoleMentor, PermAvailabilitySet, true},
		{RoleMentor, PermSessionBook, false},
		{RoleMentor, PermSessionComplete, true},
		{RoleAdmin, PermSessionViewAll, true},
		{RoleAdmin, PermDatabaseAccess, false},
		{RoleSuperAdmin, PermDatabaseAccess, true},
	}
	for _, tc := range cases {
		got := HasPermission(AccessContext{UserID: "u1", Role: tc.role}, tc.perm)
		if got != tc.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestHierarchyFlatInclusion(t *testing.T) {
	if !Encompasses(RoleAdmin, RoleStudent) || !Encompasses(RoleAdmin, RoleMentor) {
		t.Fatal("admin must encompass both student and mentor")
	}
	if Encompasses(RoleMentor, RoleStudent) || Encompasses(RoleStudent, RoleMentor) {
		t.Fatal("mentor and student are incomparable siblings")
	}
	for _, r := range []Role{RoleStudent, RoleMentor, RoleAdmin, RoleSuperAdmin} {
		if !Encompasses(RoleSuperAdmin, r) {
			t.Fatalf("super_admin must encompass %s", r)
		}
		if !Encompasses(r, r) {
			t.Fatalf("%s must encompass itself", r)
		}
	}
}
