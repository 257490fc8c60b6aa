package rbac

import "testing"

func TestCanAccessOwnResource(t *testing.T) {
	for _, role := range []Role{RoleStudent, RoleMentor, RoleAdmin, RoleSuperAdmin} {
		ctx := AccessContext{UserID: "u-42", Role: role}
		if !CanAccessOwnResource(ctx, ctx.UserID) {
			t.Fatalf("%s cannot access own resource", role)
		}
		if CanAccessOwnResource(ctx, "u-43") {
			t.Fatalf("%s may not access another user's resource", role)
		}
	}
	// Exact equality means empty matches empty; callers must not use the
	// empty string as a "no owner" sentinel.
	if !CanAccessOwnResource(AccessContext{}, "") {
		t.Fatal("empty owner must match empty context")
	}
}

func TestCanPerformSessionRules(t *testing.T) {
	student := AccessContext{UserID: "s1", Role: RoleStudent}
	mentor := AccessContext{UserID: "m1", Role: RoleMentor}
	admin := AccessContext{UserID: "a1", Role: RoleAdmin}

	if !CanPerform(student, ActionCreate, ResourceSession) {
		t.Fatal("student must be able to create sessions")
	}
	if CanPerform(mentor, ActionCreate, ResourceSession) {
		t.Fatal("mentor must not book sessions")
	}
	// Update is reachable through manage, manage_students or reschedule.
	if !CanPerform(student, ActionUpdate, ResourceSession) {
		t.Fatal("student reschedule permission must allow session update")
	}
	if !CanPerform(mentor, ActionUpdate, ResourceSession) {
		t.Fatal("mentor manage_students must allow session update")
	}
	if !CanPerform(admin, ActionDelete, ResourceSession) {
		t.Fatal("admin must be able to delete sessions")
	}
}

func TestSuperAdminShortCircuit(t *testing.T) {
	super := AccessContext{UserID: "root", Role: RoleSuperAdmin}
	resources := []Resource{ResourceUser, ResourceSession, ResourceReview, ResourcePayment, ResourceAnalytics, ResourcePlatform}
	actions := []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}
	for _, res := range resources {
		for _, act := range actions {
			if !CanPerform(super, act, res) {
				t.Fatalf("super_admin denied %s on %s", act, res)
			}
		}
	}
}

func TestUnknownRoleDeniedEverything(t *testing.T) {
	ghost := AccessContext{UserID: "g1", Role: Role("ghost")}
	if HasPermission(ghost, PermSessionBook) {
		t.Fatal("unknown role must hold no permissions")
	}
	if CanPerform(ghost, ActionRead, ResourceSession) {
		t.Fatal("unknown role must not pass resource rules")
	}
}
