package rbac

// Session permissions.
const (
	PermSessionBook           Permission = "session.book"
	PermSessionViewOwn        Permission = "session.view_own"
	PermSessionViewAll        Permission = "session.view_all"
	PermSessionManage         Permission = "session.manage"
	PermSessionManageStudents Permission = "session.manage_students"
	PermSessionReschedule     Permission = "session.reschedule"
	PermSessionCancel         Permission = "session.cancel"
	PermSessionComplete       Permission = "session.complete"
)

// Availability permissions.
const (
	PermAvailabilitySet  Permission = "availability.set"
	PermAvailabilityView Permission = "availability.view"
)

// Profile permissions.
const (
	PermProfileView    Permission = "profile.view"
	PermProfileEditOwn Permission = "profile.edit_own"
	PermProfileDelete  Permission = "profile.delete"
)

// Review permissions.
const (
	PermReviewCreate    Permission = "review.create"
	PermReviewEditOwn   Permission = "review.edit_own"
	PermReviewDeleteOwn Permission = "review.delete_own"
	PermReviewRespond   Permission = "review.respond"
	PermReviewManage    Permission = "review.manage"
)

// Payment and earnings permissions.
const (
	PermPaymentViewOwn  Permission = "payment.view_own"
	PermPaymentViewAll  Permission = "payment.view_all"
	PermPaymentManage   Permission = "payment.manage"
	PermEarningsViewOwn Permission = "earnings.view_own"
)

// Notification permissions.
const (
	PermNotificationViewOwn Permission = "notification.view_own"
	PermNotificationManage  Permission = "notification.manage"
)

// Platform administration permissions.
const (
	PermUsersManage      Permission = "users.manage"
	PermAnalyticsView    Permission = "analytics.view"
	PermPlatformModerate Permission = "platform.moderate"
)

// Super-admin-only permissions.
const (
	PermAdminsManage   Permission = "admins.manage"
	PermSystemSettings Permission = "system.settings"
	PermDatabaseAccess Permission = "database.access"
)

// PermissionSet is an immutable set of permissions.
type PermissionSet map[Permission]struct{}

// Has reports membership.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func newSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func union(sets ...PermissionSet) PermissionSet {
	out := PermissionSet{}
	for _, s := range sets {
		for p := range s {
			out[p] = struct{}{}
		}
	}
	return out
}

// selfServicePerms are shared by students and mentors: reads plus the
// own-scoped mutations every account holder keeps for their own records.
var selfServicePerms = newSet(
	PermSessionViewOwn,
	PermSessionCancel,
	PermProfileView,
	PermProfileEditOwn,
	PermPaymentViewOwn,
	PermNotificationViewOwn,
	PermAvailabilityView,
)

var studentPerms = union(selfServicePerms, newSet(
	PermSessionBook,
	PermSessionReschedule,
	PermReviewCreate,
	PermReviewEditOwn,
	PermReviewDeleteOwn,
))

var mentorPerms = union(selfServicePerms, newSet(
	PermAvailabilitySet,
	PermSessionManageStudents,
	PermSessionComplete,
	PermEarningsViewOwn,
	PermReviewRespond,
))

var adminPerms = newSet(
	PermUsersManage,
	PermSessionViewOwn,
	PermSessionViewAll,
	PermSessionManage,
	PermSessionCancel,
	PermSessionComplete,
	PermSessionReschedule,
	PermAvailabilityView,
	PermProfileView,
	PermReviewManage,
	PermPaymentViewAll,
	PermPaymentManage,
	PermAnalyticsView,
	PermPlatformModerate,
	PermNotificationViewOwn,
	PermNotificationManage,
)

// superAdminPerms is a strict superset of adminPerms plus the
// super-admin-only capabilities.
var superAdminPerms = union(adminPerms, newSet(
	PermAdminsManage,
	PermSystemSettings,
	PermDatabaseAccess,
	PermProfileDelete,
))

// Catalog maps every role to its permission set. Built once, never mutated.
var Catalog = map[Role]PermissionSet{
	RoleStudent:    studentPerms,
	RoleMentor:     mentorPerms,
	RoleAdmin:      adminPerms,
	RoleSuperAdmin: superAdminPerms,
}

// Hierarchy is a flat inclusion table, not a containment tree: mentor and
// student are incomparable siblings, yet admin includes both. This mirrors
// the marketplace's business rule and must not be modelled as subtyping.
var Hierarchy = map[Role]map[Role]struct{}{
	RoleStudent: roleSet(RoleStudent),
	RoleMentor:  roleSet(RoleMentor),
	RoleAdmin:   roleSet(RoleAdmin, RoleMentor, RoleStudent),
	RoleSuperAdmin: roleSet(
		RoleSuperAdmin, RoleAdmin, RoleMentor, RoleStudent,
	),
}

func roleSet(roles ...Role) map[Role]struct{} {
	s := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}
