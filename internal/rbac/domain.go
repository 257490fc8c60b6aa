// Package rbac implements the static role/permission model. The catalog is
// an immutable process-wide table built at init; the checker is a pure
// function of (context, table) and never performs I/O.
package rbac

// Role is a coarse identity classification. Immutable per user.
type Role string

const (
	RoleStudent    Role = "student"
	RoleMentor     Role = "mentor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Permission is a single named capability independent of any resource
// instance. Permissions are never combined at runtime; they are always
// looked up from the static catalog.
type Permission string

// Resource is a closed enumeration of guarded resource kinds.
type Resource string

const (
	ResourceUser      Resource = "user"
	ResourceSession   Resource = "session"
	ResourceReview    Resource = "review"
	ResourcePayment   Resource = "payment"
	ResourceAnalytics Resource = "analytics"
	ResourcePlatform  Resource = "platform"
)

// Action is a closed enumeration of operations on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// AccessContext carries the identity and optional target-resource ids for
// one request. Constructed once per request, never mutated.
type AccessContext struct {
	UserID          string
	Role            Role
	ResourceID      string
	ResourceOwnerID string
	SessionID       string
}
