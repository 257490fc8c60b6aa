package rbac

// HasPermission reports whether the context's role grants the permission.
// Pure catalog lookup: no I/O, no side effects, absence is simply false.
func HasPermission(ctx AccessContext, perm Permission) bool {
	set, ok := Catalog[ctx.Role]
	if !ok {
		return false
	}
	return set.Has(perm)
}

// Encompasses reports whether role a includes role b per the flat
// inclusion table.
func Encompasses(a, b Role) bool {
	set, ok := Hierarchy[a]
	if !ok {
		return false
	}
	_, ok = set[b]
	return ok
}

// CanAccessOwnResource reports whether the context's user owns the
// resource. Exact string equality: an empty-string owner matches an
// empty-string context, so callers must not pass empty as a sentinel for
// "no owner".
func CanAccessOwnResource(ctx AccessContext, ownerID string) bool {
	return ctx.UserID == ownerID
}

// CanPerform evaluates the resource-specific rule table for one
// (action, resource) pair. Super admins short-circuit to true for every
// combination.
func CanPerform(ctx AccessContext, action Action, resource Resource) bool {
	if ctx.Role == RoleSuperAdmin {
		return true
	}
	switch resource {
	case ResourceUser:
		return canPerformUser(ctx, action)
	case ResourceSession:
		return canPerformSession(ctx, action)
	case ResourceReview:
		return canPerformReview(ctx, action)
	case ResourcePayment:
		return canPerformPayment(ctx, action)
	case ResourceAnalytics:
		return HasPermission(ctx, PermAnalyticsView)
	case ResourcePlatform:
		return HasPermission(ctx, PermPlatformModerate)
	}
	return false
}

func canPerformUser(ctx AccessContext, action Action) bool {
	switch action {
	case ActionCreate, ActionManage:
		return HasPermission(ctx, PermUsersManage)
	case ActionRead:
		// Any role may read public profiles; ownership rules for private
		// fields are applied by the caller via CanAccessOwnResource.
		return HasPermission(ctx, PermProfileView)
	case ActionUpdate:
		return HasPermission(ctx, PermProfileEditOwn) || HasPermission(ctx, PermUsersManage)
	case ActionDelete:
		return HasPermission(ctx, PermProfileDelete)
	}
	return false
}

func canPerformSession(ctx AccessContext, action Action) bool {
	switch action {
	case ActionCreate:
		return HasPermission(ctx, PermSessionBook)
	case ActionRead:
		return HasPermission(ctx, PermSessionViewOwn) || HasPermission(ctx, PermSessionViewAll)
	case ActionUpdate:
		return HasPermission(ctx, PermSessionManage) ||
			HasPermission(ctx, PermSessionManageStudents) ||
			HasPermission(ctx, PermSessionReschedule)
	case ActionDelete:
		return HasPermission(ctx, PermSessionCancel) || HasPermission(ctx, PermSessionManage)
	case ActionManage:
		return HasPermission(ctx, PermSessionManage)
	}
	return false
}

func canPerformReview(ctx AccessContext, action Action) bool {
	switch action {
	case ActionCreate:
		return HasPermission(ctx, PermReviewCreate)
	case ActionRead:
		// Reviews are public.
		return true
	case ActionUpdate:
		return HasPermission(ctx, PermReviewEditOwn) || HasPermission(ctx, PermReviewManage)
	case ActionDelete:
		return HasPermission(ctx, PermReviewDeleteOwn) || HasPermission(ctx, PermReviewManage)
	case ActionManage:
		return HasPermission(ctx, PermReviewManage)
	}
	return false
}

func canPerformPayment(ctx AccessContext, action Action) bool {
	switch action {
	case ActionRead:
		return HasPermission(ctx, PermPaymentViewOwn) || HasPermission(ctx, PermPaymentViewAll)
	case ActionCreate, ActionUpdate, ActionDelete, ActionManage:
		return HasPermission(ctx, PermPaymentManage)
	}
	return false
}
