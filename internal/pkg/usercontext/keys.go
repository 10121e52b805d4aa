package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyFromProtected = "from_protected"
)

// OrgCookieName carries the active organization between requests. The value
// is only trusted after the membership check in the organization middleware.
const OrgCookieName = "current_org_id"
