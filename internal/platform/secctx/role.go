package secctx

import "fmt"

// Role is the closed set of caller roles recognised by the platform.
type Role string

const (
	// RoleSuperAdmin is the only role not bound to a tenant; its data scope
	// is unfiltered.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleSchoolAdmin administers a single school tenant.
	RoleSchoolAdmin Role = "SCHOOL_ADMIN"
	// RolePrincipal has read/approve powers within a tenant.
	RolePrincipal Role = "PRINCIPAL"
	// RoleTeacher marks attendance and manages own leaves.
	RoleTeacher Role = "TEACHER"
	// RoleClerk handles admissions clerical work.
	RoleClerk Role = "CLERK"
	// RoleParent is the guardian-facing role.
	RoleParent Role = "PARENT"
	// RoleAnonymous is the default for unauthenticated callers. It is never
	// granted by a token and always fails role checks.
	RoleAnonymous Role = "ANONYMOUS"
)

// ParseRole maps a string onto the closed role set. Unknown values are
// rejected rather than passed through, so a forged or stale token claim can
// never widen access.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleSchoolAdmin, RolePrincipal, RoleTeacher, RoleClerk, RoleParent:
		return Role(s), nil
	case RoleAnonymous:
		return RoleAnonymous, fmt.Errorf("secctx: role %q cannot be asserted by a credential", s)
	default:
		return RoleAnonymous, fmt.Errorf("secctx: unknown role %q", s)
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSchoolAdmin, RolePrincipal, RoleTeacher, RoleClerk, RoleParent, RoleAnonymous:
		return true
	default:
		return false
	}
}

// Tenanted reports whether the role is scoped to a tenant. SUPER_ADMIN is
// the single exception: it carries no tenant by design.
func (r Role) Tenanted() bool {
	return r != RoleSuperAdmin
}

func (r Role) String() string { return string(r) }
