// Package secctx carries the per-request security context: tenant identity,
// caller role, user identity and the system flag. The context rides on
// context.Context, so each logical request owns an isolated copy and
// concurrent requests can never observe each other's values. An absent
// context reads as the zero value, which the data gateway treats as
// fail-closed: empty tenant, ANONYMOUS role, empty user.
package secctx

import "context"

type contextKey struct{}

type txGuardKey struct{}

// Context is the security context for one logical request or one manually
// opened scope. It is a plain value; callers receive copies and cannot
// mutate the stored instance.
type Context struct {
	TenantID string
	Role     Role
	UserID   string
	IsSystem bool
}

// EffectiveRole returns the role pinned at the database session. System
// scopes and super admins map to SUPER_ADMIN regardless of the literal
// role; everybody else is pinned verbatim.
func (c Context) EffectiveRole() Role {
	if c.IsSystem || c.Role == RoleSuperAdmin {
		return RoleSuperAdmin
	}
	return c.Role
}

// With returns a child context carrying sc. This is the normal per-request
// hydration path used by the credential verifier.
func With(ctx context.Context, sc Context) context.Context {
	if !sc.Role.Valid() {
		sc.Role = RoleAnonymous
	}
	return context.WithValue(ctx, contextKey{}, sc)
}

// From reads the active security context. It never fails: outside any
// populated scope it returns the zero value, whose empty tenant and
// ANONYMOUS role deny data access at the row-security layer.
func From(ctx context.Context) Context {
	sc, ok := ctx.Value(contextKey{}).(Context)
	if !ok {
		return Context{Role: RoleAnonymous}
	}
	if sc.Role == "" {
		sc.Role = RoleAnonymous
	}
	return sc
}

// System opens a system-mode scope: no tenant or role restriction, used
// only for credential lookup during login and for scheduled background
// jobs that operate across tenants. The returned context shadows any
// caller-visible principal.
func System(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, Context{Role: RoleAnonymous, IsSystem: true})
}

// WithPrincipal opens a scope populated from a manually verified source,
// such as a decoded refresh token, for flows where the route is public and
// the verifier did not run. IsSystem is always false here.
func WithPrincipal(ctx context.Context, tenantID string, role Role, userID string) context.Context {
	if !role.Valid() {
		role = RoleAnonymous
	}
	return context.WithValue(ctx, contextKey{}, Context{
		TenantID: tenantID,
		Role:     role,
		UserID:   userID,
	})
}

// MarkInTransaction flags ctx as being inside a gateway-managed transaction.
// Only the data gateway sets this; the single-operation path checks it to
// reject nested misuse.
func MarkInTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, txGuardKey{}, true)
}

// InTransaction reports whether ctx is inside a gateway-managed transaction.
func InTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(txGuardKey{}).(bool)
	return v
}
