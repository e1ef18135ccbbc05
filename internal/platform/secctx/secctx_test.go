package secctx_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

func TestFromDefaultsFailClosed(t *testing.T) {
	sc := secctx.From(context.Background())
	require.Empty(t, sc.TenantID)
	require.Equal(t, secctx.RoleAnonymous, sc.Role)
	require.Empty(t, sc.UserID)
	require.False(t, sc.IsSystem)
}

func TestNestedScopeShadowsWithoutMutatingParent(t *testing.T) {
	parent := secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: secctx.RoleTeacher, UserID: "u-1",
	})
	child := secctx.With(parent, secctx.Context{
		TenantID: "t-2", Role: secctx.RoleClerk, UserID: "u-2",
	})

	require.Equal(t, "t-2", secctx.From(child).TenantID)
	require.Equal(t, "t-1", secctx.From(parent).TenantID)
	require.Equal(t, secctx.RoleTeacher, secctx.From(parent).Role)
}

func TestSystemScope(t *testing.T) {
	ctx := secctx.System(context.Background())
	sc := secctx.From(ctx)
	require.True(t, sc.IsSystem)
	require.Empty(t, sc.TenantID)
	require.Equal(t, secctx.RoleSuperAdmin, sc.EffectiveRole())
}

func TestWithPrincipalNeverSystem(t *testing.T) {
	ctx := secctx.WithPrincipal(secctx.System(context.Background()), "t-3", secctx.RoleParent, "u-3")
	sc := secctx.From(ctx)
	require.False(t, sc.IsSystem)
	require.Equal(t, "t-3", sc.TenantID)
	require.Equal(t, secctx.RoleParent, sc.Role)
}

func TestHydrationClearsStaleSystemFlag(t *testing.T) {
	// A verifier hydrating on top of a system scope must not inherit the
	// elevated flag.
	ctx := secctx.System(context.Background())
	ctx = secctx.With(ctx, secctx.Context{TenantID: "t-4", Role: secctx.RoleTeacher, UserID: "u-4"})
	require.False(t, secctx.From(ctx).IsSystem)
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"SUPER_ADMIN", "SCHOOL_ADMIN", "PRINCIPAL", "TEACHER", "CLERK", "PARENT"} {
		role, err := secctx.ParseRole(raw)
		require.NoError(t, err)
		require.Equal(t, raw, role.String())
	}

	_, err := secctx.ParseRole("ANONYMOUS")
	require.Error(t, err)
	_, err = secctx.ParseRole("root")
	require.Error(t, err)
	_, err = secctx.ParseRole("")
	require.Error(t, err)
}

func TestEffectiveRole(t *testing.T) {
	require.Equal(t, secctx.RoleSuperAdmin, secctx.Context{Role: secctx.RoleSuperAdmin}.EffectiveRole())
	require.Equal(t, secctx.RoleSuperAdmin, secctx.Context{IsSystem: true}.EffectiveRole())
	require.Equal(t, secctx.RoleParent, secctx.Context{Role: secctx.RoleParent}.EffectiveRole())
	require.Equal(t, secctx.RoleAnonymous, secctx.Context{Role: secctx.RoleAnonymous}.EffectiveRole())
}

func TestConcurrentScopesAreIsolated(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tenant := "tenant-a"
			if n%2 == 1 {
				tenant = "tenant-b"
			}
			ctx := secctx.With(context.Background(), secctx.Context{
				TenantID: tenant, Role: secctx.RoleSchoolAdmin, UserID: "u",
			})
			for j := 0; j < 100; j++ {
				if got := secctx.From(ctx).TenantID; got != tenant {
					t.Errorf("scope observed foreign tenant %q, want %q", got, tenant)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
