package db

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

// fakeTx records the pinned session variables and transaction outcome. The
// embedded pgx.Tx is nil; only the methods the gateway touches are stubbed.
type fakeTx struct {
	pgx.Tx

	mu         sync.Mutex
	pinned     []string
	committed  bool
	rolledBack bool
	execErr    error
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.execErr != nil {
		return pgconn.CommandTag{}, t.execErr
	}
	for _, a := range args {
		t.pinned = append(t.pinned, a.(string))
	}
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakePool struct {
	mu  sync.Mutex
	txs []*fakeTx
}

func (p *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx := &fakeTx{}
	p.txs = append(p.txs, tx)
	return tx, nil
}

func newTestGateway() (*RLS, *fakePool) {
	pool := &fakePool{}
	return &RLS{pool: pool}, pool
}

func TestQueryPinsCallerContext(t *testing.T) {
	gw, pool := newTestGateway()

	ctx := secctx.With(context.Background(), secctx.Context{
		TenantID: "t-100",
		Role:     secctx.RoleTeacher,
		UserID:   "u-7",
	})

	err := gw.Query(ctx, func(tx pgx.Tx) error { return nil })
	require.NoError(t, err)

	require.Len(t, pool.txs, 1)
	require.Equal(t, []string{"t-100", "TEACHER", "u-7"}, pool.txs[0].pinned)
	require.True(t, pool.txs[0].committed)
}

func TestQueryFailsClosedWithoutContext(t *testing.T) {
	gw, pool := newTestGateway()

	err := gw.Query(context.Background(), func(tx pgx.Tx) error { return nil })
	require.NoError(t, err)

	// Empty tenant plus ANONYMOUS role resolves to zero visible rows under
	// the row-security policies.
	require.Equal(t, []string{"", "ANONYMOUS", ""}, pool.txs[0].pinned)
}

func TestEffectiveRoleOverrides(t *testing.T) {
	cases := []struct {
		name string
		sc   secctx.Context
		want string
	}{
		{"system scope", secctx.Context{IsSystem: true, Role: secctx.RoleAnonymous}, "SUPER_ADMIN"},
		{"super admin", secctx.Context{Role: secctx.RoleSuperAdmin, TenantID: ""}, "SUPER_ADMIN"},
		{"super admin with stray tenant", secctx.Context{Role: secctx.RoleSuperAdmin, TenantID: "t-1"}, "SUPER_ADMIN"},
		{"plain clerk", secctx.Context{Role: secctx.RoleClerk, TenantID: "t-1"}, "CLERK"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw, pool := newTestGateway()
			ctx := secctx.With(context.Background(), tc.sc)
			require.NoError(t, gw.Query(ctx, func(pgx.Tx) error { return nil }))
			require.Equal(t, tc.want, pool.txs[0].pinned[1])
		})
	}
}

func TestConcurrentScopesDoNotLeak(t *testing.T) {
	gw, pool := newTestGateway()

	const iterations = 200
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		tenant := "tenant-a"
		if i == 1 {
			tenant = "tenant-b"
		}
		wg.Add(1)
		go func(tenant string) {
			defer wg.Done()
			ctx := secctx.With(context.Background(), secctx.Context{
				TenantID: tenant,
				Role:     secctx.RoleSchoolAdmin,
				UserID:   "user-" + tenant,
			})
			for j := 0; j < iterations; j++ {
				_ = gw.Query(ctx, func(pgx.Tx) error { return nil })
			}
		}(tenant)
	}
	wg.Wait()

	require.Len(t, pool.txs, 2*iterations)
	for _, tx := range pool.txs {
		require.Equal(t, "user-"+tx.pinned[0], tx.pinned[2],
			"pinned tenant and user diverged: cross-request leakage")
	}
}

func TestNestedQueryInsideTransactionRejected(t *testing.T) {
	gw, _ := newTestGateway()

	ctx := secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: secctx.RoleSchoolAdmin, UserID: "u-1",
	})

	err := gw.Transaction(ctx, func(inner context.Context, tx pgx.Tx) error {
		return gw.Query(inner, func(pgx.Tx) error { return nil })
	})
	require.ErrorIs(t, err, ErrNestedTransaction)
}

func TestNestedTransactionRejected(t *testing.T) {
	gw, _ := newTestGateway()

	err := gw.Transaction(context.Background(), func(inner context.Context, tx pgx.Tx) error {
		return gw.Transaction(inner, func(context.Context, pgx.Tx) error { return nil })
	})
	require.ErrorIs(t, err, ErrNestedTransaction)
}

func TestTransactionPinsOnce(t *testing.T) {
	gw, pool := newTestGateway()

	ctx := secctx.With(context.Background(), secctx.Context{
		TenantID: "t-9", Role: secctx.RolePrincipal, UserID: "u-9",
	})

	err := gw.Transaction(ctx, func(inner context.Context, tx pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.Len(t, pool.txs, 1)
	require.Equal(t, []string{"t-9", "PRINCIPAL", "u-9"}, pool.txs[0].pinned)
	require.True(t, pool.txs[0].committed)
}

func TestErrorRollsBack(t *testing.T) {
	gw, pool := newTestGateway()

	boom := errors.New("boom")
	err := gw.Query(context.Background(), func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.True(t, pool.txs[0].rolledBack)
	require.False(t, pool.txs[0].committed)
}

func TestUninitialisedGateway(t *testing.T) {
	var gw *RLS
	require.ErrorIs(t, gw.Query(context.Background(), nil), ErrNotReady)
	require.ErrorIs(t, (&RLS{}).Transaction(context.Background(), nil), ErrNotReady)

	_, err := NewRLS(nil)
	require.ErrorIs(t, err, ErrNotReady)
}
