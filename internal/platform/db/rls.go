package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusgate/campusgate/internal/platform/secctx"
)

var (
	// ErrNotReady means the gateway was used before the connection pool was
	// initialised. This is a startup configuration defect and must abort the
	// operation rather than degrade to an unscoped client.
	ErrNotReady = errors.New("platform/db: row-security gateway used before initialisation")

	// ErrNestedTransaction means a single-operation call was issued from
	// inside Transaction. The callback must use the transaction handle it
	// was given; going back through the gateway would open a second
	// transaction and silently escape the caller's boundary.
	ErrNestedTransaction = errors.New("platform/db: gateway call inside Transaction; use the provided pgx.Tx instead")
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RLS is the single data-access gateway. Every operation it runs executes
// inside its own transaction whose first statement pins the session-local
// row-security variables (app.tenant_id, app.role, app.user_id) from the
// request's security context. Pinning and query share one connection, and
// set_config(..., true) makes the variables transaction-scoped, so they can
// never leak to the pool's next borrower.
type RLS struct {
	pool beginner
}

// NewRLS wraps pool in the row-security gateway.
func NewRLS(pool *pgxpool.Pool) (*RLS, error) {
	if pool == nil {
		return nil, ErrNotReady
	}
	return &RLS{pool: pool}, nil
}

// Query runs fn inside a dedicated pinned transaction. This is the normal
// path for a single logical data operation; the transaction commits when fn
// returns nil and rolls back otherwise.
func (d *RLS) Query(ctx context.Context, fn func(pgx.Tx) error) error {
	if d == nil || d.pool == nil {
		return ErrNotReady
	}
	if secctx.InTransaction(ctx) {
		return ErrNestedTransaction
	}
	return d.run(ctx, func(tx pgx.Tx) error { return fn(tx) })
}

// Transaction runs fn inside one pinned transaction spanning multiple
// operations. The context handed to fn is marked so that any nested Query
// or Transaction through the gateway fails with ErrNestedTransaction; fn
// must issue all work on the supplied pgx.Tx.
func (d *RLS) Transaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if d == nil || d.pool == nil {
		return ErrNotReady
	}
	if secctx.InTransaction(ctx) {
		return ErrNestedTransaction
	}
	guarded := secctx.MarkInTransaction(ctx)
	return d.run(ctx, func(tx pgx.Tx) error { return fn(guarded, tx) })
}

func (d *RLS) run(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := pinSession(ctx, tx); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// pinSession issues the session-variable assignment as the first statement
// of the transaction. An unset security context pins an empty tenant and
// the ANONYMOUS role, which the row-security policies resolve to no rows.
func pinSession(ctx context.Context, tx pgx.Tx) error {
	sc := secctx.From(ctx)
	_, err := tx.Exec(ctx,
		`SELECT set_config('app.tenant_id', $1, true),
		        set_config('app.role', $2, true),
		        set_config('app.user_id', $3, true)`,
		sc.TenantID, sc.EffectiveRole().String(), sc.UserID,
	)
	if err != nil {
		return fmt.Errorf("platform/db: pin session variables: %w", err)
	}
	return nil
}
