package leaves

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

type Repository struct {
	gateway *db.RLS
}

func NewRepository(gateway *db.RLS) *Repository {
	return &Repository{gateway: gateway}
}

const leaveColumns = `l.id, COALESCE(l.tenant_id::text, ''), l.teacher_id, l.date_from, l.date_to,
	l.reason_code, COALESCE(l.note, ''), l.status, COALESCE(l.decision_note, ''),
	COALESCE(l.approved_by_user_id::text, ''), l.approved_at, l.requested_at`

func scanLeave(row pgx.Row) (Leave, error) {
	var l Leave
	err := row.Scan(&l.ID, &l.TenantID, &l.TeacherID, &l.DateFrom, &l.DateTo, &l.ReasonCode,
		&l.Note, &l.Status, &l.DecisionNote, &l.ApprovedByUserID, &l.ApprovedAt, &l.RequestedAt)
	return l, err
}

// Create resolves the caller's teacher profile, rejects overlapping PENDING
// or APPROVED leaves, and inserts the request, all in one transaction.
func (r *Repository) Create(ctx context.Context, dateFrom, dateTo time.Time, reasonCode, note string) (Leave, error) {
	var created Leave
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sc := secctx.From(ctx)

		var teacherID string
		err := tx.QueryRow(ctx,
			`SELECT id FROM teacher_profiles WHERE user_id = $1`, sc.UserID).Scan(&teacherID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: teacher profile not found", httpx.ErrForbidden)
			}
			return err
		}

		var overlap bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM teacher_leaves
			   WHERE teacher_id = $1 AND status IN ($2, $3)
			     AND date_from <= $5 AND date_to >= $4)`,
			teacherID, StatusPending, StatusApproved, dateFrom, dateTo).Scan(&overlap)
		if err != nil {
			return err
		}
		if overlap {
			return fmt.Errorf("%w: overlapping leave request exists", httpx.ErrValidation)
		}

		created = Leave{
			ID:         uuid.NewString(),
			TenantID:   sc.TenantID,
			TeacherID:  teacherID,
			DateFrom:   dateFrom,
			DateTo:     dateTo,
			ReasonCode: reasonCode,
			Note:       note,
			Status:     StatusPending,
		}
		return tx.QueryRow(ctx,
			`INSERT INTO teacher_leaves
			   (id, tenant_id, teacher_id, date_from, date_to, reason_code, note, status)
			 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8)
			 RETURNING requested_at`,
			created.ID, created.TenantID, created.TeacherID, created.DateFrom, created.DateTo,
			created.ReasonCode, created.Note, created.Status).
			Scan(&created.RequestedAt)
	})
	return created, err
}

// Filter narrows the admin leave listing.
type Filter struct {
	Status    string
	TeacherID string
	From      *time.Time
	To        *time.Time
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Leave, error) {
	var out []Leave
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+leaveColumns+`, tp.full_name
			 FROM teacher_leaves l
			 JOIN teacher_profiles tp ON tp.id = l.teacher_id
			 WHERE ($1 = '' OR l.status = $1)
			   AND ($2 = '' OR l.teacher_id = $2::uuid)
			   AND ($3::date IS NULL OR (l.date_from <= $4 AND l.date_to >= $3))
			 ORDER BY l.requested_at DESC`,
			filter.Status, filter.TeacherID, filter.From, filter.To)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var l Leave
			err := rows.Scan(&l.ID, &l.TenantID, &l.TeacherID, &l.DateFrom, &l.DateTo,
				&l.ReasonCode, &l.Note, &l.Status, &l.DecisionNote, &l.ApprovedByUserID,
				&l.ApprovedAt, &l.RequestedAt, &l.TeacherName)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	return out, err
}

// ListMine lists the calling teacher's own leaves.
func (r *Repository) ListMine(ctx context.Context, from, to *time.Time) ([]Leave, error) {
	var out []Leave
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		var teacherID string
		err := tx.QueryRow(ctx,
			`SELECT id FROM teacher_profiles WHERE user_id = $1`,
			secctx.From(ctx).UserID).Scan(&teacherID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: teacher profile not found", httpx.ErrForbidden)
			}
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT `+leaveColumns+`
			 FROM teacher_leaves l
			 WHERE l.teacher_id = $1
			   AND ($2::date IS NULL OR (l.date_from <= $3 AND l.date_to >= $2))
			 ORDER BY l.requested_at DESC`,
			teacherID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			l, err := scanLeave(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	return out, err
}

// Decide moves a PENDING leave to APPROVED or REJECTED. The decision is
// blocked when the approver is the teacher who requested the leave; the
// check compares login users, not profile ids.
func (r *Repository) Decide(ctx context.Context, leaveID, status, decisionNote string) (Leave, error) {
	var decided Leave
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		leave, err := scanLeave(tx.QueryRow(ctx,
			`SELECT `+leaveColumns+` FROM teacher_leaves l WHERE l.id = $1`, leaveID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: leave request not found", httpx.ErrNotFound)
			}
			return err
		}
		if leave.Status != StatusPending {
			return fmt.Errorf("%w: only PENDING leaves can be decided", httpx.ErrValidation)
		}

		sc := secctx.From(ctx)
		var requesterUserID string
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(user_id::text, '') FROM teacher_profiles WHERE id = $1`,
			leave.TeacherID).Scan(&requesterUserID)
		if err != nil {
			return err
		}
		if requesterUserID != "" && requesterUserID == sc.UserID {
			return fmt.Errorf("%w: you cannot approve your own leave", httpx.ErrForbidden)
		}

		decided, err = scanLeave(tx.QueryRow(ctx,
			`UPDATE teacher_leaves l SET
			   status = $2, approved_by_user_id = $3, approved_at = now(),
			   decision_note = NULLIF($4,'')
			 WHERE l.id = $1
			 RETURNING `+leaveColumns,
			leaveID, status, sc.UserID, decisionNote))
		return err
	})
	return decided, err
}

// Cancel lets the requesting teacher withdraw a PENDING leave.
func (r *Repository) Cancel(ctx context.Context, leaveID string) (Leave, error) {
	var cancelled Leave
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var teacherID string
		err := tx.QueryRow(ctx,
			`SELECT id FROM teacher_profiles WHERE user_id = $1`,
			secctx.From(ctx).UserID).Scan(&teacherID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: teacher profile not found", httpx.ErrForbidden)
			}
			return err
		}

		leave, err := scanLeave(tx.QueryRow(ctx,
			`SELECT `+leaveColumns+` FROM teacher_leaves l WHERE l.id = $1`, leaveID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: leave request not found", httpx.ErrNotFound)
			}
			return err
		}
		if leave.TeacherID != teacherID {
			return fmt.Errorf("%w: not your leave request", httpx.ErrForbidden)
		}
		if leave.Status != StatusPending {
			return fmt.Errorf("%w: only PENDING leaves can be cancelled", httpx.ErrValidation)
		}

		cancelled, err = scanLeave(tx.QueryRow(ctx,
			`UPDATE teacher_leaves l SET status = $2 WHERE l.id = $1 RETURNING `+leaveColumns,
			leaveID, StatusCancelled))
		return err
	})
	return cancelled, err
}
