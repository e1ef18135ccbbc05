package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

const overrideColumns = `o.id, COALESCE(o.tenant_id::text, ''), o.academic_year_id, o.slot_id,
	o.date_from, o.date_to, COALESCE(o.override_teacher_id::text, ''),
	COALESCE(o.override_subject_id::text, ''), o.reason, COALESCE(o.note, ''), o.is_active,
	o.created_by_user_id, o.created_at`

func scanOverride(row pgx.Row) (Override, error) {
	var o Override
	err := row.Scan(&o.ID, &o.TenantID, &o.AcademicYearID, &o.SlotID, &o.DateFrom, &o.DateTo,
		&o.OverrideTeacherID, &o.OverrideSubjectID, &o.Reason, &o.Note, &o.IsActive,
		&o.CreatedByUserID, &o.CreatedAt)
	return o, err
}

// OverrideParams is the validated input for creating an override.
type OverrideParams struct {
	SlotID            string
	DateFrom          time.Time
	DateTo            time.Time
	OverrideTeacherID string
	OverrideSubjectID string
	Reason            string
	Note              string
}

// CreateOverride validates the slot, the substitute teacher's availability
// and overlapping overrides inside one transaction.
func (r *Repository) CreateOverride(ctx context.Context, params OverrideParams) (Override, error) {
	var created Override
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var (
			academicYearID string
			dayOfWeek      string
			periodNumber   int32
		)
		err := tx.QueryRow(ctx,
			`SELECT academic_year_id, day_of_week, period_number
			 FROM timetable_slots WHERE id = $1 AND is_active = TRUE`, params.SlotID).
			Scan(&academicYearID, &dayOfWeek, &periodNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: invalid timetable slot", httpx.ErrValidation)
			}
			return err
		}

		var slotOverlap bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM timetable_overrides
			   WHERE slot_id = $1 AND is_active = TRUE
			     AND date_from <= $3 AND date_to >= $2)`,
			params.SlotID, params.DateFrom, params.DateTo).Scan(&slotOverlap)
		if err != nil {
			return err
		}
		if slotOverlap {
			return fmt.Errorf("%w: an override already exists for this slot in this date range",
				httpx.ErrValidation)
		}

		if params.OverrideTeacherID != "" {
			if err := checkSubstitute(ctx, tx, params.OverrideTeacherID, "",
				academicYearID, dayOfWeek, periodNumber, params.DateFrom, params.DateTo); err != nil {
				return err
			}
		}

		sc := secctx.From(ctx)
		created = Override{
			ID:                uuid.NewString(),
			TenantID:          sc.TenantID,
			AcademicYearID:    academicYearID,
			SlotID:            params.SlotID,
			DateFrom:          params.DateFrom,
			DateTo:            params.DateTo,
			OverrideTeacherID: params.OverrideTeacherID,
			OverrideSubjectID: params.OverrideSubjectID,
			Reason:            params.Reason,
			Note:              params.Note,
			IsActive:          true,
			CreatedByUserID:   sc.UserID,
		}
		return tx.QueryRow(ctx,
			`INSERT INTO timetable_overrides
			   (id, tenant_id, academic_year_id, slot_id, date_from, date_to,
			    override_teacher_id, override_subject_id, reason, note, is_active, created_by_user_id)
			 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,'')::uuid, NULLIF($8,'')::uuid,
			         $9, NULLIF($10,''), TRUE, $11)
			 RETURNING created_at`,
			created.ID, created.TenantID, created.AcademicYearID, created.SlotID,
			created.DateFrom, created.DateTo, created.OverrideTeacherID,
			created.OverrideSubjectID, created.Reason, created.Note, created.CreatedByUserID).
			Scan(&created.CreatedAt)
	})
	return created, err
}

// checkSubstitute rejects a substitute who does not exist, is on approved
// leave, or already holds an override in the same period and date range.
func checkSubstitute(ctx context.Context, tx pgx.Tx, teacherID, excludeOverrideID,
	academicYearID, dayOfWeek string, periodNumber int32, dateFrom, dateTo time.Time) error {

	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teacher_profiles WHERE id = $1)`, teacherID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: invalid substitute teacher", httpx.ErrValidation)
	}

	var onLeave bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM teacher_leaves
		   WHERE teacher_id = $1 AND status = 'APPROVED'
		     AND date_from <= $3 AND date_to >= $2)`,
		teacherID, dateFrom, dateTo).Scan(&onLeave)
	if err != nil {
		return err
	}
	if onLeave {
		return fmt.Errorf("%w: selected substitute teacher is on approved leave", httpx.ErrValidation)
	}

	var clash bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM timetable_overrides o
		   JOIN timetable_slots ts ON ts.id = o.slot_id
		   WHERE o.override_teacher_id = $1 AND o.is_active = TRUE
		     AND ($2 = '' OR o.id <> $2::uuid)
		     AND ts.academic_year_id = $3 AND ts.day_of_week = $4 AND ts.period_number = $5
		     AND o.date_from <= $7 AND o.date_to >= $6)`,
		teacherID, excludeOverrideID, academicYearID, dayOfWeek, periodNumber,
		dateFrom, dateTo).Scan(&clash)
	if err != nil {
		return err
	}
	if clash {
		return fmt.Errorf("%w: override teacher already has an override in this period range",
			httpx.ErrValidation)
	}
	return nil
}

// OverrideFilter narrows the override listing.
type OverrideFilter struct {
	AcademicYearID    string
	SlotID            string
	OverrideTeacherID string
	From              *time.Time
	To                *time.Time
}

func (r *Repository) ListOverrides(ctx context.Context, filter OverrideFilter) ([]Override, error) {
	var out []Override
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+overrideColumns+`, COALESCE(tp.full_name, ''), COALESCE(s.name, ''), c.class_code
			 FROM timetable_overrides o
			 JOIN timetable_slots ts ON ts.id = o.slot_id
			 JOIN classrooms c ON c.id = ts.class_id
			 LEFT JOIN teacher_profiles tp ON tp.id = o.override_teacher_id
			 LEFT JOIN subjects s ON s.id = o.override_subject_id
			 WHERE o.is_active = TRUE
			   AND ($1 = '' OR o.academic_year_id = $1::uuid)
			   AND ($2 = '' OR o.slot_id = $2::uuid)
			   AND ($3 = '' OR o.override_teacher_id = $3::uuid)
			   AND ($4::date IS NULL OR (o.date_from <= $5 AND o.date_to >= $4))
			 ORDER BY o.date_from DESC`,
			filter.AcademicYearID, filter.SlotID, filter.OverrideTeacherID,
			filter.From, filter.To)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var o Override
			err := rows.Scan(&o.ID, &o.TenantID, &o.AcademicYearID, &o.SlotID, &o.DateFrom,
				&o.DateTo, &o.OverrideTeacherID, &o.OverrideSubjectID, &o.Reason, &o.Note,
				&o.IsActive, &o.CreatedByUserID, &o.CreatedAt,
				&o.OverrideTeacherName, &o.OverrideSubjectName, &o.SlotClassCode)
			if err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	return out, err
}

// OverrideUpdate carries optional changes to an override.
type OverrideUpdate struct {
	DateFrom          *time.Time
	DateTo            *time.Time
	OverrideTeacherID string
	OverrideSubjectID string
	Reason            string
	Note              string
}

func (r *Repository) UpdateOverride(ctx context.Context, id string, update OverrideUpdate) (Override, error) {
	var updated Override
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		existing, err := scanOverride(tx.QueryRow(ctx,
			`SELECT `+overrideColumns+` FROM timetable_overrides o WHERE o.id = $1`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: override not found", httpx.ErrNotFound)
			}
			return err
		}

		var dayOfWeek string
		var periodNumber int32
		err = tx.QueryRow(ctx,
			`SELECT day_of_week, period_number FROM timetable_slots WHERE id = $1`,
			existing.SlotID).Scan(&dayOfWeek, &periodNumber)
		if err != nil {
			return err
		}

		merged := existing
		if update.DateFrom != nil {
			merged.DateFrom = *update.DateFrom
		}
		if update.DateTo != nil {
			merged.DateTo = *update.DateTo
		}
		if update.OverrideTeacherID != "" {
			merged.OverrideTeacherID = update.OverrideTeacherID
		}
		if update.OverrideSubjectID != "" {
			merged.OverrideSubjectID = update.OverrideSubjectID
		}
		if update.Reason != "" {
			merged.Reason = update.Reason
		}
		if update.Note != "" {
			merged.Note = update.Note
		}

		if merged.DateFrom.After(merged.DateTo) {
			return fmt.Errorf("%w: dateFrom must be on or before dateTo", httpx.ErrValidation)
		}
		if merged.OverrideTeacherID != "" {
			if err := checkSubstitute(ctx, tx, merged.OverrideTeacherID, id,
				existing.AcademicYearID, dayOfWeek, periodNumber,
				merged.DateFrom, merged.DateTo); err != nil {
				return err
			}
		}

		// Keep the latest editor for a simple audit trail.
		merged.CreatedByUserID = secctx.From(ctx).UserID
		updated, err = scanOverride(tx.QueryRow(ctx,
			`UPDATE timetable_overrides o SET
			   date_from = $2, date_to = $3,
			   override_teacher_id = NULLIF($4,'')::uuid,
			   override_subject_id = NULLIF($5,'')::uuid,
			   reason = $6, note = NULLIF($7,''), created_by_user_id = $8
			 WHERE o.id = $1
			 RETURNING `+overrideColumns,
			id, merged.DateFrom, merged.DateTo, merged.OverrideTeacherID,
			merged.OverrideSubjectID, merged.Reason, merged.Note, merged.CreatedByUserID))
		return err
	})
	return updated, err
}

// DeactivateOverride soft-deletes an override.
func (r *Repository) DeactivateOverride(ctx context.Context, id string) error {
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE timetable_overrides SET is_active = FALSE WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: override not found", httpx.ErrNotFound)
	}
	return err
}
