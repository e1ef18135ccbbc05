package timetable

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

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

const slotColumns = `ts.id, COALESCE(ts.tenant_id::text, ''), ts.academic_year_id, ts.day_of_week,
	ts.period_number, ts.start_time, ts.end_time, ts.class_id, ts.subject_id, ts.teacher_id,
	COALESCE(ts.room, ''), ts.is_active, ts.created_at, ts.updated_at`

func scanSlot(row pgx.Row) (Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.TenantID, &s.AcademicYearID, &s.DayOfWeek, &s.PeriodNumber,
		&s.StartTime, &s.EndTime, &s.ClassID, &s.SubjectID, &s.TeacherID, &s.Room,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// CreateSlot inserts a slot after checking the teacher is free in that
// period. The class/day/period unique index backstops concurrent inserts.
func (r *Repository) CreateSlot(ctx context.Context, slot Slot) (Slot, error) {
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var clash bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM timetable_slots
			   WHERE academic_year_id = $1 AND day_of_week = $2 AND period_number = $3
			     AND teacher_id = $4 AND is_active = TRUE)`,
			slot.AcademicYearID, slot.DayOfWeek, slot.PeriodNumber, slot.TeacherID).
			Scan(&clash)
		if err != nil {
			return err
		}
		if clash {
			return fmt.Errorf("%w: teacher is already assigned to another class in this period",
				httpx.ErrValidation)
		}

		slot.ID = uuid.NewString()
		slot.TenantID = secctx.From(ctx).TenantID
		return tx.QueryRow(ctx,
			`INSERT INTO timetable_slots
			   (id, tenant_id, academic_year_id, day_of_week, period_number, start_time,
			    end_time, class_id, subject_id, teacher_id, room, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11,''), $12)
			 RETURNING created_at, updated_at`,
			slot.ID, slot.TenantID, slot.AcademicYearID, slot.DayOfWeek, slot.PeriodNumber,
			slot.StartTime, slot.EndTime, slot.ClassID, slot.SubjectID, slot.TeacherID,
			slot.Room, slot.IsActive).
			Scan(&slot.CreatedAt, &slot.UpdatedAt)
	})
	if err != nil {
		return Slot{}, slotError(err)
	}
	return slot, nil
}

// SlotFilter narrows the slot listing. Zero values mean "any".
type SlotFilter struct {
	AcademicYearID string
	DayOfWeek      string
	PeriodNumber   int32
	FromPeriod     int32
	ToPeriod       int32
	ClassID        string
	TeacherID      string
	SubjectID      string
}

func (r *Repository) ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error) {
	if filter.FromPeriod == 0 && filter.ToPeriod == 0 && filter.PeriodNumber != 0 {
		filter.FromPeriod, filter.ToPeriod = filter.PeriodNumber, filter.PeriodNumber
	}
	var out []Slot
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+slotColumns+`, c.class_code, tp.full_name, s.name, s.code
			 FROM timetable_slots ts
			 JOIN classrooms c ON c.id = ts.class_id
			 JOIN teacher_profiles tp ON tp.id = ts.teacher_id
			 JOIN subjects s ON s.id = ts.subject_id
			 WHERE ($1 = '' OR ts.academic_year_id = $1::uuid)
			   AND ($2 = '' OR ts.day_of_week = $2)
			   AND ($3 = 0 OR ts.period_number BETWEEN $3 AND $4)
			   AND ($5 = '' OR ts.class_id = $5::uuid)
			   AND ($6 = '' OR ts.teacher_id = $6::uuid)
			   AND ($7 = '' OR ts.subject_id = $7::uuid)
			 ORDER BY ts.day_of_week, ts.period_number`,
			filter.AcademicYearID, filter.DayOfWeek, filter.FromPeriod, filter.ToPeriod,
			filter.ClassID, filter.TeacherID, filter.SubjectID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s Slot
			err := rows.Scan(&s.ID, &s.TenantID, &s.AcademicYearID, &s.DayOfWeek,
				&s.PeriodNumber, &s.StartTime, &s.EndTime, &s.ClassID, &s.SubjectID,
				&s.TeacherID, &s.Room, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
				&s.ClassCode, &s.TeacherName, &s.SubjectName, &s.SubjectCode)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

// SlotUpdate carries optional changes; zero values keep the current value.
type SlotUpdate struct {
	AcademicYearID string
	DayOfWeek      string
	PeriodNumber   int32
	StartTime      string
	EndTime        string
	ClassID        string
	SubjectID      string
	TeacherID      string
	Room           string
	IsActive       *bool
}

// UpdateSlot re-runs the teacher clash check against the merged slot before
// applying the change.
func (r *Repository) UpdateSlot(ctx context.Context, id string, update SlotUpdate) (Slot, error) {
	var updated Slot
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		existing, err := scanSlot(tx.QueryRow(ctx,
			`SELECT `+slotColumns+` FROM timetable_slots ts WHERE ts.id = $1`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: timetable slot not found", httpx.ErrNotFound)
			}
			return err
		}

		merged := existing
		if update.AcademicYearID != "" {
			merged.AcademicYearID = update.AcademicYearID
		}
		if update.DayOfWeek != "" {
			merged.DayOfWeek = update.DayOfWeek
		}
		if update.PeriodNumber != 0 {
			merged.PeriodNumber = update.PeriodNumber
		}
		if update.StartTime != "" {
			merged.StartTime = update.StartTime
		}
		if update.EndTime != "" {
			merged.EndTime = update.EndTime
		}
		if update.ClassID != "" {
			merged.ClassID = update.ClassID
		}
		if update.SubjectID != "" {
			merged.SubjectID = update.SubjectID
		}
		if update.TeacherID != "" {
			merged.TeacherID = update.TeacherID
		}
		if update.Room != "" {
			merged.Room = update.Room
		}
		if update.IsActive != nil {
			merged.IsActive = *update.IsActive
		}

		if merged.StartTime >= merged.EndTime {
			return fmt.Errorf("%w: startTime must be before endTime", httpx.ErrValidation)
		}

		var clash bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM timetable_slots
			   WHERE id <> $1 AND academic_year_id = $2 AND day_of_week = $3
			     AND period_number = $4 AND teacher_id = $5 AND is_active = TRUE)`,
			id, merged.AcademicYearID, merged.DayOfWeek, merged.PeriodNumber, merged.TeacherID).
			Scan(&clash)
		if err != nil {
			return err
		}
		if clash {
			return fmt.Errorf("%w: teacher is already assigned to another class in this period",
				httpx.ErrValidation)
		}

		updated, err = scanSlot(tx.QueryRow(ctx,
			`UPDATE timetable_slots ts SET
			   academic_year_id = $2, day_of_week = $3, period_number = $4,
			   start_time = $5, end_time = $6, class_id = $7, subject_id = $8,
			   teacher_id = $9, room = NULLIF($10,''), is_active = $11, updated_at = now()
			 WHERE ts.id = $1
			 RETURNING `+slotColumns,
			id, merged.AcademicYearID, merged.DayOfWeek, merged.PeriodNumber,
			merged.StartTime, merged.EndTime, merged.ClassID, merged.SubjectID,
			merged.TeacherID, merged.Room, merged.IsActive))
		return err
	})
	if err != nil {
		return Slot{}, slotError(err)
	}
	return updated, nil
}

// DeactivateSlot soft-deletes a slot, keeping the row for history.
func (r *Repository) DeactivateSlot(ctx context.Context, id string) error {
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE timetable_slots SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: timetable slot not found", httpx.ErrNotFound)
	}
	return err
}

// TeacherDaily lists a teacher's active slots for one weekday.
func (r *Repository) TeacherDaily(ctx context.Context, teacherID, dayOfWeek, academicYearID string) ([]Slot, error) {
	var out []Slot
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+slotColumns+`, c.class_code, s.name
			 FROM timetable_slots ts
			 JOIN classrooms c ON c.id = ts.class_id
			 JOIN subjects s ON s.id = ts.subject_id
			 WHERE ts.teacher_id = $1 AND ts.day_of_week = $2
			   AND ts.academic_year_id = $3 AND ts.is_active = TRUE
			 ORDER BY ts.period_number`,
			teacherID, dayOfWeek, academicYearID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s Slot
			err := rows.Scan(&s.ID, &s.TenantID, &s.AcademicYearID, &s.DayOfWeek,
				&s.PeriodNumber, &s.StartTime, &s.EndTime, &s.ClassID, &s.SubjectID,
				&s.TeacherID, &s.Room, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
				&s.ClassCode, &s.SubjectName)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

// ClassWeekly lists a class's active slots across the week.
func (r *Repository) ClassWeekly(ctx context.Context, classID, academicYearID string) ([]Slot, error) {
	var out []Slot
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+slotColumns+`, tp.full_name, s.name
			 FROM timetable_slots ts
			 JOIN teacher_profiles tp ON tp.id = ts.teacher_id
			 JOIN subjects s ON s.id = ts.subject_id
			 WHERE ts.class_id = $1 AND ts.academic_year_id = $2 AND ts.is_active = TRUE
			 ORDER BY ts.day_of_week, ts.period_number`,
			classID, academicYearID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s Slot
			err := rows.Scan(&s.ID, &s.TenantID, &s.AcademicYearID, &s.DayOfWeek,
				&s.PeriodNumber, &s.StartTime, &s.EndTime, &s.ClassID, &s.SubjectID,
				&s.TeacherID, &s.Room, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
				&s.TeacherName, &s.SubjectName)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func slotError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: this class already has a slot for this day and period",
			httpx.ErrValidation)
	}
	return err
}
