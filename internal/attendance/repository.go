package attendance

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

// StudentIDBySystemCode resolves a gate scan's system code to a student.
func (r *Repository) StudentIDBySystemCode(ctx context.Context, systemCode string) (string, error) {
	var id string
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`SELECT id FROM students WHERE system_code = $1 AND deleted_at IS NULL`,
			systemCode).Scan(&id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: invalid system code", httpx.ErrNotFound)
	}
	return id, err
}

// UpsertGate records a gate arrival, overwriting an earlier scan for the
// same student and date.
func (r *Repository) UpsertGate(ctx context.Context, studentID, academicYearID string, date time.Time, arrival time.Time, status string) error {
	return r.gateway.Query(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO gate_attendance
			   (id, tenant_id, student_id, academic_year_id, date, arrival_time, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (student_id, academic_year_id, date)
			 DO UPDATE SET arrival_time = EXCLUDED.arrival_time, status = EXCLUDED.status`,
			uuid.NewString(), secctx.From(ctx).TenantID, studentID, academicYearID,
			date, arrival, status)
		return err
	})
}

// TeacherAssignedToClass reports whether the calling user's teacher profile
// has an allocation in the class for the year. A caller with no profile is
// simply not assigned.
func (r *Repository) TeacherAssignedToClass(ctx context.Context, userID, classID, academicYearID string) (string, bool, error) {
	var teacherID string
	var assigned bool
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT id FROM teacher_profiles WHERE user_id = $1`, userID).Scan(&teacherID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		return tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM teacher_grade_classes
			   WHERE teacher_id = $1 AND class_id = $2 AND academic_year_id = $3)`,
			teacherID, classID, academicYearID).Scan(&assigned)
	})
	return teacherID, assigned, err
}

// MarkPeriod upserts period attendance for the gate-present students in one
// transaction. Records for students with no gate presence are skipped.
func (r *Repository) MarkPeriod(ctx context.Context, classID, academicYearID string, date time.Time, period int32, markedByTeacherID string, records []PeriodRecord) (MarkResult, error) {
	var result MarkResult
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT student_id FROM gate_attendance
			 WHERE academic_year_id = $1 AND date = $2 AND status IN ($3, $4)`,
			academicYearID, date, StatusPresent, StatusLate)
		if err != nil {
			return err
		}
		gatePresent := make(map[string]bool)
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			gatePresent[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		tenantID := secctx.From(ctx).TenantID
		for _, record := range records {
			if !gatePresent[record.StudentID] {
				result.Skipped++
				continue
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO period_attendance
				   (id, tenant_id, student_id, class_id, academic_year_id, date, period,
				    status, marked_by_teacher_id)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,'')::uuid)
				 ON CONFLICT (tenant_id, class_id, academic_year_id, student_id, date, period)
				 DO UPDATE SET status = EXCLUDED.status,
				               marked_by_teacher_id = COALESCE(EXCLUDED.marked_by_teacher_id,
				                                               period_attendance.marked_by_teacher_id)`,
				uuid.NewString(), tenantID, record.StudentID, classID, academicYearID,
				date, period, record.Status, markedByTeacherID)
			if err != nil {
				return err
			}
			result.Marked++
		}
		return nil
	})
	return result, err
}

// ClassRegister builds the daily register: roster order, gate status (ABSENT
// when no scan) and per-period marks.
func (r *Repository) ClassRegister(ctx context.Context, classID, academicYearID string, date time.Time) (Register, error) {
	register := Register{
		ClassID:        classID,
		AcademicYearID: academicYearID,
		Date:           date,
		Students:       []RegisterRow{},
	}
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT sgc.student_id, s.full_name, s.system_code
			 FROM student_grade_classes sgc
			 JOIN students s ON s.id = sgc.student_id
			 WHERE sgc.class_id = $1 AND sgc.academic_year_id = $2
			 ORDER BY s.admission_number`, classID, academicYearID)
		if err != nil {
			return err
		}
		index := make(map[string]int)
		for rows.Next() {
			var row RegisterRow
			if err := rows.Scan(&row.StudentID, &row.Name, &row.SystemCode); err != nil {
				rows.Close()
				return err
			}
			row.Gate = RegisterGate{Status: StatusAbsent}
			row.Periods = map[int32]string{}
			index[row.StudentID] = len(register.Students)
			register.Students = append(register.Students, row)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(register.Students) == 0 {
			return nil
		}

		gateRows, err := tx.Query(ctx,
			`SELECT ga.student_id, ga.status, ga.arrival_time
			 FROM gate_attendance ga
			 JOIN student_grade_classes sgc
			   ON sgc.student_id = ga.student_id AND sgc.academic_year_id = ga.academic_year_id
			 WHERE sgc.class_id = $1 AND ga.academic_year_id = $2 AND ga.date = $3`,
			classID, academicYearID, date)
		if err != nil {
			return err
		}
		for gateRows.Next() {
			var (
				studentID string
				status    string
				arrival   time.Time
			)
			if err := gateRows.Scan(&studentID, &status, &arrival); err != nil {
				gateRows.Close()
				return err
			}
			if i, ok := index[studentID]; ok {
				arrivalCopy := arrival
				register.Students[i].Gate = RegisterGate{
					Status:      status,
					ArrivalTime: &arrivalCopy,
					IsLate:      status == StatusLate,
				}
			}
		}
		gateRows.Close()
		if err := gateRows.Err(); err != nil {
			return err
		}

		periodRows, err := tx.Query(ctx,
			`SELECT student_id, period, status FROM period_attendance
			 WHERE class_id = $1 AND academic_year_id = $2 AND date = $3
			 ORDER BY period`, classID, academicYearID, date)
		if err != nil {
			return err
		}
		defer periodRows.Close()
		for periodRows.Next() {
			var (
				studentID string
				period    int32
				status    string
			)
			if err := periodRows.Scan(&studentID, &period, &status); err != nil {
				return err
			}
			if i, ok := index[studentID]; ok {
				register.Students[i].Periods[period] = status
			}
		}
		return periodRows.Err()
	})
	return register, err
}

// DailySummary aggregates gate attendance across the school for one date.
// Absent is derived from enrollment, never stored.
func (r *Repository) DailySummary(ctx context.Context, academicYearID string, date time.Time) (DailySummary, error) {
	summary := DailySummary{Date: date, AcademicYearID: academicYearID, PerClass: []ClassHeadline{}}
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT count(*) FROM student_grade_classes WHERE academic_year_id = $1`,
			academicYearID).Scan(&summary.Totals.Enrolled)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`SELECT count(*) FILTER (WHERE status = $3),
			        count(*) FILTER (WHERE status = $4)
			 FROM gate_attendance
			 WHERE academic_year_id = $1 AND date = $2`,
			academicYearID, date, StatusPresent, StatusLate).
			Scan(&summary.Totals.Present, &summary.Totals.Late)
		if err != nil {
			return err
		}
		absent := summary.Totals.Enrolled - summary.Totals.Present - summary.Totals.Late
		if absent < 0 {
			absent = 0
		}
		summary.Totals.Absent = absent

		rows, err := tx.Query(ctx,
			`SELECT class_id, count(student_id) FROM student_grade_classes
			 WHERE academic_year_id = $1 GROUP BY class_id`, academicYearID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var headline ClassHeadline
			if err := rows.Scan(&headline.ClassID, &headline.TotalStudents); err != nil {
				return err
			}
			summary.PerClass = append(summary.PerClass, headline)
		}
		return rows.Err()
	})
	return summary, err
}

// MonthlySummary aggregates gate attendance per student for one calendar
// month. School days are the distinct dates with any gate record.
func (r *Repository) MonthlySummary(ctx context.Context, academicYearID string, monthStart, monthEnd time.Time) (MonthlySummary, int, error) {
	var (
		students   []MonthlyRow
		schoolDays int
	)
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT count(DISTINCT date) FROM gate_attendance
			 WHERE academic_year_id = $1 AND date >= $2 AND date < $3`,
			academicYearID, monthStart, monthEnd).Scan(&schoolDays)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT sgc.student_id, s.full_name,
			        count(ga.id) FILTER (WHERE ga.status = $4),
			        count(ga.id) FILTER (WHERE ga.status = $5)
			 FROM student_grade_classes sgc
			 JOIN students s ON s.id = sgc.student_id
			 LEFT JOIN gate_attendance ga
			   ON ga.student_id = sgc.student_id
			  AND ga.academic_year_id = sgc.academic_year_id
			  AND ga.date >= $2 AND ga.date < $3
			 WHERE sgc.academic_year_id = $1
			 GROUP BY sgc.student_id, s.full_name
			 ORDER BY s.full_name`,
			academicYearID, monthStart, monthEnd, StatusPresent, StatusLate)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var row MonthlyRow
			if err := rows.Scan(&row.StudentID, &row.Name, &row.Present, &row.Late); err != nil {
				return err
			}
			students = append(students, row)
		}
		return rows.Err()
	})
	if err != nil {
		return MonthlySummary{}, 0, err
	}
	return MonthlySummary{AcademicYearID: academicYearID, TotalSchoolDays: schoolDays, Students: students}, schoolDays, nil
}
