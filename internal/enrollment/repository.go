package enrollment

import (
	"context"
	"errors"
	"fmt"

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

// BulkEnroll enrolls students into a class for the given academic year.
// The conflict check, capacity count and inserts run in one transaction so
// two concurrent bulk calls cannot both pass the one-class-per-year rule.
func (r *Repository) BulkEnroll(ctx context.Context, classID, academicYearID, yearLabel string, studentIDs []string) (BulkResult, error) {
	var result BulkResult
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var gradeID, classCode string
		err := tx.QueryRow(ctx,
			`SELECT grade_id, class_code FROM classrooms WHERE id = $1`, classID).
			Scan(&gradeID, &classCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: class not found", httpx.ErrNotFound)
			}
			return err
		}

		var conflicts int
		err = tx.QueryRow(ctx,
			`SELECT count(*) FROM student_grade_classes
			 WHERE academic_year_id = $1 AND student_id = ANY($2)`,
			academicYearID, studentIDs).Scan(&conflicts)
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return fmt.Errorf("%w: %d student(s) already enrolled in academic year %s",
				httpx.ErrValidation, conflicts, yearLabel)
		}

		var current int
		err = tx.QueryRow(ctx,
			`SELECT count(*) FROM student_grade_classes
			 WHERE academic_year_id = $1 AND class_id = $2`,
			academicYearID, classID).Scan(&current)
		if err != nil {
			return err
		}
		if current+len(studentIDs) > 45 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Class %s exceeds recommended capacity (45)", classCode))
		}

		rows := make([][]any, 0, len(studentIDs))
		tenantID := secctx.From(ctx).TenantID
		for _, studentID := range studentIDs {
			rows = append(rows, []any{
				uuid.NewString(), tenantID, studentID, classID, gradeID,
				academicYearID, admissionStatusNew,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"student_grade_classes"},
			[]string{"id", "tenant_id", "student_id", "class_id", "grade_id", "academic_year_id", "admission_status"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("insert enrollments: %w", err)
		}

		result.Enrolled = len(studentIDs)
		return nil
	})
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	return result, err
}

// ClassRoster lists the students enrolled in a class for the given year,
// ordered by admission number.
func (r *Repository) ClassRoster(ctx context.Context, classID, academicYearID, yearLabel string) (Roster, error) {
	roster := Roster{ClassID: classID, AcademicYear: yearLabel, Students: []RosterStudent{}}
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT class_code, class_name FROM classrooms WHERE id = $1`, classID).
			Scan(&roster.ClassCode, &roster.ClassName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: class not found", httpx.ErrNotFound)
			}
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT s.id, s.full_name, COALESCE(s.index_number, ''), s.admission_number, s.gender
			 FROM student_grade_classes sgc
			 JOIN students s ON s.id = sgc.student_id
			 WHERE sgc.class_id = $1 AND sgc.academic_year_id = $2
			 ORDER BY s.admission_number`, classID, academicYearID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s RosterStudent
			if err := rows.Scan(&s.ID, &s.FullName, &s.IndexNumber, &s.AdmissionNumber, &s.Gender); err != nil {
				return err
			}
			roster.Students = append(roster.Students, s)
		}
		return rows.Err()
	})
	return roster, err
}
