package allocations

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

// AssignParams identifies the teacher, class, subject and year to link.
type AssignParams struct {
	TeacherID      string
	ClassID        string
	SubjectID      string
	AcademicYearID string
}

// Assign validates the referenced rows inside one transaction and creates
// the allocation. Repeating an identical assignment returns the existing
// row instead of failing.
func (r *Repository) Assign(ctx context.Context, params AssignParams) (Allocation, error) {
	var alloc Allocation
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var (
			gradeID     string
			gradeNumber int32
		)
		err := tx.QueryRow(ctx,
			`SELECT c.grade_id, g.grade_number
			 FROM classrooms c JOIN grades g ON g.id = c.grade_id
			 WHERE c.id = $1`, params.ClassID).
			Scan(&gradeID, &gradeNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: class not found", httpx.ErrNotFound)
			}
			return err
		}

		var teacherExists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM teacher_profiles WHERE id = $1)`, params.TeacherID).
			Scan(&teacherExists)
		if err != nil {
			return err
		}
		if !teacherExists {
			return fmt.Errorf("%w: teacher not found in this school", httpx.ErrNotFound)
		}

		var (
			subjectName string
			validGrades []int32
		)
		err = tx.QueryRow(ctx,
			`SELECT name, valid_grades FROM subjects WHERE id = $1`, params.SubjectID).
			Scan(&subjectName, &validGrades)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: subject not found in this school", httpx.ErrNotFound)
			}
			return err
		}
		if !gradeValid(validGrades, gradeNumber) {
			return fmt.Errorf("%w: subject %s is not valid for grade %d",
				httpx.ErrValidation, subjectName, gradeNumber)
		}

		err = tx.QueryRow(ctx,
			`SELECT id, COALESCE(tenant_id::text, ''), teacher_id, grade_id, class_id,
			        subject_id, academic_year_id, role_in_class, created_at
			 FROM teacher_grade_classes
			 WHERE teacher_id = $1 AND class_id = $2 AND subject_id = $3 AND academic_year_id = $4`,
			params.TeacherID, params.ClassID, params.SubjectID, params.AcademicYearID).
			Scan(&alloc.ID, &alloc.TenantID, &alloc.TeacherID, &alloc.GradeID, &alloc.ClassID,
				&alloc.SubjectID, &alloc.AcademicYearID, &alloc.RoleInClass, &alloc.CreatedAt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		alloc = Allocation{
			ID:             uuid.NewString(),
			TenantID:       secctx.From(ctx).TenantID,
			TeacherID:      params.TeacherID,
			GradeID:        gradeID,
			ClassID:        params.ClassID,
			SubjectID:      params.SubjectID,
			AcademicYearID: params.AcademicYearID,
			RoleInClass:    roleSubjectTeacher,
		}
		return tx.QueryRow(ctx,
			`INSERT INTO teacher_grade_classes
			   (id, tenant_id, teacher_id, grade_id, class_id, subject_id, academic_year_id, role_in_class)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING created_at`,
			alloc.ID, alloc.TenantID, alloc.TeacherID, alloc.GradeID, alloc.ClassID,
			alloc.SubjectID, alloc.AcademicYearID, alloc.RoleInClass).
			Scan(&alloc.CreatedAt)
	})
	return alloc, err
}

// Schedule lists a teacher's allocations newest academic year first.
func (r *Repository) Schedule(ctx context.Context, teacherID string) ([]ScheduleEntry, error) {
	var out []ScheduleEntry
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT tgc.id, COALESCE(tgc.tenant_id::text, ''), tgc.teacher_id, tgc.grade_id,
			        tgc.class_id, tgc.subject_id, tgc.academic_year_id, tgc.role_in_class,
			        tgc.created_at, s.name, c.class_code, c.class_name, g.grade_number, ay.label
			 FROM teacher_grade_classes tgc
			 JOIN subjects s ON s.id = tgc.subject_id
			 JOIN classrooms c ON c.id = tgc.class_id
			 JOIN grades g ON g.id = tgc.grade_id
			 JOIN academic_years ay ON ay.id = tgc.academic_year_id
			 WHERE tgc.teacher_id = $1
			 ORDER BY tgc.academic_year_id DESC`, teacherID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e ScheduleEntry
			err := rows.Scan(&e.ID, &e.TenantID, &e.TeacherID, &e.GradeID, &e.ClassID,
				&e.SubjectID, &e.AcademicYearID, &e.RoleInClass, &e.CreatedAt,
				&e.SubjectName, &e.ClassCode, &e.ClassName, &e.GradeNumber, &e.YearLabel)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

func gradeValid(validGrades []int32, grade int32) bool {
	for _, g := range validGrades {
		if g == grade {
			return true
		}
	}
	return false
}
