package subjects

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

const subjectColumns = `id, COALESCE(tenant_id::text, ''), code, name, valid_grades, created_at, updated_at`

func scanSubject(row pgx.Row) (Subject, error) {
	var s Subject
	err := row.Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.ValidGrades, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *Repository) Create(ctx context.Context, subject Subject) (Subject, error) {
	subject.ID = uuid.NewString()
	subject.TenantID = secctx.From(ctx).TenantID
	if subject.ValidGrades == nil {
		subject.ValidGrades = []int32{}
	}
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO subjects (id, tenant_id, code, name, valid_grades)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING created_at, updated_at`,
			subject.ID, subject.TenantID, subject.Code, subject.Name, subject.ValidGrades).
			Scan(&subject.CreatedAt, &subject.UpdatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Subject{}, fmt.Errorf("%w: subject code already exists", httpx.ErrDuplicate)
		}
		return Subject{}, err
	}
	return subject, nil
}

// List returns subjects ordered by name, optionally narrowed to those valid
// for one grade number.
func (r *Repository) List(ctx context.Context, grade int32) ([]Subject, error) {
	var out []Subject
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+subjectColumns+` FROM subjects
			 WHERE $1 = 0 OR $1 = ANY(valid_grades)
			 ORDER BY name`, grade)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSubject(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (r *Repository) Get(ctx context.Context, id string) (Subject, error) {
	var s Subject
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		var err error
		s, err = scanSubject(tx.QueryRow(ctx,
			`SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, fmt.Errorf("%w: subject not found", httpx.ErrNotFound)
	}
	return s, err
}

type UpdateParams struct {
	Code        string
	Name        string
	ValidGrades []int32
}

func (r *Repository) Update(ctx context.Context, id string, params UpdateParams) (Subject, error) {
	var s Subject
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		var err error
		s, err = scanSubject(tx.QueryRow(ctx,
			`UPDATE subjects SET
			   code         = COALESCE(NULLIF($2,''), code),
			   name         = COALESCE(NULLIF($3,''), name),
			   valid_grades = COALESCE($4, valid_grades),
			   updated_at   = now()
			 WHERE id = $1
			 RETURNING `+subjectColumns,
			id, params.Code, params.Name, params.ValidGrades))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, fmt.Errorf("%w: subject not found", httpx.ErrNotFound)
	}
	return s, err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: subject not found", httpx.ErrNotFound)
	}
	return err
}
