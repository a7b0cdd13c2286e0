package fiscalyears

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/db"
)

// Repository abstracts fiscal year storage.
type Repository interface {
	List(ctx context.Context) ([]FiscalYear, error)
	ListActive(ctx context.Context) ([]FiscalYear, error)
	Get(ctx context.Context, id int64) (FiscalYear, error)
	Insert(ctx context.Context, in CreateInput) (FiscalYear, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const columns = `id, code, start_date, end_date, status, created_at, updated_at`

func scan(row pgx.Row) (FiscalYear, error) {
	var fy FiscalYear
	err := row.Scan(&fy.ID, &fy.Code, &fy.StartDate, &fy.EndDate, &fy.Status, &fy.CreatedAt, &fy.UpdatedAt)
	return fy, err
}

func (r *repository) query(ctx context.Context, sql string, args ...any) ([]FiscalYear, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FiscalYear
	for rows.Next() {
		fy, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fy)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context) ([]FiscalYear, error) {
	return r.query(ctx, `SELECT `+columns+` FROM fiscal_years ORDER BY start_date DESC`)
}

// ListActive returns open years, most recent first.
func (r *repository) ListActive(ctx context.Context) ([]FiscalYear, error) {
	return r.query(ctx, `SELECT `+columns+` FROM fiscal_years WHERE status = 'OPEN' ORDER BY start_date DESC`)
}

func (r *repository) Get(ctx context.Context, id int64) (FiscalYear, error) {
	fy, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM fiscal_years WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return FiscalYear{}, ErrNotFound
	}
	return fy, err
}

func (r *repository) Insert(ctx context.Context, in CreateInput) (FiscalYear, error) {
	fy, err := scan(r.db.QueryRow(ctx, `INSERT INTO fiscal_years (code, start_date, end_date, status)
VALUES ($1,$2,$3,$4) RETURNING `+columns, in.Code, in.StartDate, in.EndDate, in.Status))
	if db.ErrorCode(err) == db.CodeUniqueViolation {
		return FiscalYear{}, ErrDuplicateCode
	}
	return fy, err
}
