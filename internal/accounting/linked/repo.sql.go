package linked

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository stores linked entities in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const columns = `id, kind, name_ar, name_en, branch_id, parent_account_id, fiscal_year, sub_account_id, sub_account_code, rate, created_at, updated_at`

func scan(row pgx.Row) (Entity, error) {
	var e Entity
	err := row.Scan(&e.ID, &e.Kind, &e.NameAr, &e.NameEn, &e.BranchID, &e.ParentAccountID, &e.FiscalYear, &e.SubAccountID, &e.SubAccountCode, &e.Rate, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entity{}, ErrNotFound
	}
	return e, err
}

func (r *PGRepository) Insert(ctx context.Context, e Entity) (Entity, error) {
	return scan(r.pool.QueryRow(ctx, `INSERT INTO linked_entities (id, kind, name_ar, name_en, branch_id, parent_account_id, fiscal_year, sub_account_id, sub_account_code, rate)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+columns,
		e.ID, e.Kind, e.NameAr, e.NameEn, e.BranchID, e.ParentAccountID, e.FiscalYear, e.SubAccountID, e.SubAccountCode, e.Rate))
}

func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (Entity, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM linked_entities WHERE id = $1`, id))
}

func (r *PGRepository) List(ctx context.Context, kind Kind) ([]Entity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM linked_entities WHERE ($1 = '' OR kind = $1) ORDER BY created_at, id`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entity
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Entity, error) {
	return scan(r.pool.QueryRow(ctx, `UPDATE linked_entities SET
	name_ar = COALESCE($2, name_ar),
	name_en = COALESCE($3, name_en),
	branch_id = COALESCE($4, branch_id),
	rate = COALESCE($5, rate),
	updated_at = NOW()
WHERE id = $1 RETURNING `+columns, id, in.NameAr, in.NameEn, in.BranchID, in.Rate))
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM linked_entities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) FindBySubAccount(ctx context.Context, accountID uuid.UUID) (Entity, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM linked_entities WHERE sub_account_id = $1`, accountID))
}
