package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/db"
)

// Repository persists accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction, retried on serialization failures.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("accounts repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const accountColumns = `id, code, name_ar, name_en, level, parent_id, nature, balance, branch_id, owner_kind, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.NameAr, &a.NameEn, &a.Level, &a.ParentID, &a.Nature, &a.Balance, &a.BranchID, &a.OwnerKind, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *txRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY level, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *txRepository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

func (r *txRepository) LockAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

func (r *txRepository) InsertAccount(ctx context.Context, a Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts (id, code, name_ar, name_en, level, parent_id, nature, balance, branch_id, owner_kind)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING created_at, updated_at`,
		a.ID, a.Code, a.NameAr, a.NameEn, a.Level, a.ParentID, a.Nature, a.Balance, a.BranchID, a.OwnerKind)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		switch db.ErrorCode(err) {
		case db.CodeUniqueViolation:
			return Account{}, fmt.Errorf("%w: %s", ErrDuplicateCode, a.Code)
		case db.CodeForeignKeyViolation:
			return Account{}, ErrParentNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) UpdateAccount(ctx context.Context, id uuid.UUID, in UpdateInput) (Account, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `UPDATE accounts SET
	name_ar = COALESCE($2, name_ar),
	name_en = COALESCE($3, name_en),
	branch_id = COALESCE($4, branch_id),
	updated_at = NOW()
WHERE id = $1 RETURNING `+accountColumns, id, in.NameAr, in.NameEn, in.BranchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

func (r *txRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		if db.ErrorCode(err) == db.CodeForeignKeyViolation {
			return ErrHasChildren
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE parent_id = $1`, id).Scan(&n)
	return n, err
}

func (r *txRepository) ChildCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.tx.Query(ctx, `SELECT parent_id, COUNT(*) FROM accounts WHERE parent_id IS NOT NULL GROUP BY parent_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			parentID uuid.UUID
			n        int
		)
		if err := rows.Scan(&parentID, &n); err != nil {
			return nil, err
		}
		counts[parentID] = n
	}
	return counts, rows.Err()
}

func (r *txRepository) ListChildCodes(ctx context.Context, parentID uuid.UUID) ([]string, error) {
	rows, err := r.tx.Query(ctx, `SELECT code FROM accounts WHERE parent_id = $1`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *txRepository) NextChildSequence(ctx context.Context, parentID uuid.UUID, floor int) (int, error) {
	var next int
	err := r.tx.QueryRow(ctx, `INSERT INTO account_code_sequences (parent_id, last_value) VALUES ($1, $2 + 1)
ON CONFLICT (parent_id) DO UPDATE SET last_value = GREATEST(account_code_sequences.last_value, $2) + 1
RETURNING last_value`, parentID, floor).Scan(&next)
	return next, err
}
