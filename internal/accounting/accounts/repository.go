package accounts

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the account operations available inside a transaction.
type TxRepository interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	// LockAccount loads the account and holds a row lock until the transaction ends.
	LockAccount(ctx context.Context, id uuid.UUID) (Account, error)
	InsertAccount(ctx context.Context, account Account) (Account, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, in UpdateInput) (Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	CountChildren(ctx context.Context, id uuid.UUID) (int, error)
	ChildCounts(ctx context.Context) (map[uuid.UUID]int, error)
	ListChildCodes(ctx context.Context, parentID uuid.UUID) ([]string, error)
	// NextChildSequence advances the per-parent counter to max(counter, floor)+1.
	NextChildSequence(ctx context.Context, parentID uuid.UUID, floor int) (int, error)
}
