package accounts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. Transactions are
// serialised and applied atomically on success.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]Account
	seq      map[uuid.UUID]int
	now      func() time.Time
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[uuid.UUID]Account),
		seq:      make(map[uuid.UUID]int),
		now:      time.Now,
	}
}

// WithTx runs fn against a private copy of the store and commits it when fn succeeds.
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{
		accounts: make(map[uuid.UUID]Account, len(r.accounts)),
		seq:      make(map[uuid.UUID]int, len(r.seq)),
		now:      r.now,
	}
	for k, v := range r.accounts {
		tx.accounts[k] = v
	}
	for k, v := range r.seq {
		tx.seq[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.accounts = tx.accounts
	r.seq = tx.seq
	return nil
}

type memoryTx struct {
	accounts map[uuid.UUID]Account
	seq      map[uuid.UUID]int
	now      func() time.Time
}

func (tx *memoryTx) ListAccounts(context.Context) ([]Account, error) {
	out := make([]Account, 0, len(tx.accounts))
	for _, a := range tx.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (tx *memoryTx) GetAccount(_ context.Context, id uuid.UUID) (Account, error) {
	a, ok := tx.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (tx *memoryTx) LockAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	return tx.GetAccount(ctx, id)
}

func (tx *memoryTx) InsertAccount(_ context.Context, a Account) (Account, error) {
	for _, existing := range tx.accounts {
		if existing.Code == a.Code {
			return Account{}, fmt.Errorf("%w: %s", ErrDuplicateCode, a.Code)
		}
	}
	if a.ParentID != nil {
		if _, ok := tx.accounts[*a.ParentID]; !ok {
			return Account{}, ErrParentNotFound
		}
	}
	now := tx.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	tx.accounts[a.ID] = a
	return a, nil
}

func (tx *memoryTx) UpdateAccount(_ context.Context, id uuid.UUID, in UpdateInput) (Account, error) {
	a, ok := tx.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if in.NameAr != nil {
		a.NameAr = *in.NameAr
	}
	if in.NameEn != nil {
		a.NameEn = *in.NameEn
	}
	if in.BranchID != nil {
		a.BranchID = *in.BranchID
	}
	a.UpdatedAt = tx.now()
	tx.accounts[id] = a
	return a, nil
}

func (tx *memoryTx) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if _, ok := tx.accounts[id]; !ok {
		return ErrNotFound
	}
	if n, _ := tx.CountChildren(ctx, id); n > 0 {
		return ErrHasChildren
	}
	delete(tx.accounts, id)
	delete(tx.seq, id)
	return nil
}

func (tx *memoryTx) CountChildren(_ context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, a := range tx.accounts {
		if a.ParentID != nil && *a.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (tx *memoryTx) ChildCounts(context.Context) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, a := range tx.accounts {
		if a.ParentID != nil {
			counts[*a.ParentID]++
		}
	}
	return counts, nil
}

func (tx *memoryTx) ListChildCodes(_ context.Context, parentID uuid.UUID) ([]string, error) {
	var codes []string
	for _, a := range tx.accounts {
		if a.ParentID != nil && *a.ParentID == parentID {
			codes = append(codes, a.Code)
		}
	}
	return codes, nil
}

func (tx *memoryTx) NextChildSequence(_ context.Context, parentID uuid.UUID, floor int) (int, error) {
	next := tx.seq[parentID]
	if floor > next {
		next = floor
	}
	next++
	tx.seq[parentID] = next
	return next, nil
}
