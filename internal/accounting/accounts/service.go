package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// AuditPort records chart-of-accounts events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// OwnershipGuard reports which linked entity, if any, owns an account.
// An empty owner means the account is free to delete.
type OwnershipGuard interface {
	OwnerOf(ctx context.Context, accountID uuid.UUID) (string, error)
}

// Metrics receives domain counters.
type Metrics interface {
	DeleteRefused(reason string)
}

// Refusal reasons reported to Metrics.
const (
	RefusedHasChildren = "has_children"
	RefusedOwned       = "owned"
)

// Service maintains the chart of accounts and provisions generated sub-accounts.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	cache   *ListCache
	guard   OwnershipGuard
	metrics Metrics
	now     func() time.Time
}

// NewService constructs the account service. audit and cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache *ListCache) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithOwnershipGuard installs the guard consulted by Delete.
func (s *Service) WithOwnershipGuard(guard OwnershipGuard) {
	s.guard = guard
}

// WithMetrics installs a domain metrics sink.
func (s *Service) WithMetrics(m Metrics) {
	s.metrics = m
}

// List returns every account ordered by code, read straight from storage.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		accounts, err = tx.ListAccounts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	SortByCode(accounts)
	return accounts, nil
}

// Tree returns every account with its live child count, ordered by code.
// It is served from the list cache when one is configured.
func (s *Service) Tree(ctx context.Context) ([]Node, error) {
	return s.cache.tree(ctx, s.loadTree)
}

func (s *Service) loadTree(ctx context.Context) ([]Node, error) {
	var (
		accounts []Account
		counts   map[uuid.UUID]int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if accounts, err = tx.ListAccounts(ctx); err != nil {
			return err
		}
		counts, err = tx.ChildCounts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	SortByCode(accounts)
	nodes := make([]Node, 0, len(accounts))
	for _, a := range accounts {
		nodes = append(nodes, Node{Account: a, ChildCount: counts[a.ID]})
	}
	return nodes, nil
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	var account Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		account, err = tx.GetAccount(ctx, id)
		return err
	})
	return account, err
}

// CountChildren returns the number of accounts whose parent is id.
func (s *Service) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetAccount(ctx, id); err != nil {
			return err
		}
		var err error
		n, err = tx.CountChildren(ctx, id)
		return err
	})
	return n, err
}

// Create adds a root account with an explicit code, or a child account whose
// code is generated from its parent.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if in.ParentID == nil {
			var err error
			created, err = tx.InsertAccount(ctx, Account{
				ID:       uuid.New(),
				Code:     in.Code,
				NameAr:   in.NameAr,
				NameEn:   in.NameEn,
				Level:    1,
				Nature:   in.Nature,
				Balance:  decimal.Zero,
				BranchID: in.BranchID,
			})
			return err
		}
		parent, err := lockParent(ctx, tx, *in.ParentID)
		if err != nil {
			return err
		}
		created, err = insertChild(ctx, tx, parent, Account{NameAr: in.NameAr, NameEn: in.NameEn, BranchID: in.BranchID})
		return err
	})
	if err != nil {
		return Account{}, err
	}
	s.afterWrite(ctx, in.ActorID, "account.create", created, nil)
	return created, nil
}

// Update edits display names and branch scope.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Account, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	var updated Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		updated, err = tx.UpdateAccount(ctx, id, in)
		return err
	})
	if err != nil {
		return Account{}, err
	}
	s.afterWrite(ctx, in.ActorID, "account.update", updated, nil)
	return updated, nil
}

// Delete removes a leaf account that no linked entity owns. Accounts
// provisioned for an owner are refused even before the owner is stored.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID int64) error {
	if s.guard != nil {
		owner, err := s.guard.OwnerOf(ctx, id)
		if err != nil {
			return fmt.Errorf("accounts: resolve owner: %w", err)
		}
		if owner != "" {
			s.refused(RefusedOwned)
			return fmt.Errorf("%w (%s)", ErrAccountOwned, owner)
		}
	}
	return s.delete(ctx, id, actorID, false)
}

// DeleteOwned removes a leaf account without consulting the ownership guard.
// Reserved for the owner of the account.
func (s *Service) DeleteOwned(ctx context.Context, id uuid.UUID, actorID int64) error {
	return s.delete(ctx, id, actorID, true)
}

func (s *Service) delete(ctx context.Context, id uuid.UUID, actorID int64, owned bool) error {
	var removed Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.LockAccount(ctx, id)
		if err != nil {
			return err
		}
		if !owned && account.OwnerKind != "" {
			return fmt.Errorf("%w (%s)", ErrAccountOwned, account.OwnerKind)
		}
		n, err := tx.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &HasChildrenError{Count: n}
		}
		if err := tx.DeleteAccount(ctx, id); err != nil {
			return err
		}
		removed = account
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAccountOwned) {
			s.refused(RefusedOwned)
			return err
		}
		var hc *HasChildrenError
		if errors.As(err, &hc) {
			s.refused(RefusedHasChildren)
			return err
		}
		if errors.Is(err, ErrHasChildren) {
			// A child committed between the count and the delete; report the fresh count.
			s.refused(RefusedHasChildren)
			n, cerr := s.CountChildren(ctx, id)
			if cerr != nil || n == 0 {
				n = 1
			}
			return &HasChildrenError{Count: n}
		}
		return err
	}
	s.afterWrite(ctx, actorID, "account.delete", removed, nil)
	return nil
}

// Provision creates a generated sub-account under a root account or an
// existing group account.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (Account, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		parent, err := lockParent(ctx, tx, in.ParentID)
		if err != nil {
			return err
		}
		if parent.Level != 1 {
			n, err := tx.CountChildren(ctx, parent.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: %s is a leaf at level %d", ErrParentNotProvisionable, parent.Code, parent.Level)
			}
		}
		created, err = insertChild(ctx, tx, parent, Account{NameAr: in.NameAr, NameEn: in.NameEn, BranchID: in.BranchID, OwnerKind: in.OwnerKind})
		return err
	})
	if err != nil {
		return Account{}, err
	}
	extra := map[string]any{"parent_id": in.ParentID.String()}
	if in.OwnerKind != "" {
		extra["owner_kind"] = in.OwnerKind
	}
	s.afterWrite(ctx, in.ActorID, "account.provision", created, extra)
	return created, nil
}

func lockParent(ctx context.Context, tx TxRepository, id uuid.UUID) (Account, error) {
	parent, err := tx.LockAccount(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrParentNotFound
	}
	return parent, err
}

// insertChild allocates the next suffix for parent and inserts child beneath it.
// The caller must hold the parent row lock.
func insertChild(ctx context.Context, tx TxRepository, parent Account, child Account) (Account, error) {
	siblings, err := tx.ListChildCodes(ctx, parent.ID)
	if err != nil {
		return Account{}, err
	}
	floor, width := SuffixFloor(parent.Code, siblings)
	next, err := tx.NextChildSequence(ctx, parent.ID, floor)
	if err != nil {
		return Account{}, err
	}
	parentID := parent.ID
	child.ID = uuid.New()
	child.Code = ChildCode(parent.Code, next, width)
	child.Level = parent.Level + 1
	child.ParentID = &parentID
	child.Nature = parent.Nature
	child.Balance = decimal.Zero
	return tx.InsertAccount(ctx, child)
}

func (s *Service) afterWrite(ctx context.Context, actorID int64, action string, account Account, extra map[string]any) {
	s.cache.invalidate(ctx)
	if s.audit == nil {
		return
	}
	meta := map[string]any{"code": account.Code, "level": account.Level}
	for k, v := range extra {
		meta[k] = v
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: account.ID.String(),
		Meta:     meta,
		At:       s.now(),
	})
}

func (s *Service) refused(reason string) {
	if s.metrics != nil {
		s.metrics.DeleteRefused(reason)
	}
}
