package linked

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-coa/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-coa/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

const compensationTimeout = 10 * time.Second

// AccountPort is the slice of the account service the manager relies on.
type AccountPort interface {
	Provision(ctx context.Context, in accounts.ProvisionInput) (accounts.Account, error)
	DeleteOwned(ctx context.Context, id uuid.UUID, actorID int64) error
}

// FiscalYearPort supplies the default fiscal year tag.
type FiscalYearPort interface {
	ListActive(ctx context.Context) ([]fiscalyears.FiscalYear, error)
}

// AuditPort records linked entity events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics receives provisioning and compensation counters.
type Metrics interface {
	Provisioned(kind string)
	Compensation(kind, outcome string)
}

// Compensation outcomes reported to Metrics.
const (
	CompensationSucceeded = "succeeded"
	CompensationFailed    = "failed"
)

// Service manages the lifecycle of entities that own a provisioned sub-account.
type Service struct {
	repo     Repository
	accounts AccountPort
	years    FiscalYearPort
	audit    AuditPort
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the manager. years and audit may be nil.
func NewService(repo Repository, accounts AccountPort, years FiscalYearPort, audit AuditPort) *Service {
	return &Service{repo: repo, accounts: accounts, years: years, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithLogger installs the logger used for compensation reports.
func (s *Service) WithLogger(logger *slog.Logger) {
	s.logger = logger
}

// WithMetrics installs a domain metrics sink.
func (s *Service) WithMetrics(m Metrics) {
	s.metrics = m
}

// Get returns one entity.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Entity, error) {
	return s.repo.Get(ctx, id)
}

// List returns the entities of kind, or all entities when kind is empty.
func (s *Service) List(ctx context.Context, kind Kind) ([]Entity, error) {
	return s.repo.List(ctx, kind)
}

// OwnerOf reports the entity owning accountID, or "" when none does.
func (s *Service) OwnerOf(ctx context.Context, accountID uuid.UUID) (string, error) {
	e, err := s.repo.FindBySubAccount(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return e.Owner(), nil
}

// Create provisions the entity's sub-account and persists the entity. When the
// entity write fails the sub-account is deleted again before returning.
func (s *Service) Create(ctx context.Context, in CreateInput) (Entity, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Entity{}, err
	}
	if in.FiscalYear == "" && s.years != nil {
		years, err := s.years.ListActive(ctx)
		if err != nil {
			return Entity{}, fmt.Errorf("linked: resolve fiscal year: %w", err)
		}
		if len(years) > 0 {
			in.FiscalYear = years[0].Code
		}
	}

	account, err := s.accounts.Provision(ctx, accounts.ProvisionInput{
		ParentID:  in.ParentAccountID,
		NameAr:    in.NameAr,
		NameEn:    in.NameEn,
		BranchID:  in.BranchID,
		OwnerKind: string(in.Kind),
		ActorID:   in.ActorID,
	})
	if err != nil {
		return Entity{}, err
	}
	if s.metrics != nil {
		s.metrics.Provisioned(string(in.Kind))
	}

	subID := account.ID
	entity, err := s.repo.Insert(ctx, Entity{
		ID:              uuid.New(),
		Kind:            in.Kind,
		NameAr:          in.NameAr,
		NameEn:          in.NameEn,
		BranchID:        in.BranchID,
		ParentAccountID: in.ParentAccountID,
		FiscalYear:      in.FiscalYear,
		SubAccountID:    &subID,
		SubAccountCode:  account.Code,
		Rate:            in.Rate,
	})
	if err != nil {
		return Entity{}, s.compensate(ctx, in, account, err)
	}
	s.record(ctx, in.ActorID, "linked.create", entity)
	return entity, nil
}

// compensate removes a provisioned account whose owner could not be stored.
// It runs detached from ctx so an abandoned request still cleans up.
func (s *Service) compensate(ctx context.Context, in CreateInput, account accounts.Account, cause error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	derr := s.accounts.DeleteOwned(cctx, account.ID, in.ActorID)
	if errors.Is(derr, accounts.ErrNotFound) {
		derr = nil
	}
	perr := &PersistenceError{Err: cause, SubAccountID: account.ID, Compensated: derr == nil, CompensationErr: derr}

	outcome := CompensationSucceeded
	if derr != nil {
		outcome = CompensationFailed
	}
	if s.metrics != nil {
		s.metrics.Compensation(string(in.Kind), outcome)
	}
	if s.logger != nil {
		level := slog.LevelWarn
		if derr != nil {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "linked entity persistence failed",
			slog.String("kind", string(in.Kind)),
			slog.String("sub_account_id", account.ID.String()),
			slog.String("sub_account_code", account.Code),
			slog.String("compensation", outcome),
			slog.Any("error", cause),
			slog.Any("compensation_error", derr),
		)
	}
	return perr
}

// Update edits display fields, branch scope and rate. The sub-account link is never changed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Entity, error) {
	in.normalize()
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	if err := in.validate(current.Kind); err != nil {
		return Entity{}, err
	}
	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Entity{}, err
	}
	s.record(ctx, in.ActorID, "linked.update", updated)
	return updated, nil
}

// Delete removes the entity's sub-account first, then the entity. A sub-account
// that is already gone does not block deletion; one with children does.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID int64) error {
	entity, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if entity.SubAccountID != nil {
		err := s.accounts.DeleteOwned(ctx, *entity.SubAccountID, actorID)
		if err != nil && !errors.Is(err, accounts.ErrNotFound) {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "linked.delete", entity)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, e Entity) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{"kind": string(e.Kind), "sub_account_code": e.SubAccountCode}
	if e.SubAccountID != nil {
		meta["sub_account_id"] = e.SubAccountID.String()
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "linked_entity",
		EntityID: e.ID.String(),
		Meta:     meta,
		At:       s.now(),
	})
}
