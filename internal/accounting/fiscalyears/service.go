package fiscalyears

import (
	"context"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// AuditPort records registry changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service exposes the financial year registry.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the registry service. audit may be nil.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// ListActive returns open years, most recent first.
func (s *Service) ListActive(ctx context.Context) ([]FiscalYear, error) {
	return s.repo.ListActive(ctx)
}

// List returns all registered years.
func (s *Service) List(ctx context.Context) ([]FiscalYear, error) {
	return s.repo.List(ctx)
}

// Get returns one year.
func (s *Service) Get(ctx context.Context, id int64) (FiscalYear, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new year.
func (s *Service) Create(ctx context.Context, in CreateInput) (FiscalYear, error) {
	if err := in.Validate(); err != nil {
		return FiscalYear{}, err
	}
	fy, err := s.repo.Insert(ctx, in)
	if err != nil {
		return FiscalYear{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "fiscal_year.create",
			Entity:   "fiscal_year",
			EntityID: strconv.FormatInt(fy.ID, 10),
			Meta:     map[string]any{"code": fy.Code},
			At:       s.now(),
		})
	}
	return fy, nil
}
