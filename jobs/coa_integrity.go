package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-coa/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-coa/internal/accounting/linked"
)

// ErrIntegrityViolations is returned when a sweep configured to fail finds defects.
var ErrIntegrityViolations = errors.New("coa integrity: violations found")

// AccountLister exposes the full chart snapshot.
type AccountLister interface {
	List(ctx context.Context) ([]accounts.Account, error)
}

// EntityLister exposes linked entities of every kind.
type EntityLister interface {
	List(ctx context.Context, kind linked.Kind) ([]linked.Entity, error)
}

// IntegrityMetrics receives the sweep outcome.
type IntegrityMetrics interface {
	JobCompleted(task, status string)
	IntegrityViolations(n int)
}

// IntegrityReport summarises one sweep.
type IntegrityReport struct {
	Accounts   int                  `json:"accounts"`
	Entities   int                  `json:"entities"`
	Violations []accounts.Violation `json:"violations"`
	Duration   time.Duration        `json:"duration"`
}

// COAIntegrityJob verifies the account forest and the links that point into it.
type COAIntegrityJob struct {
	Accounts AccountLister
	Entities EntityLister
	Logger   *slog.Logger
	Metrics  IntegrityMetrics
	clock    func() time.Time
}

// NewCOAIntegrityJob initialises the integrity sweep handler.
func NewCOAIntegrityJob(accts AccountLister, entities EntityLister, logger *slog.Logger, metrics IntegrityMetrics) *COAIntegrityJob {
	return &COAIntegrityJob{
		Accounts: accts,
		Entities: entities,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep for an Asynq task.
func (j *COAIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("coa integrity: handler not configured")
	}
	var payload COAIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("coa integrity: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	report, err := j.Run(ctx)
	if err != nil {
		return err
	}
	j.logger().Info("coa integrity sweep finished",
		slog.String("trigger", payload.Trigger),
		slog.Int("accounts", report.Accounts),
		slog.Int("entities", report.Entities),
		slog.Int("violations", len(report.Violations)),
		slog.Duration("duration", report.Duration),
	)
	if payload.FailOnViolation && len(report.Violations) > 0 {
		return fmt.Errorf("%w: %d", ErrIntegrityViolations, len(report.Violations))
	}
	return nil
}

// Run checks the account forest and the entity links. Entities are read before
// accounts, then re-read, and only entities present in both reads are checked,
// so a link created or removed while the sweep runs is not reported.
func (j *COAIntegrityJob) Run(ctx context.Context) (IntegrityReport, error) {
	start := j.now()
	all, entities, err := j.snapshot(ctx)
	if err != nil {
		j.logger().Error("coa integrity sweep failed", slog.Any("error", err))
		j.completed("error")
		return IntegrityReport{}, err
	}

	violations := accounts.CheckIntegrity(all)
	violations = append(violations, linked.CheckReferences(entities, all)...)
	for _, v := range violations {
		j.logger().Warn("coa integrity violation",
			slog.String("kind", string(v.Kind)),
			slog.String("account_id", v.AccountID.String()),
			slog.String("code", v.Code),
			slog.String("detail", v.Detail),
		)
	}
	if j.Metrics != nil {
		j.Metrics.IntegrityViolations(len(violations))
	}
	status := "ok"
	if len(violations) > 0 {
		status = "violations"
	}
	j.completed(status)

	return IntegrityReport{
		Accounts:   len(all),
		Entities:   len(entities),
		Violations: violations,
		Duration:   j.now().Sub(start),
	}, nil
}

func (j *COAIntegrityJob) snapshot(ctx context.Context) ([]accounts.Account, []linked.Entity, error) {
	before, err := j.listEntities(ctx)
	if err != nil {
		return nil, nil, err
	}
	all, err := j.Accounts.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("coa integrity: load accounts: %w", err)
	}
	if len(before) == 0 {
		return all, nil, nil
	}
	after, err := j.listEntities(ctx)
	if err != nil {
		return nil, nil, err
	}
	current := make(map[uuid.UUID]struct{}, len(after))
	for _, e := range after {
		current[e.ID] = struct{}{}
	}
	stable := before[:0]
	for _, e := range before {
		if _, ok := current[e.ID]; ok {
			stable = append(stable, e)
		}
	}
	return all, stable, nil
}

func (j *COAIntegrityJob) listEntities(ctx context.Context) ([]linked.Entity, error) {
	if j.Entities == nil {
		return nil, nil
	}
	entities, err := j.Entities.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("coa integrity: load linked entities: %w", err)
	}
	return entities, nil
}

func (j *COAIntegrityJob) completed(status string) {
	if j.Metrics != nil {
		j.Metrics.JobCompleted(TaskCOAIntegrity, status)
	}
}

func (j *COAIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *COAIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
