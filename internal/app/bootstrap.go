package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-coa/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-coa/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-coa/internal/accounting/linked"
	"github.com/odyssey-erp/odyssey-coa/internal/audit"
	"github.com/odyssey-erp/odyssey-coa/internal/observability"
	"github.com/odyssey-erp/odyssey-coa/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-coa/internal/platform/db"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

const accountsCacheNamespace = "coa:accounts"

// Services holds the wired domain services and the connections backing them.
type Services struct {
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Accounts    *accounts.Service
	Linked      *linked.Service
	FiscalYears *fiscalyears.Service
	Audit       *audit.Service
	logger      *slog.Logger
}

// Bootstrap connects the configured store and cache and wires the services.
// A Redis outage is tolerated: the account list is then served uncached.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	s := &Services{logger: logger}

	var (
		accountRepo accounts.RepositoryPort
		linkedRepo  linked.Repository
		yearRepo    fiscalyears.Repository
		auditor     accounts.AuditPort
		timeline    audit.Repository
	)
	if cfg.UsesPostgres() {
		if cfg.MigrateOnStart {
			version, err := db.Migrate(cfg.PGDSN)
			if err != nil {
				return nil, err
			}
			logger.Info("database migrated", slog.Uint64("version", uint64(version)))
		}
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		s.Pool = pool
		accountRepo = accounts.NewRepository(pool)
		linkedRepo = linked.NewRepository(pool)
		yearRepo = fiscalyears.NewRepository(pool)
		auditor = shared.NewAuditLogger(pool)
		timeline = audit.NewRepository(pool)
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		accountRepo = accounts.NewMemoryRepository()
		linkedRepo = linked.NewMemoryRepository()
		yearRepo = fiscalyears.NewMemoryRepository()
		memoryLog := audit.NewMemoryLog(logger)
		auditor = memoryLog
		timeline = memoryLog
	}

	var store *cache.Versioned
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, account cache disabled", slog.Any("error", err))
		} else {
			s.Redis = client
			store = cache.NewVersioned(client, accountsCacheNamespace, cfg.CacheTTL)
		}
	}

	s.Accounts = accounts.NewService(accountRepo, auditor, accounts.NewListCache(store, logger))
	s.Accounts.WithMetrics(metrics)
	s.FiscalYears = fiscalyears.NewService(yearRepo, auditor)
	s.Linked = linked.NewService(linkedRepo, s.Accounts, s.FiscalYears, auditor)
	s.Linked.WithLogger(logger)
	s.Linked.WithMetrics(metrics)
	s.Accounts.WithOwnershipGuard(s.Linked)
	s.Audit = audit.NewService(timeline)
	return s, nil
}

// Close releases the pool and Redis client.
func (s *Services) Close() {
	if s == nil {
		return
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil && s.logger != nil {
			s.logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
