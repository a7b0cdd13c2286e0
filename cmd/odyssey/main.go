package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-coa/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-coa/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-coa/internal/accounting/linked"
	"github.com/odyssey-erp/odyssey-coa/internal/app"
	"github.com/odyssey-erp/odyssey-coa/internal/audit"
	"github.com/odyssey-erp/odyssey-coa/internal/observability"
	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
	"github.com/odyssey-erp/odyssey-coa/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	services, err := app.Bootstrap(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("bootstrap services", slog.Any("error", err))
		os.Exit(1)
	}
	defer services.Close()

	rbacMiddleware := rbac.Middleware{Grants: rbac.DefaultRoleGrants(), Logger: logger}

	var jobHandler *jobs.Handler
	if services.Redis != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		client, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, client, logger, rbacMiddleware)
	} else {
		jobHandler = jobs.NewHandler(nil, nil, logger, rbacMiddleware)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     rbacMiddleware,
		AccountsHandler:    accounts.NewHandler(logger, services.Accounts, rbacMiddleware),
		LinkedHandler:      linked.NewHandler(logger, services.Linked, rbacMiddleware),
		FiscalYearsHandler: fiscalyears.NewHandler(logger, services.FiscalYears, rbacMiddleware),
		AuditHandler:       audit.NewHandler(logger, services.Audit, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacMiddleware),
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
