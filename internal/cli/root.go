// Package cli implements the coactl operator commands.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-coa/internal/app"
	"github.com/odyssey-erp/odyssey-coa/internal/observability"
)

// Options injects dependencies into the command tree. Zero values fall back
// to the environment.
type Options struct {
	Out      io.Writer
	Config   *app.Config
	Services *app.Services
}

type runtime struct {
	opts     Options
	logger   *slog.Logger
	services *app.Services
	owned    bool
}

func (r *runtime) config() (*app.Config, error) {
	if r.opts.Config != nil {
		return r.opts.Config, nil
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	r.opts.Config = cfg
	return cfg, nil
}

func (r *runtime) log() *slog.Logger {
	if r.logger == nil {
		r.logger = app.NewLogger(r.opts.Config)
	}
	return r.logger
}

// connect returns the wired services, bootstrapping them on first use.
func (r *runtime) connect(ctx context.Context) (*app.Services, error) {
	if r.services != nil {
		return r.services, nil
	}
	if r.opts.Services != nil {
		r.services = r.opts.Services
		return r.services, nil
	}
	cfg, err := r.config()
	if err != nil {
		return nil, err
	}
	services, err := app.Bootstrap(ctx, cfg, r.log(), observability.NewMetrics())
	if err != nil {
		return nil, err
	}
	r.services = services
	r.owned = true
	return services, nil
}

func (r *runtime) close() {
	if r.owned {
		r.services.Close()
	}
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	rt := &runtime{opts: opts}

	rootCmd := &cobra.Command{
		Use:   "coactl",
		Short: "Operate the Odyssey chart of accounts",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			rt.close()
		},
	}
	rootCmd.SetOut(opts.Out)

	rootCmd.AddCommand(
		newMigrateCommand(rt),
		newSeedCommand(rt),
		newTreeCommand(rt),
		newCheckCommand(rt),
		newJobsCommand(rt),
	)
	return rootCmd
}

var errMigrateMemory = errors.New("migrate: STORE_DRIVER=memory has no schema")
