package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/db"
	"github.com/odyssey-erp/odyssey-coa/jobs"
)

// ErrViolationsFound is returned by check --fail when the chart is inconsistent.
var ErrViolationsFound = jobs.ErrIntegrityViolations

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rt.config()
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return errMigrateMemory
			}
			version, err := db.Migrate(cfg.PGDSN)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func newSeedCommand(rt *runtime) *cobra.Command {
	var actorID int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default root accounts that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := rt.connect(cmd.Context())
			if err != nil {
				return err
			}
			created, err := services.Accounts.SeedDefaults(cmd.Context(), actorID)
			if err != nil {
				return fmt.Errorf("seeding default chart: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d root accounts\n", created)
			return nil
		},
	}
	cmd.Flags().Int64Var(&actorID, "actor", 0, "actor id recorded in the audit log")
	return cmd
}

func newTreeCommand(rt *runtime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := rt.connect(cmd.Context())
			if err != nil {
				return err
			}
			nodes, err := services.Accounts.Tree(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(nodes)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tNATURE\tCHILDREN")
			for _, n := range nodes {
				indent := strings.Repeat("  ", n.Level-1)
				fmt.Fprintf(tw, "%s%s\t%s\t%s\t%d\n", indent, n.Code, n.NameEn, n.Nature, n.ChildCount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}

func newCheckCommand(rt *runtime) *cobra.Command {
	var (
		asJSON bool
		fail   bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the account forest and linked entity references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := rt.connect(cmd.Context())
			if err != nil {
				return err
			}
			job := jobs.NewCOAIntegrityJob(services.Accounts, services.Linked, rt.log(), nil)
			report, err := job.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if err := json.NewEncoder(out).Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "checked %d accounts and %d linked entities\n", report.Accounts, report.Entities)
				for _, v := range report.Violations {
					fmt.Fprintf(out, "  %s\n", v)
				}
				if len(report.Violations) == 0 {
					fmt.Fprintln(out, "no violations")
				}
			}
			if fail && len(report.Violations) > 0 {
				return fmt.Errorf("%w: %d", ErrViolationsFound, len(report.Violations))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	cmd.Flags().BoolVar(&fail, "fail", false, "exit non-zero when violations are found")
	return cmd
}

func newJobsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	open := func() (*JobsCLI, error) {
		cfg, err := rt.config()
		if err != nil {
			return nil, err
		}
		return NewJobsCLI(cfg.RedisAddr)
	}

	var failOnViolation bool
	trigger := &cobra.Command{
		Use:   "trigger <task>",
		Short: "Enqueue a job (" + jobs.TaskCOAIntegrity + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jc, err := open()
			if err != nil {
				return err
			}
			defer jc.Close()
			info, err := jc.Trigger(cmd.Context(), args[0], failOnViolation)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	trigger.Flags().BoolVar(&failOnViolation, "fail-on-violation", false, "mark the task failed when violations are found")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jc, err := open()
			if err != nil {
				return err
			}
			defer jc.Close()
			s, err := jc.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(s)
		},
	}

	var size int
	scheduled := &cobra.Command{
		Use:   "scheduled",
		Short: "List scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jc, err := open()
			if err != nil {
				return err
			}
			defer jc.Close()
			tasks, err := jc.ListScheduled(cmd.Context(), size)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Type, t.NextProcessAt.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
	scheduled.Flags().IntVar(&size, "size", 10, "page size")

	cmd.AddCommand(trigger, stats, scheduled)
	return cmd
}
