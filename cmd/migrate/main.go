// Command migrate applies, inspects and rolls back schema migrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"grapes/internal/config"
	"grapes/internal/database"
	"grapes/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type session struct {
	cfg    *config.Config
	db     *gorm.DB
	ctx    context.Context
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the database schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the command")

	// withDB opens the database and hands a bounded session to fn.
	withDB := func(fn func(s *session, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return fn(&session{
				cfg:    cfg,
				db:     db,
				ctx:    ctx,
				logger: middleware.Logger.With(slog.String("command", cmd.Name())),
			}, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending SQL migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(s *session, _ []string) error {
				if err := database.RunMigrations(s.ctx, s.db); err != nil {
					return fmt.Errorf("sql migrations failed: %w", err)
				}
				s.logger.Info("sql migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "auto",
			Short: "Sync the schema from the models (not allowed in production)",
			Args:  cobra.NoArgs,
			RunE: withDB(func(s *session, _ []string) error {
				if s.cfg.IsProduction() {
					return errors.New("auto schema mode is not allowed in production")
				}
				s.cfg.DBSchemaMode = database.SchemaModeAuto
				if err := database.ApplySchema(s.ctx, s.db, s.cfg); err != nil {
					return fmt.Errorf("auto schema apply failed: %w", err)
				}
				s.logger.Info("automigrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(s *session, _ []string) error {
				status, err := database.GetSchemaStatus(s.ctx, s.db, s.cfg)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}
				s.logger.Info("schema status",
					slog.String("mode", status.Mode),
					slog.String("env", status.Environment),
					slog.Bool("run_sql", status.WillRunSQL),
					slog.Bool("run_auto", status.WillRunAutoMigrate),
					slog.Int("applied", len(status.AppliedVersions)),
					slog.Int("pending", len(status.PendingMigrations)),
				)
				for _, m := range status.PendingMigrations {
					s.logger.Info("pending migration", slog.String("migration", m.String()))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the bundled migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				for _, m := range database.GetMigrations() {
					fmt.Fprintln(cmd.OutOrStdout(), m.String())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "down <version>",
			Short: "Roll back one migration",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(s *session, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				if err := database.RollbackMigration(s.ctx, s.db, version); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				s.logger.Info("migration rolled back", slog.Int("version", version))
				return nil
			}),
		},
	)

	return root
}
