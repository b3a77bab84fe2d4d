package cli

import (
	"context"
	"fmt"

	"skill-swap/internal/config"
	"skill-swap/internal/database/migration"
	dbpostgres "skill-swap/internal/database/postgres"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), rootOpts)
		},
	}
}

func migrate(ctx context.Context, opts *RootOptions) error {
	cfg, log, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Database.StoreDriver != config.StoreDriverPostgres {
		return fmt.Errorf("migrate requires STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, cfg.Database.StoreDriver)
	}

	db, err := dbpostgres.Connect(ctx, cfg.Database, log.Named("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := (migration.Runner{Logger: log.Named("migrate")}).Run(ctx, db.SQLDB()); err != nil {
		return err
	}
	log.Info("migrations up to date")
	return nil
}
