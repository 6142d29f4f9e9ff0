package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/kbase/internal/config"
	"github.com/kailas-cloud/kbase/internal/db/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the Postgres schema",
		Long: `Applies the idempotent document schema to the database named by
database.dsn. Only the postgres driver keeps a schema; for other drivers
this is a no-op.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		cmd.Printf("driver %q has no schema, nothing to migrate\n", cfg.Database.Driver)
		return nil
	}

	ctx := cmd.Context()
	pool, err := openPostgres(ctx, cfg, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()

	tables := postgres.NewTables(cfg.Database.TablePrefix)
	if err := postgres.Migrate(ctx, pool, tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	cmd.Printf("schema up to date (documents table %s)\n", tables.Documents)
	return nil
}

func openPostgres(ctx context.Context, cfg config.Config, readiness time.Duration) (*pgxpool.Pool, error) {
	pool, err := postgres.Connect(ctx, postgres.Config{
		DSN:         cfg.Database.DSN,
		MaxConns:    cfg.Database.MaxConns,
		TablePrefix: cfg.Database.TablePrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := postgres.WaitForReady(ctx, pool, readiness); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres not ready: %w", err)
	}
	return pool, nil
}
