package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blogem/entrylog/config"
	"github.com/blogem/entrylog/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Prepare the store schema and exit",
	Long: `Apply pending SQLite migrations, or create the MongoDB indexes,
for the configured store and exit.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(settings)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := newLogger(settings)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	conn, err := database.Open(ctx, cfg.StoreURI, cfg.StoreDatabase)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(ctx); err != nil {
		return err
	}
	if err := conn.Migrate(ctx); err != nil {
		return err
	}

	log.Info(ctx, "store schema up to date", "kind", conn.Kind)
	return nil
}
