package main

import (
	"fmt"

	"multisig-registry/config"
	pgStorage "multisig-registry/internal/adapter/storage/postgres"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.StoragePostgres {
		return fmt.Errorf("migrate requires storage.driver=%s, got %q", config.StoragePostgres, cfg.Storage.Driver)
	}

	ctx := cmd.Context()
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := pgStorage.Migrate(ctx, pool, log)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
	}
	return nil
}
