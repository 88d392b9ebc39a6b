package main

import (
	"fmt"
	"path/filepath"

	"github.com/holdfast-dev/holdfast/internal/db"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the storage database",
		Long:  "Opens the storage database, migrates all tables, and runs the one-time index and part-type backfills.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	return cmd
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := openStore(cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables in %s\n",
		len(db.AllModels()), filepath.Join(cfg.DataDir, db.FileName))
	return nil
}
