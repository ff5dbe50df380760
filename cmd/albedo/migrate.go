package main

import (
	"github.com/spf13/cobra"

	"github.com/albedo-dev/albedo/internal/config"
	"github.com/albedo-dev/albedo/internal/database"
	"github.com/albedo-dev/albedo/internal/logutil"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logutil.Setup(cfg.Logging, cfg.IsDevelopment())
		return database.MigrateUp(cfg.Database, migrationsDir)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logutil.Setup(cfg.Logging, cfg.IsDevelopment())
		return database.MigrateDown(cfg.Database, migrationsDir)
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "directory holding migration files")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
