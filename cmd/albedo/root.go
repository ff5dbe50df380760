package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "albedo",
	Short: "Albedo API server",
	Long: `Albedo is a multi-tenant CRUD REST backend with JWT authentication
and a generic list pipeline (pagination, filtering, sorting) over
PostgreSQL.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
