package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketdata_backend/internal/platform/db"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database schema and exit",
	Args:  cobra.NoArgs,
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	// OpenDB がマイグレーションまで実施する
	if _, err := db.OpenDB(dbPath); err != nil {
		return err
	}
	fmt.Println("Database initialized successfully")
	return nil
}
