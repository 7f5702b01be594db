// Package cmd はmarketdata CLIのサブコマンドを定義します。
package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "marketdata",
	Short: "NSE equity market data ingestion and query server",
	Long: `marketdata downloads end-of-day equity bhavcopy files from the
National Stock Exchange of India, stores the parsed records in a local
database, and serves them over a JSON API.

Subcommands:
  ingest   - Download and store bhavcopy data for one or more dates
  status   - Show recent ingestion attempts and database statistics
  serve    - Start the HTTP API server
  init-db  - Create the database schema and exit`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./market_data.db", "path to SQLite database file (ignored when DB_HOST is set)")
}
