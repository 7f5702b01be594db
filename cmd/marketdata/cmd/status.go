package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketdata_backend/internal/feature/bhavcopy/adapters"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
	"marketdata_backend/internal/platform/db"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent ingestion attempts and database statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent attempts to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	gdb, err := db.OpenDB(dbPath)
	if err != nil {
		return err
	}

	uc := usecase.NewMarketUsecase(adapters.NewQueryRepository(gdb), adapters.NewStoreRepository(gdb))

	status, err := uc.Status(cmd.Context(), statusLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Recent ingestion attempts (last %d):\n", len(status.Logs))
	for _, l := range status.Logs {
		date := "-"
		if l.TradeDate != nil {
			date = l.TradeDate.Format("2006-01-02")
		}
		var records int64
		if l.RecordsProcessed != nil {
			records = *l.RecordsProcessed
		}
		fmt.Printf("  [%s] %s | %s | %d records | %s\n",
			l.Status, date, l.Source, records, l.CompletedAt.Format("2006-01-02 15:04:05"))
		if l.ErrorMessage != nil {
			fmt.Printf("      error: %s\n", *l.ErrorMessage)
		}
	}

	fmt.Println("\nDatabase statistics:")
	fmt.Printf("  companies:    %d\n", status.TotalCompanies)
	fmt.Printf("  daily prices: %d\n", status.TotalPriceRecords)

	return nil
}
