package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"marketdata_backend/internal/feature/bhavcopy/adapters"
	"marketdata_backend/internal/feature/bhavcopy/adapters/nse"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
	"marketdata_backend/internal/platform/db"
	platformhttp "marketdata_backend/internal/platform/http"
	"marketdata_backend/internal/shared/ratelimiter"
)

// 取引所サイトへの負荷を抑えるためのダウンロード回数上限です。
const downloadsPerMinute = 30

var (
	ingestSource string
	ingestDate   string
	ingestFrom   string
	ingestTo     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download and store bhavcopy data",
	Long: `Download end-of-day bhavcopy files and store the parsed records.

Examples:
  marketdata ingest                                  # latest trading day
  marketdata ingest --date today
  marketdata ingest --date 2025-01-15
  marketdata ingest --from 2025-01-01 --to 2025-01-31`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestSource, "source", "nse", "data source")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "single date (YYYY-MM-DD or \"today\")")
	ingestCmd.Flags().StringVar(&ingestFrom, "from", "", "range start (YYYY-MM-DD, requires --to)")
	ingestCmd.Flags().StringVar(&ingestTo, "to", "", "range end (YYYY-MM-DD, requires --from)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestSource != "nse" {
		return fmt.Errorf("unsupported source %q (only \"nse\" is available)", ingestSource)
	}

	gdb, err := db.OpenDB(dbPath)
	if err != nil {
		return err
	}

	cfg := nse.LoadConfig()
	client := nse.NewClient(cfg, platformhttp.NewHTTPClient(cfg.Timeout))
	store := adapters.NewStoreRepository(gdb)
	limiter := ratelimiter.NewRateLimiter(downloadsPerMinute, time.Minute)
	uc := usecase.NewIngestUsecase(client, store, limiter)

	dates, err := uc.ResolveDates(ingestDate, ingestFrom, ingestTo)
	if err != nil {
		return err
	}

	fmt.Printf("Processing %d trading date(s)\n", len(dates))

	results := uc.IngestDates(cmd.Context(), dates)
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("  %s: failed: %v\n", res.Date.Format("2006-01-02"), res.Err)
			continue
		}
		fmt.Printf("  %s: stored %d records\n", res.Date.Format("2006-01-02"), res.Records)
	}

	return nil
}
