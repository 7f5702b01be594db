package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketdata_backend/internal/app/router"
	"marketdata_backend/internal/feature/bhavcopy/adapters"
	"marketdata_backend/internal/feature/bhavcopy/transport/handler"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
	"marketdata_backend/internal/platform/db"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "bind address")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	gdb, err := db.OpenDB(dbPath)
	if err != nil {
		return err
	}

	// Repository
	queryRepo := adapters.NewQueryRepository(gdb)
	storeRepo := adapters.NewStoreRepository(gdb)

	// Usecase
	marketUC := usecase.NewMarketUsecase(queryRepo, storeRepo)

	// Handler
	marketH := handler.NewMarketHandler(marketUC)

	// ルータ生成
	r := router.NewRouter(marketH)

	addr := fmt.Sprintf("%s:%d", serveHost, servePort)
	fmt.Printf("Starting server on http://%s\n", addr)
	return r.Run(addr)
}
