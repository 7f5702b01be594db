package main

import (
	"os"

	"marketdata_backend/cmd/marketdata/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
