// Package nse provides the download client and CSV decoder for NSE bhavcopy
// end-of-day files.
package nse

import (
	"os"
	"time"
)

// Config holds configuration for the NSE download client.
type Config struct {
	BaseURL     string        // Main site base URL (e.g. "https://www.nseindia.com")
	ArchivesURL string        // Archives host base URL (e.g. "https://nsearchives.nseindia.com")
	Timeout     time.Duration // Per-attempt HTTP timeout
}

// LoadConfig loads NSE client configuration from environment variables,
// falling back to the public endpoints.
func LoadConfig() Config {
	cfg := Config{
		BaseURL:     os.Getenv("NSE_BASE_URL"),
		ArchivesURL: os.Getenv("NSE_ARCHIVES_URL"),
		Timeout:     15 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.nseindia.com"
	}
	if cfg.ArchivesURL == "" {
		cfg.ArchivesURL = "https://nsearchives.nseindia.com"
	}
	return cfg
}
