package entity

import (
	"time"

	"marketdata_backend/internal/feature/bhavcopy/domain"
)

// Metric selects a market-wide ranking. It is a closed set: unknown values are
// rejected at the boundary by ParseMetric, never at query-build time.
type Metric string

const (
	// MetricGainers ranks by percent change descending, prev_close > 0 only.
	MetricGainers Metric = "gainers"
	// MetricLosers ranks by percent change ascending, prev_close > 0 only.
	MetricLosers Metric = "losers"
	// MetricVolume ranks by traded quantity descending.
	MetricVolume Metric = "volume"
)

// ParseMetric maps a caller-supplied string onto the closed Metric set.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricGainers, MetricLosers, MetricVolume:
		return Metric(s), nil
	}
	return "", domain.ErrUnknownMetric
}

// TopPerformer is a derived ranking row for the most recent trade date.
// Computed at query time, never persisted.
type TopPerformer struct {
	Symbol             string
	Series             string
	LatestPrice        float64
	PrevClose          float64
	PriceChange        float64
	PriceChangePercent float64
	Volume             int64
}

// MarketOverview is a composite market-wide read: totals, the latest trading
// date present in storage and the top five of each ranking.
type MarketOverview struct {
	TotalCompanies    int64
	TotalPriceRecords int64
	LatestTradingDate *time.Time
	TopGainers        []TopPerformer
	TopLosers         []TopPerformer
	MostActive        []TopPerformer
}
