package entity

import "time"

// StockRecord is the decoder's normalized unit: one bhavcopy row mapped to a
// single currency unit and the trading date supplied by the caller. It is
// consumed immediately by the store and never persisted as-is.
type StockRecord struct {
	Symbol string
	Series string

	// ISIN is empty for rows from the modern export schema.
	ISIN string

	Open      float64
	High      float64
	Low       float64
	Close     float64
	Last      float64
	PrevClose float64

	TotalTradedQty   int64
	TotalTradedValue float64
	TotalTrades      int64

	// TradeDate is the date the caller requested, not anything parsed from the
	// row. Date columns differ between schema versions and are not trusted.
	TradeDate time.Time
}

// Bhavcopy is the decoded result of one downloaded file.
type Bhavcopy struct {
	// FileName names the upstream file the accepted strategy produced.
	FileName string

	Records []StockRecord

	// TotalRows and SkippedRows describe the decode pass for observability.
	// Skipped rows never fail a decode.
	TotalRows   int
	SkippedRows int
}
