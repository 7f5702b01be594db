package entity

import "time"

// DailyPrice is one end-of-day price row for a company. At most one row exists
// per (company, trade date); re-ingestion fully replaces the row.
type DailyPrice struct {
	ID        int64
	CompanyID int64

	// Symbol is carried from the joined company for read paths.
	Symbol string

	TradeDate time.Time

	OpenPrice  float64
	HighPrice  float64
	LowPrice   float64
	ClosePrice float64
	LastPrice  float64
	PrevClose  float64

	TotalTradedQty   int64
	TotalTradedValue float64
	TotalTrades      int64

	CreatedAt time.Time
}
