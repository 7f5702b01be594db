package entity

import "time"

// Ingestion statuses recorded in the audit log.
const (
	IngestionStatusSuccess = "success"
	IngestionStatusPartial = "partial"
	IngestionStatusFailed  = "failed"
)

// IngestionLog is the immutable audit record of one ingestion attempt.
// It is appended once per attempt and never mutated or deleted.
type IngestionLog struct {
	ID     int64
	Source string

	// FileName is the upstream file name, when a download succeeded.
	FileName *string

	// TradeDate is the trading day the attempt targeted, when known.
	TradeDate *time.Time

	// RecordsProcessed counts rows actually stored. Nil when the attempt
	// failed before any storage happened.
	RecordsProcessed *int64

	// Status is one of IngestionStatusSuccess, IngestionStatusPartial or
	// IngestionStatusFailed.
	Status string

	ErrorMessage *string

	StartedAt   time.Time
	CompletedAt time.Time
}

// IngestionStatus is the status report read: recent audit entries plus current
// table totals.
type IngestionStatus struct {
	Logs              []IngestionLog
	TotalCompanies    int64
	TotalPriceRecords int64
}
