// Package domain defines domain-level errors for the bhavcopy feature.
package domain

import "errors"

// Domain errors for ingestion and query operations.
// These represent business failures and are mapped to user-facing responses by
// the transport layer.
var (
	// ErrAllStrategiesFailed indicates that every download strategy was tried
	// for a date and none produced an acceptable bhavcopy file.
	ErrAllStrategiesFailed = errors.New("all bhavcopy download strategies failed")

	// ErrNoRecords indicates that a downloaded file decoded to zero valid
	// rows. The download itself succeeded, but the date has no usable data.
	ErrNoRecords = errors.New("no valid records found in bhavcopy data")

	// ErrInvalidDate indicates a malformed caller-supplied date string.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrUnknownMetric indicates a top-performers metric outside the closed
	// gainers/losers/volume set.
	ErrUnknownMetric = errors.New("unknown metric, expected gainers, losers or volume")

	// ErrEmptyQuery indicates a search request without a query term.
	ErrEmptyQuery = errors.New("search query must not be empty")
)
