// Package entity defines the domain entities for the bhavcopy feature.
package entity

import "time"

// Company represents a listed company identified by its exchange ticker symbol.
// The symbol is the stable natural key: re-ingestion updates ISIN and series in
// place instead of creating a new row.
type Company struct {
	// ID is the surrogate primary key.
	ID int64

	// Symbol is the exchange ticker, unique and case-sensitive as published.
	Symbol string

	// ISIN is the international security identifier. Empty for rows ingested
	// from the modern export schema, which does not carry it.
	ISIN string

	// Series is the exchange listing category code (e.g. "EQ").
	Series string

	// Name is the company name. Nil when not yet known from any source.
	Name *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyWithLatestPrice is a read-only search result: a company joined with
// its single most recent daily price, if any exists.
type CompanyWithLatestPrice struct {
	ID          int64
	Symbol      string
	ISIN        string
	Series      string
	Name        *string
	LatestPrice *float64
	LatestDate  *time.Time
}
