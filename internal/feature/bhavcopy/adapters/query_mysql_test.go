package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketdata_backend/internal/feature/bhavcopy/domain"
	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
)

// seedCompany creates a test company in the database for testing.
func seedCompany(t *testing.T, db *gorm.DB, symbol, series string, name *string) *CompanyModel {
	t.Helper()

	m := &CompanyModel{Symbol: symbol, ISIN: "INE000A01001", Series: series, Name: name}
	require.NoError(t, db.Create(m).Error, "failed to seed company")
	return m
}

// seedPrice creates a daily price row for testing.
func seedPrice(t *testing.T, db *gorm.DB, companyID int64, date time.Time, last, prevClose float64, qty int64) *DailyPriceModel {
	t.Helper()

	m := &DailyPriceModel{
		CompanyID:        companyID,
		TradeDate:        date,
		OpenPrice:        prevClose,
		HighPrice:        last + 1,
		LowPrice:         prevClose - 1,
		ClosePrice:       last,
		LastPrice:        last,
		PrevClose:        prevClose,
		TotalTradedQty:   qty,
		TotalTradedValue: float64(qty) * last,
		TotalTrades:      qty / 10,
	}
	require.NoError(t, db.Create(m).Error, "failed to seed price")
	return m
}

func strPtr(s string) *string { return &s }

func TestQueryMySQL_Companies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	seedCompany(t, db, "RELIANCE", "EQ", strPtr("Reliance Industries"))
	seedCompany(t, db, "TCS", "EQ", strPtr("Tata Consultancy Services"))
	seedCompany(t, db, "TATASTEEL", "BE", strPtr("Tata Steel"))

	t.Run("no filter returns all ordered by symbol", func(t *testing.T) {
		companies, total, err := repo.Companies(ctx, "", "", 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, companies, 3)
		assert.Equal(t, "RELIANCE", companies[0].Symbol)
		assert.Equal(t, "TATASTEEL", companies[1].Symbol)
		assert.Equal(t, "TCS", companies[2].Symbol)
	})

	t.Run("search matches symbol and name case-insensitively", func(t *testing.T) {
		companies, total, err := repo.Companies(ctx, "tata", "", 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, companies, 2)
	})

	t.Run("series filter is exact", func(t *testing.T) {
		companies, total, err := repo.Companies(ctx, "", "BE", 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, companies, 1)
		assert.Equal(t, "TATASTEEL", companies[0].Symbol)
	})

	t.Run("total counts beyond the page", func(t *testing.T) {
		companies, total, err := repo.Companies(ctx, "", "", 2, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(3), total, "total must ignore limit")
		assert.Len(t, companies, 2)
	})
}

func TestQueryMySQL_Prices(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	c := seedCompany(t, db, "RELIANCE", "EQ", nil)
	for day := 13; day <= 17; day++ {
		seedPrice(t, db, c.ID, time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC), 100+float64(day), 100, 1000)
	}

	t.Run("newest first with symbol attached", func(t *testing.T) {
		prices, total, err := repo.Prices(ctx, "RELIANCE", nil, nil, 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, prices, 5)
		assert.Equal(t, "RELIANCE", prices[0].Symbol)
		assert.WithinDuration(t, time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), prices[0].TradeDate, 0)
		assert.WithinDuration(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), prices[4].TradeDate, 0)
	})

	t.Run("date range is inclusive on both ends", func(t *testing.T) {
		from := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

		prices, total, err := repo.Prices(ctx, "RELIANCE", &from, &to, 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, prices, 3)
		assert.WithinDuration(t, to, prices[0].TradeDate, 0)
		assert.WithinDuration(t, from, prices[2].TradeDate, 0)
	})

	t.Run("unknown symbol yields empty result", func(t *testing.T) {
		prices, total, err := repo.Prices(ctx, "NOSUCH", nil, nil, 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, prices)
	})
}

func TestQueryMySQL_LatestPrices(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	c1 := seedCompany(t, db, "RELIANCE", "EQ", nil)
	c2 := seedCompany(t, db, "TCS", "BE", nil)
	older := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	seedPrice(t, db, c1.ID, older, 100, 99, 500)
	seedPrice(t, db, c1.ID, latest, 105, 100, 500)
	seedPrice(t, db, c2.ID, latest, 2000, 1990, 900)

	t.Run("nil date resolves to the stored maximum", func(t *testing.T) {
		prices, total, err := repo.LatestPrices(ctx, nil, "", 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, prices, 2)
		for _, p := range prices {
			assert.WithinDuration(t, latest, p.TradeDate, 0)
		}
		// ordered by traded value descending
		assert.Equal(t, "TCS", prices[0].Symbol)
	})

	t.Run("explicit date picks that day only", func(t *testing.T) {
		prices, total, err := repo.LatestPrices(ctx, &older, "", 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, prices, 1)
		assert.Equal(t, "RELIANCE", prices[0].Symbol)
	})

	t.Run("series filter applies to the joined company", func(t *testing.T) {
		prices, total, err := repo.LatestPrices(ctx, &latest, "BE", 50, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, prices, 1)
		assert.Equal(t, "TCS", prices[0].Symbol)
	})
}

func TestQueryMySQL_LatestPrices_EmptyDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	prices, total, err := repo.LatestPrices(ctx, nil, "", 50, 0)

	require.NoError(t, err, "empty database is a valid empty result, not an error")
	assert.Equal(t, int64(0), total)
	assert.Empty(t, prices)
}

func TestQueryMySQL_SearchCompanies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	c1 := seedCompany(t, db, "TATASTEEL", "EQ", strPtr("Tata Steel"))
	seedCompany(t, db, "TATAMOTORS", "EQ", strPtr("Tata Motors"))
	seedPrice(t, db, c1.ID, time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), 140, 139, 100)
	seedPrice(t, db, c1.ID, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 145, 140, 100)

	results, total, err := repo.SearchCompanies(ctx, "tata", 50, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, results, 2)

	// TATAMOTORS has no prices at all but still appears
	assert.Equal(t, "TATAMOTORS", results[0].Symbol)
	assert.Nil(t, results[0].LatestPrice)
	assert.Nil(t, results[0].LatestDate)

	// TATASTEEL carries its most recent close, not the older one
	assert.Equal(t, "TATASTEEL", results[1].Symbol)
	require.NotNil(t, results[1].LatestPrice)
	assert.Equal(t, 145.0, *results[1].LatestPrice)
	require.NotNil(t, results[1].LatestDate)
	assert.WithinDuration(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *results[1].LatestDate, 0)
}

func TestQueryMySQL_TopPerformers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	latest := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)

	up := seedCompany(t, db, "UPSTOCK", "EQ", nil)
	down := seedCompany(t, db, "DOWNSTOCK", "EQ", nil)
	flat := seedCompany(t, db, "FLATSTOCK", "EQ", nil)
	newListing := seedCompany(t, db, "NEWLISTING", "EQ", nil)

	seedPrice(t, db, up.ID, latest, 110, 100, 1000)         // +10%
	seedPrice(t, db, down.ID, latest, 90, 100, 5000)        // -10%
	seedPrice(t, db, flat.ID, latest, 100, 100, 2000)       // 0%
	seedPrice(t, db, newListing.ID, latest, 50, 0, 9000)    // no prev close
	seedPrice(t, db, up.ID, older, 500, 100, 99999)         // older day must be ignored

	t.Run("gainers", func(t *testing.T) {
		performers, err := repo.TopPerformers(ctx, entity.MetricGainers, 10)

		require.NoError(t, err)
		require.Len(t, performers, 3, "rows without prev close are excluded")
		assert.Equal(t, "UPSTOCK", performers[0].Symbol)
		assert.InDelta(t, 10.0, performers[0].PriceChangePercent, 0.001)
		assert.InDelta(t, 10.0, performers[0].PriceChange, 0.001)
	})

	t.Run("losers", func(t *testing.T) {
		performers, err := repo.TopPerformers(ctx, entity.MetricLosers, 10)

		require.NoError(t, err)
		require.Len(t, performers, 3)
		assert.Equal(t, "DOWNSTOCK", performers[0].Symbol)
		assert.InDelta(t, -10.0, performers[0].PriceChangePercent, 0.001)
	})

	t.Run("volume includes rows without prev close", func(t *testing.T) {
		performers, err := repo.TopPerformers(ctx, entity.MetricVolume, 10)

		require.NoError(t, err)
		require.Len(t, performers, 4)
		assert.Equal(t, "NEWLISTING", performers[0].Symbol)
		assert.Equal(t, int64(9000), performers[0].Volume)
		assert.Equal(t, 0.0, performers[0].PriceChangePercent, "undefined percent reads as zero")
	})

	t.Run("limit caps the ranking", func(t *testing.T) {
		performers, err := repo.TopPerformers(ctx, entity.MetricVolume, 2)

		require.NoError(t, err)
		assert.Len(t, performers, 2)
	})

	t.Run("unknown metric is rejected", func(t *testing.T) {
		_, err := repo.TopPerformers(ctx, entity.Metric("bogus"), 10)

		assert.ErrorIs(t, err, domain.ErrUnknownMetric)
	})
}

func TestQueryMySQL_MarketOverview(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	t.Run("empty database", func(t *testing.T) {
		overview, err := repo.MarketOverview(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(0), overview.TotalCompanies)
		assert.Equal(t, int64(0), overview.TotalPriceRecords)
		assert.Nil(t, overview.LatestTradingDate)
		assert.Empty(t, overview.TopGainers)
	})

	t.Run("populated database", func(t *testing.T) {
		latest := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
		c1 := seedCompany(t, db, "RELIANCE", "EQ", nil)
		c2 := seedCompany(t, db, "TCS", "EQ", nil)
		seedPrice(t, db, c1.ID, latest, 110, 100, 1000)
		seedPrice(t, db, c2.ID, latest, 95, 100, 2000)

		overview, err := repo.MarketOverview(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(2), overview.TotalCompanies)
		assert.Equal(t, int64(2), overview.TotalPriceRecords)
		require.NotNil(t, overview.LatestTradingDate)
		assert.WithinDuration(t, latest, *overview.LatestTradingDate, 0)
		require.NotEmpty(t, overview.TopGainers)
		assert.Equal(t, "RELIANCE", overview.TopGainers[0].Symbol)
		require.NotEmpty(t, overview.TopLosers)
		assert.Equal(t, "TCS", overview.TopLosers[0].Symbol)
		require.NotEmpty(t, overview.MostActive)
		assert.Equal(t, "TCS", overview.MostActive[0].Symbol)
	})
}

func TestQueryMySQL_Ping(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewQueryRepository(db)

	assert.NoError(t, repo.Ping(context.Background()))
}
