package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"marketdata_backend/internal/feature/bhavcopy/domain"
	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
)

// queryMySQL は読み取り専用クエリのMySQL実装です。すべてのフィルタ条件は
// バインドパラメータで渡します（検索語の文字列連結は禁止）。
type queryMySQL struct {
	db *gorm.DB
}

var _ usecase.QueryRepository = (*queryMySQL)(nil)

// NewQueryRepository は指定されたDB接続でqueryMySQLリポジトリの新しいインスタンスを生成します。
func NewQueryRepository(db *gorm.DB) *queryMySQL {
	return &queryMySQL{db: db}
}

// priceRow は daily_prices と companies を結合した読み取り行です。
type priceRow struct {
	ID               int64
	CompanyID        int64
	Symbol           string
	TradeDate        time.Time
	OpenPrice        float64
	HighPrice        float64
	LowPrice         float64
	ClosePrice       float64
	LastPrice        float64
	PrevClose        float64
	TotalTradedQty   int64
	TotalTradedValue float64
	TotalTrades      int64
	CreatedAt        time.Time
}

const priceColumns = `daily_prices.id, daily_prices.company_id, companies.symbol,
daily_prices.trade_date, daily_prices.open_price, daily_prices.high_price,
daily_prices.low_price, daily_prices.close_price, daily_prices.last_price,
daily_prices.prev_close, daily_prices.total_traded_qty,
daily_prices.total_traded_value, daily_prices.total_trades, daily_prices.created_at`

func toDailyPrice(r priceRow) entity.DailyPrice {
	return entity.DailyPrice{
		ID:               r.ID,
		CompanyID:        r.CompanyID,
		Symbol:           r.Symbol,
		TradeDate:        r.TradeDate,
		OpenPrice:        r.OpenPrice,
		HighPrice:        r.HighPrice,
		LowPrice:         r.LowPrice,
		ClosePrice:       r.ClosePrice,
		LastPrice:        r.LastPrice,
		PrevClose:        r.PrevClose,
		TotalTradedQty:   r.TotalTradedQty,
		TotalTradedValue: r.TotalTradedValue,
		TotalTrades:      r.TotalTrades,
		CreatedAt:        r.CreatedAt,
	}
}

// Companies は企業一覧をシンボル昇順で返します。search はシンボル・社名への
// 大文字小文字を区別しない部分一致、series は完全一致です。
func (r *queryMySQL) Companies(ctx context.Context, search, series string, limit, offset int) ([]entity.Company, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&CompanyModel{})
		if search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(symbol) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
		}
		if series != "" {
			q = q.Where("series = ?", series)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []CompanyModel
	if err := filtered().
		Order("symbol ASC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	companies := make([]entity.Company, 0, len(models))
	for _, m := range models {
		companies = append(companies, entity.Company{
			ID:        m.ID,
			Symbol:    m.Symbol,
			ISIN:      m.ISIN,
			Series:    m.Series,
			Name:      m.Name,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		})
	}
	return companies, total, nil
}

// Prices は指定シンボルの価格履歴を取引日の降順で返します。
// from/to は両端を含みます。
func (r *queryMySQL) Prices(ctx context.Context, symbol string, from, to *time.Time, limit, offset int) ([]entity.DailyPrice, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Table("daily_prices").
			Joins("JOIN companies ON companies.id = daily_prices.company_id").
			Where("companies.symbol = ?", symbol)
		if from != nil {
			q = q.Where("daily_prices.trade_date >= ?", *from)
		}
		if to != nil {
			q = q.Where("daily_prices.trade_date <= ?", *to)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []priceRow
	if err := filtered().
		Select(priceColumns).
		Order("daily_prices.trade_date DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	prices := make([]entity.DailyPrice, 0, len(rows))
	for _, row := range rows {
		prices = append(prices, toDailyPrice(row))
	}
	return prices, total, nil
}

// LatestPrices はスナップショットを売買代金の降順で返します。date が nil の
// 場合は保存済みデータ中の最大取引日に解決します。データが1行もなければ
// 空の結果を返します。
func (r *queryMySQL) LatestPrices(ctx context.Context, date *time.Time, series string, limit, offset int) ([]entity.DailyPrice, int64, error) {
	if date == nil {
		latest, err := r.latestTradeDate(ctx)
		if err != nil {
			return nil, 0, err
		}
		if latest == nil {
			return []entity.DailyPrice{}, 0, nil
		}
		date = latest
	}

	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Table("daily_prices").
			Joins("JOIN companies ON companies.id = daily_prices.company_id").
			Where("daily_prices.trade_date = ?", *date)
		if series != "" {
			q = q.Where("companies.series = ?", series)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []priceRow
	if err := filtered().
		Select(priceColumns).
		Order("daily_prices.total_traded_value DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	prices := make([]entity.DailyPrice, 0, len(rows))
	for _, row := range rows {
		prices = append(prices, toDailyPrice(row))
	}
	return prices, total, nil
}

// latestTradeDate は保存済みデータ中の最大取引日を返します。価格行が
// 存在しない場合は nil を返します。
func (r *queryMySQL) latestTradeDate(ctx context.Context) (*time.Time, error) {
	var m DailyPriceModel
	err := r.db.WithContext(ctx).Order("trade_date DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m.TradeDate, nil
}

// searchRow は企業に直近価格を左結合した検索結果の行です。
type searchRow struct {
	ID          int64
	Symbol      string
	ISIN        string `gorm:"column:isin"`
	Series      string
	Name        *string
	LatestPrice *float64
	LatestDate  *time.Time
}

// SearchCompanies はシンボル・社名の部分一致に、各社の直近1件の価格行を
// 相関サブクエリで左結合して返します。価格のない企業も結果に含まれます。
func (r *queryMySQL) SearchCompanies(ctx context.Context, query string, limit, offset int) ([]entity.CompanyWithLatestPrice, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var total int64
	if err := r.db.WithContext(ctx).Model(&CompanyModel{}).
		Where("LOWER(symbol) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []searchRow
	if err := r.db.WithContext(ctx).Table("companies").
		Select(`companies.id, companies.symbol, companies.isin, companies.series, companies.name,
dp.close_price AS latest_price, dp.trade_date AS latest_date`).
		Joins(`LEFT JOIN daily_prices dp ON dp.company_id = companies.id
AND dp.trade_date = (SELECT MAX(trade_date) FROM daily_prices WHERE company_id = companies.id)`).
		Where("LOWER(companies.symbol) LIKE ? OR LOWER(companies.name) LIKE ?", pattern, pattern).
		Order("companies.symbol ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	results := make([]entity.CompanyWithLatestPrice, 0, len(rows))
	for _, row := range rows {
		results = append(results, entity.CompanyWithLatestPrice{
			ID:          row.ID,
			Symbol:      row.Symbol,
			ISIN:        row.ISIN,
			Series:      row.Series,
			Name:        row.Name,
			LatestPrice: row.LatestPrice,
			LatestDate:  row.LatestDate,
		})
	}
	return results, total, nil
}

// performerRow はランキングの読み取り行です。
type performerRow struct {
	Symbol             string
	Series             string
	LatestPrice        float64
	PrevClose          float64
	PriceChange        float64
	PriceChangePercent float64
	Volume             int64
}

// TopPerformers は保存済みデータ中の最大取引日1日のみを対象にランキングを
// 返します。gainers/losers は prev_close > 0 の行に限定して変化率で並べ、
// volume は出来高の降順です。メトリクスは閉じた集合で、並び順とフィルタへの
// 全域対応です。
func (r *queryMySQL) TopPerformers(ctx context.Context, metric entity.Metric, limit int) ([]entity.TopPerformer, error) {
	q := r.db.WithContext(ctx).Table("daily_prices").
		Select(`companies.symbol, companies.series,
daily_prices.last_price AS latest_price, daily_prices.prev_close,
(daily_prices.last_price - daily_prices.prev_close) AS price_change,
CASE WHEN daily_prices.prev_close > 0
THEN (daily_prices.last_price - daily_prices.prev_close) / daily_prices.prev_close * 100
ELSE 0 END AS price_change_percent,
daily_prices.total_traded_qty AS volume`).
		Joins("JOIN companies ON companies.id = daily_prices.company_id").
		Where("daily_prices.trade_date = (SELECT MAX(trade_date) FROM daily_prices)")

	switch metric {
	case entity.MetricGainers:
		q = q.Where("daily_prices.prev_close > 0").Order("price_change_percent DESC")
	case entity.MetricLosers:
		q = q.Where("daily_prices.prev_close > 0").Order("price_change_percent ASC")
	case entity.MetricVolume:
		q = q.Order("daily_prices.total_traded_qty DESC")
	default:
		return nil, domain.ErrUnknownMetric
	}

	var rows []performerRow
	if err := q.Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	performers := make([]entity.TopPerformer, 0, len(rows))
	for _, row := range rows {
		performers = append(performers, entity.TopPerformer{
			Symbol:             row.Symbol,
			Series:             row.Series,
			LatestPrice:        row.LatestPrice,
			PrevClose:          row.PrevClose,
			PriceChange:        row.PriceChange,
			PriceChangePercent: row.PriceChangePercent,
			Volume:             row.Volume,
		})
	}
	return performers, nil
}

// MarketOverview は件数、最新取引日、各ランキング上位5件を1つの複合読み取り
// として返します。
func (r *queryMySQL) MarketOverview(ctx context.Context) (entity.MarketOverview, error) {
	overview := entity.MarketOverview{}

	if err := r.db.WithContext(ctx).Model(&CompanyModel{}).Count(&overview.TotalCompanies).Error; err != nil {
		return entity.MarketOverview{}, err
	}
	if err := r.db.WithContext(ctx).Model(&DailyPriceModel{}).Count(&overview.TotalPriceRecords).Error; err != nil {
		return entity.MarketOverview{}, err
	}

	latest, err := r.latestTradeDate(ctx)
	if err != nil {
		return entity.MarketOverview{}, err
	}
	overview.LatestTradingDate = latest

	if overview.TopGainers, err = r.TopPerformers(ctx, entity.MetricGainers, 5); err != nil {
		return entity.MarketOverview{}, err
	}
	if overview.TopLosers, err = r.TopPerformers(ctx, entity.MetricLosers, 5); err != nil {
		return entity.MarketOverview{}, err
	}
	if overview.MostActive, err = r.TopPerformers(ctx, entity.MetricVolume, 5); err != nil {
		return entity.MarketOverview{}, err
	}

	return overview, nil
}

// Ping はストレージへの導通を確認します。
func (r *queryMySQL) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
