// Package adapters はbhavcopyフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
)

// storeMySQL は書き込み側リポジトリのMySQL実装です。
// Company と DailyPrice への書き込みはこのリポジトリが専有します。
type storeMySQL struct {
	db *gorm.DB
}

var _ usecase.StoreRepository = (*storeMySQL)(nil)
var _ usecase.IngestionLogRepository = (*storeMySQL)(nil)

// NewStoreRepository は指定されたDB接続でstoreMySQLリポジトリの新しいインスタンスを生成します。
func NewStoreRepository(db *gorm.DB) *storeMySQL {
	return &storeMySQL{db: db}
}

// CompanyModel は companies テーブルの行です。symbol が自然キーです。
type CompanyModel struct {
	ID        int64     `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:32;not null;uniqueIndex"`
	ISIN      string    `gorm:"column:isin;size:16"`
	Series    string    `gorm:"size:8"`
	Name      *string   `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CompanyModel) TableName() string {
	return "companies"
}

// DailyPriceModel は daily_prices テーブルの行です。
// (company_id, trade_date) で一意です。
type DailyPriceModel struct {
	ID        int64     `gorm:"primaryKey"`
	CompanyID int64     `gorm:"not null;uniqueIndex:price_company_date,priority:1"`
	TradeDate time.Time `gorm:"not null;uniqueIndex:price_company_date,priority:2"`

	OpenPrice  float64 `gorm:"not null"`
	HighPrice  float64 `gorm:"not null"`
	LowPrice   float64 `gorm:"not null"`
	ClosePrice float64 `gorm:"not null"`
	LastPrice  float64 `gorm:"not null"`
	PrevClose  float64 `gorm:"not null"`

	TotalTradedQty   int64   `gorm:"not null;default:0"`
	TotalTradedValue float64 `gorm:"not null;default:0"`
	TotalTrades      int64   `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DailyPriceModel) TableName() string {
	return "daily_prices"
}

// IngestionLogModel は ingestion_log テーブルの行です。追記専用です。
type IngestionLogModel struct {
	ID               int64      `gorm:"primaryKey"`
	Source           string     `gorm:"size:32;not null"`
	FileName         *string    `gorm:"size:255"`
	TradeDate        *time.Time
	RecordsProcessed *int64
	Status           string  `gorm:"size:16;not null"`
	ErrorMessage     *string `gorm:"size:1024"`
	StartedAt        time.Time
	CompletedAt      time.Time `gorm:"index"`
}

func (IngestionLogModel) TableName() string {
	return "ingestion_log"
}

// UpsertCompany はシンボルで企業を検索し、存在すれば isin/series を更新して
// 既存IDを、なければ挿入して新しいIDを返します。繰り返しの取り込みでも
// シンボルごとに1行を維持します。
func (r *storeMySQL) UpsertCompany(ctx context.Context, symbol, isin, series string) (int64, error) {
	var m CompanyModel
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&m).Error

	if err == nil {
		if err := r.db.WithContext(ctx).Model(&m).
			Updates(map[string]any{"isin": isin, "series": series}).Error; err != nil {
			return 0, err
		}
		return m.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	m = CompanyModel{Symbol: symbol, ISIN: isin, Series: series}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// UpsertDailyPrice は (company_id, trade_date) をキーに価格行を挿入または
// 全置換します。同じ日の再取り込みは最後に取り込んだ値で上書きされます。
func (r *storeMySQL) UpsertDailyPrice(ctx context.Context, companyID int64, rec entity.StockRecord) error {
	m := DailyPriceModel{
		CompanyID:        companyID,
		TradeDate:        rec.TradeDate,
		OpenPrice:        rec.Open,
		HighPrice:        rec.High,
		LowPrice:         rec.Low,
		ClosePrice:       rec.Close,
		LastPrice:        rec.Last,
		PrevClose:        rec.PrevClose,
		TotalTradedQty:   rec.TotalTradedQty,
		TotalTradedValue: rec.TotalTradedValue,
		TotalTrades:      rec.TotalTrades,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open_price", "high_price", "low_price", "close_price", "last_price",
			"prev_close", "total_traded_qty", "total_traded_value", "total_trades",
		}),
	}).Create(&m).Error
}

// StoreRecords はレコードを順に企業→価格の順で upsert し、成功件数を返します。
// いずれかの永続化に失敗した場合はそこでバッチを打ち切り、それまでの件数と
// エラーを返します。途中まで保存された行は残りますが、upsert は再実行しても
// 安全なため、同じ日の再取り込みで回復できます。
func (r *storeMySQL) StoreRecords(ctx context.Context, records []entity.StockRecord) (int, error) {
	stored := 0
	for _, rec := range records {
		companyID, err := r.UpsertCompany(ctx, rec.Symbol, rec.ISIN, rec.Series)
		if err != nil {
			return stored, fmt.Errorf("upsert company %s: %w", rec.Symbol, err)
		}

		if err := r.UpsertDailyPrice(ctx, companyID, rec); err != nil {
			return stored, fmt.Errorf("upsert daily price %s %s: %w",
				rec.Symbol, rec.TradeDate.Format("2006-01-02"), err)
		}
		stored++
	}

	slog.Info("stored stock records", "count", stored)
	return stored, nil
}

// LogIngestion は監査ログを1件追記します。
func (r *storeMySQL) LogIngestion(ctx context.Context, entry entity.IngestionLog) error {
	m := IngestionLogModel{
		Source:           entry.Source,
		FileName:         entry.FileName,
		TradeDate:        entry.TradeDate,
		RecordsProcessed: entry.RecordsProcessed,
		Status:           entry.Status,
		ErrorMessage:     entry.ErrorMessage,
		StartedAt:        entry.StartedAt,
		CompletedAt:      entry.CompletedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

// IngestionLogs は完了時刻の降順で直近の監査ログを返します。
func (r *storeMySQL) IngestionLogs(ctx context.Context, limit int) ([]entity.IngestionLog, error) {
	var models []IngestionLogModel
	if err := r.db.WithContext(ctx).
		Order("completed_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	logs := make([]entity.IngestionLog, 0, len(models))
	for _, m := range models {
		logs = append(logs, entity.IngestionLog{
			ID:               m.ID,
			Source:           m.Source,
			FileName:         m.FileName,
			TradeDate:        m.TradeDate,
			RecordsProcessed: m.RecordsProcessed,
			Status:           m.Status,
			ErrorMessage:     m.ErrorMessage,
			StartedAt:        m.StartedAt,
			CompletedAt:      m.CompletedAt,
		})
	}
	return logs, nil
}

// TableCounts は企業数と価格行数を返します。
func (r *storeMySQL) TableCounts(ctx context.Context) (int64, int64, error) {
	var companies, prices int64
	if err := r.db.WithContext(ctx).Model(&CompanyModel{}).Count(&companies).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&DailyPriceModel{}).Count(&prices).Error; err != nil {
		return 0, 0, err
	}
	return companies, prices, nil
}
