// Package dto はbhavcopyフィーチャーのHTTPレスポンスDTOを定義します。
package dto

import (
	"math"
	"time"

	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
)

const dateLayout = "2006-01-02"

// APIResponse はすべてのエンドポイント共通の成功/エラーエンベロープです。
type APIResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Success は成功エンベロープを生成します。
func Success(data any) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Error はエラーエンベロープを生成します。
func Error(message string) APIResponse {
	return APIResponse{
		Success:   false,
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// PaginationMeta はページネーション結果のメタ情報です。
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPaginationMeta は正規化済みの page/limit と総件数からメタ情報を計算します。
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Paginated はページネーション付きのデータ本体です。
type Paginated struct {
	Data       any            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// CompanyResponse は企業のレスポンスDTOです。
type CompanyResponse struct {
	ID        int64   `json:"id"`
	Symbol    string  `json:"symbol"`
	ISIN      string  `json:"isin"`
	Series    string  `json:"series"`
	Name      *string `json:"name"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// NewCompanyResponse はドメインエンティティからCompanyResponseを生成します。
func NewCompanyResponse(c entity.Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID,
		Symbol:    c.Symbol,
		ISIN:      c.ISIN,
		Series:    c.Series,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// StockPriceResponse は日次価格のレスポンスDTOです。
type StockPriceResponse struct {
	ID               int64   `json:"id"`
	CompanyID        int64   `json:"company_id"`
	Symbol           string  `json:"symbol"`
	TradeDate        string  `json:"trade_date"`
	OpenPrice        float64 `json:"open_price"`
	HighPrice        float64 `json:"high_price"`
	LowPrice         float64 `json:"low_price"`
	ClosePrice       float64 `json:"close_price"`
	LastPrice        float64 `json:"last_price"`
	PrevClose        float64 `json:"prev_close"`
	TotalTradedQty   int64   `json:"total_traded_qty"`
	TotalTradedValue float64 `json:"total_traded_value"`
	TotalTrades      int64   `json:"total_trades"`
	CreatedAt        string  `json:"created_at"`
}

// NewStockPriceResponse はドメインエンティティからStockPriceResponseを生成します。
func NewStockPriceResponse(p entity.DailyPrice) StockPriceResponse {
	return StockPriceResponse{
		ID:               p.ID,
		CompanyID:        p.CompanyID,
		Symbol:           p.Symbol,
		TradeDate:        p.TradeDate.Format(dateLayout),
		OpenPrice:        p.OpenPrice,
		HighPrice:        p.HighPrice,
		LowPrice:         p.LowPrice,
		ClosePrice:       p.ClosePrice,
		LastPrice:        p.LastPrice,
		PrevClose:        p.PrevClose,
		TotalTradedQty:   p.TotalTradedQty,
		TotalTradedValue: p.TotalTradedValue,
		TotalTrades:      p.TotalTrades,
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// SearchResultResponse は検索結果（企業+直近価格）のレスポンスDTOです。
type SearchResultResponse struct {
	Symbol      string   `json:"symbol"`
	ISIN        string   `json:"isin"`
	Series      string   `json:"series"`
	Name        *string  `json:"name"`
	LatestPrice *float64 `json:"latest_price"`
	LatestDate  *string  `json:"latest_date"`
}

// NewSearchResultResponse はドメインエンティティからSearchResultResponseを生成します。
func NewSearchResultResponse(c entity.CompanyWithLatestPrice) SearchResultResponse {
	res := SearchResultResponse{
		Symbol:      c.Symbol,
		ISIN:        c.ISIN,
		Series:      c.Series,
		Name:        c.Name,
		LatestPrice: c.LatestPrice,
	}
	if c.LatestDate != nil {
		d := c.LatestDate.Format(dateLayout)
		res.LatestDate = &d
	}
	return res
}

// TopPerformerResponse はランキング行のレスポンスDTOです。
type TopPerformerResponse struct {
	Symbol             string  `json:"symbol"`
	Series             string  `json:"series"`
	LatestPrice        float64 `json:"latest_price"`
	PrevClose          float64 `json:"prev_close"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
	Volume             int64   `json:"volume"`
}

// NewTopPerformerResponses はランキングをまとめてDTOへ変換します。
func NewTopPerformerResponses(performers []entity.TopPerformer) []TopPerformerResponse {
	out := make([]TopPerformerResponse, 0, len(performers))
	for _, p := range performers {
		out = append(out, TopPerformerResponse{
			Symbol:             p.Symbol,
			Series:             p.Series,
			LatestPrice:        p.LatestPrice,
			PrevClose:          p.PrevClose,
			PriceChange:        p.PriceChange,
			PriceChangePercent: p.PriceChangePercent,
			Volume:             p.Volume,
		})
	}
	return out
}

// MarketOverviewResponse は市場全体の集計レスポンスDTOです。
type MarketOverviewResponse struct {
	TotalCompanies    int64                  `json:"total_companies"`
	TotalPriceRecords int64                  `json:"total_price_records"`
	LatestTradingDate *string                `json:"latest_trading_date"`
	TopGainers        []TopPerformerResponse `json:"top_gainers"`
	TopLosers         []TopPerformerResponse `json:"top_losers"`
	MostActive        []TopPerformerResponse `json:"most_active"`
}

// NewMarketOverviewResponse はドメインエンティティからMarketOverviewResponseを生成します。
func NewMarketOverviewResponse(o entity.MarketOverview) MarketOverviewResponse {
	res := MarketOverviewResponse{
		TotalCompanies:    o.TotalCompanies,
		TotalPriceRecords: o.TotalPriceRecords,
		TopGainers:        NewTopPerformerResponses(o.TopGainers),
		TopLosers:         NewTopPerformerResponses(o.TopLosers),
		MostActive:        NewTopPerformerResponses(o.MostActive),
	}
	if o.LatestTradingDate != nil {
		d := o.LatestTradingDate.Format(dateLayout)
		res.LatestTradingDate = &d
	}
	return res
}

// IngestionLogResponse は監査ログのレスポンスDTOです。
type IngestionLogResponse struct {
	ID               int64   `json:"id"`
	Source           string  `json:"source"`
	FileName         *string `json:"file_name"`
	TradeDate        *string `json:"trade_date"`
	RecordsProcessed *int64  `json:"records_processed"`
	Status           string  `json:"status"`
	ErrorMessage     *string `json:"error_message"`
	StartedAt        string  `json:"started_at"`
	CompletedAt      string  `json:"completed_at"`
}

// IngestionStatusResponse はステータス報告のレスポンスDTOです。
type IngestionStatusResponse struct {
	Logs              []IngestionLogResponse `json:"logs"`
	TotalCompanies    int64                  `json:"total_companies"`
	TotalPriceRecords int64                  `json:"total_price_records"`
}

// NewIngestionStatusResponse はドメインエンティティからIngestionStatusResponseを生成します。
func NewIngestionStatusResponse(s entity.IngestionStatus) IngestionStatusResponse {
	logs := make([]IngestionLogResponse, 0, len(s.Logs))
	for _, l := range s.Logs {
		lr := IngestionLogResponse{
			ID:               l.ID,
			Source:           l.Source,
			FileName:         l.FileName,
			RecordsProcessed: l.RecordsProcessed,
			Status:           l.Status,
			ErrorMessage:     l.ErrorMessage,
			StartedAt:        l.StartedAt.UTC().Format(time.RFC3339),
			CompletedAt:      l.CompletedAt.UTC().Format(time.RFC3339),
		}
		if l.TradeDate != nil {
			d := l.TradeDate.Format(dateLayout)
			lr.TradeDate = &d
		}
		logs = append(logs, lr)
	}
	return IngestionStatusResponse{
		Logs:              logs,
		TotalCompanies:    s.TotalCompanies,
		TotalPriceRecords: s.TotalPriceRecords,
	}
}

// HealthResponse はヘルスチェックのレスポンスDTOです。
type HealthResponse struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	DatabaseStatus string `json:"database_status"`
	Version        string `json:"version"`
}
