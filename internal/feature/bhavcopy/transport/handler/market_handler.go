// Package handler はbhavcopyフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/bhavcopy/domain"
	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
	"marketdata_backend/internal/feature/bhavcopy/transport/http/dto"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
)

// serverVersion はヘルスチェックで報告するアプリケーションバージョンです。
const serverVersion = "0.1.0"

// MarketUsecase は市場データ照会のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketUsecase interface {
	ListCompanies(ctx context.Context, search, series string, p usecase.Pagination) ([]entity.Company, int64, error)
	ListPrices(ctx context.Context, symbol, fromDate, toDate string, p usecase.Pagination) ([]entity.DailyPrice, int64, error)
	LatestPrices(ctx context.Context, date, series string, p usecase.Pagination) ([]entity.DailyPrice, int64, error)
	Search(ctx context.Context, query string, p usecase.Pagination) ([]entity.CompanyWithLatestPrice, int64, error)
	TopPerformers(ctx context.Context, metric string, limit int) ([]entity.TopPerformer, error)
	Overview(ctx context.Context) (entity.MarketOverview, error)
	Status(ctx context.Context, limit int) (entity.IngestionStatus, error)
	Ping(ctx context.Context) error
}

// MarketHandler は市場データのHTTPリクエストを処理します。
type MarketHandler struct {
	uc MarketUsecase
}

// NewMarketHandler は指定されたusecaseでMarketHandlerの新しいインスタンスを生成します。
func NewMarketHandler(uc MarketUsecase) *MarketHandler {
	return &MarketHandler{uc: uc}
}

// pagination はクエリ文字列からpage/limitを取り出します。正規化はusecase側で行います。
func pagination(c *gin.Context) usecase.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	return usecase.Pagination{Page: page, Limit: limit}
}

// statusFor はドメインエラーをHTTPステータスコードへ対応付けます。
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrUnknownMetric),
		errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), dto.Error(err.Error()))
}

// GetCompanies は企業の一覧をページネーション付きで返します。
//
// エンドポイント例:
// GET /api/companies?search=REL&series=EQ&page=1&limit=50
func (h *MarketHandler) GetCompanies(c *gin.Context) {
	p := pagination(c)
	companies, total, err := h.uc.ListCompanies(c.Request.Context(), c.Query("search"), c.Query("series"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.CompanyResponse, 0, len(companies))
	for _, x := range companies {
		out = append(out, dto.NewCompanyResponse(x))
	}

	norm := p.Normalized()
	c.JSON(http.StatusOK, dto.Success(dto.Paginated{
		Data:       out,
		Pagination: dto.NewPaginationMeta(norm.Page, norm.Limit, total),
	}))
}

// GetCompanyPrices は指定銘柄の日次価格履歴を新しい順に返します。
//
// エンドポイント例:
// GET /api/companies/:symbol/prices?from_date=2025-01-01&to_date=2025-01-31
func (h *MarketHandler) GetCompanyPrices(c *gin.Context) {
	p := pagination(c)
	symbol := c.Param("symbol")
	prices, total, err := h.uc.ListPrices(c.Request.Context(), symbol, c.Query("from_date"), c.Query("to_date"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.StockPriceResponse, 0, len(prices))
	for _, x := range prices {
		out = append(out, dto.NewStockPriceResponse(x))
	}

	norm := p.Normalized()
	c.JSON(http.StatusOK, dto.Success(dto.Paginated{
		Data:       out,
		Pagination: dto.NewPaginationMeta(norm.Page, norm.Limit, total),
	}))
}

// GetLatestPrices は最新取引日（または指定日）の全銘柄価格を返します。
//
// エンドポイント例:
// GET /api/prices/latest?date=2025-01-15&series=EQ
func (h *MarketHandler) GetLatestPrices(c *gin.Context) {
	p := pagination(c)
	prices, total, err := h.uc.LatestPrices(c.Request.Context(), c.Query("date"), c.Query("series"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.StockPriceResponse, 0, len(prices))
	for _, x := range prices {
		out = append(out, dto.NewStockPriceResponse(x))
	}

	norm := p.Normalized()
	c.JSON(http.StatusOK, dto.Success(dto.Paginated{
		Data:       out,
		Pagination: dto.NewPaginationMeta(norm.Page, norm.Limit, total),
	}))
}

// Search はシンボル・ISIN・企業名の部分一致で企業を検索し、直近価格を添えて返します。
//
// エンドポイント例:
// GET /api/search?q=TATA
func (h *MarketHandler) Search(c *gin.Context) {
	p := pagination(c)
	results, total, err := h.uc.Search(c.Request.Context(), c.Query("q"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.SearchResultResponse, 0, len(results))
	for _, x := range results {
		out = append(out, dto.NewSearchResultResponse(x))
	}

	norm := p.Normalized()
	c.JSON(http.StatusOK, dto.Success(dto.Paginated{
		Data:       out,
		Pagination: dto.NewPaginationMeta(norm.Page, norm.Limit, total),
	}))
}

// GetTopPerformers は値上がり/値下がり/出来高のランキングを返します。
//
// エンドポイント例:
// GET /api/market/top-performers?metric=gainers&limit=10
func (h *MarketHandler) GetTopPerformers(c *gin.Context) {
	metric := c.DefaultQuery("metric", "gainers")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	performers, err := h.uc.TopPerformers(c.Request.Context(), metric, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewTopPerformerResponses(performers)))
}

// GetMarketOverview は市場全体のサマリーを返します。
//
// エンドポイント例:
// GET /api/market/overview
func (h *MarketHandler) GetMarketOverview(c *gin.Context) {
	overview, err := h.uc.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewMarketOverviewResponse(overview)))
}

// GetIngestionStatus は直近の取り込み履歴とテーブル件数を返します。
//
// エンドポイント例:
// GET /api/ingestion/status?limit=10
func (h *MarketHandler) GetIngestionStatus(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	status, err := h.uc.Status(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewIngestionStatusResponse(status)))
}

// Health はデータベース疎通を含むヘルスチェック結果を返します。
//
// エンドポイント例:
// GET /api/health
func (h *MarketHandler) Health(c *gin.Context) {
	res := dto.HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		DatabaseStatus: "connected",
		Version:        serverVersion,
	}

	if err := h.uc.Ping(c.Request.Context()); err != nil {
		res.Status = "degraded"
		res.DatabaseStatus = "disconnected"
		c.JSON(http.StatusServiceUnavailable, dto.Success(res))
		return
	}

	c.JSON(http.StatusOK, dto.Success(res))
}
