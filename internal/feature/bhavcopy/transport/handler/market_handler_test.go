package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdata_backend/internal/feature/bhavcopy/domain"
	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
	"marketdata_backend/internal/feature/bhavcopy/transport/handler"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
)

// mockMarketUsecase はMarketUsecaseインターフェースのモック実装です。
type mockMarketUsecase struct {
	ListCompaniesFunc func(ctx context.Context, search, series string, p usecase.Pagination) ([]entity.Company, int64, error)
	ListPricesFunc    func(ctx context.Context, symbol, fromDate, toDate string, p usecase.Pagination) ([]entity.DailyPrice, int64, error)
	LatestPricesFunc  func(ctx context.Context, date, series string, p usecase.Pagination) ([]entity.DailyPrice, int64, error)
	SearchFunc        func(ctx context.Context, query string, p usecase.Pagination) ([]entity.CompanyWithLatestPrice, int64, error)
	TopPerformersFunc func(ctx context.Context, metric string, limit int) ([]entity.TopPerformer, error)
	OverviewFunc      func(ctx context.Context) (entity.MarketOverview, error)
	StatusFunc        func(ctx context.Context, limit int) (entity.IngestionStatus, error)
	PingFunc          func(ctx context.Context) error
}

func (m *mockMarketUsecase) ListCompanies(ctx context.Context, search, series string, p usecase.Pagination) ([]entity.Company, int64, error) {
	return m.ListCompaniesFunc(ctx, search, series, p)
}

func (m *mockMarketUsecase) ListPrices(ctx context.Context, symbol, fromDate, toDate string, p usecase.Pagination) ([]entity.DailyPrice, int64, error) {
	return m.ListPricesFunc(ctx, symbol, fromDate, toDate, p)
}

func (m *mockMarketUsecase) LatestPrices(ctx context.Context, date, series string, p usecase.Pagination) ([]entity.DailyPrice, int64, error) {
	return m.LatestPricesFunc(ctx, date, series, p)
}

func (m *mockMarketUsecase) Search(ctx context.Context, query string, p usecase.Pagination) ([]entity.CompanyWithLatestPrice, int64, error) {
	return m.SearchFunc(ctx, query, p)
}

func (m *mockMarketUsecase) TopPerformers(ctx context.Context, metric string, limit int) ([]entity.TopPerformer, error) {
	return m.TopPerformersFunc(ctx, metric, limit)
}

func (m *mockMarketUsecase) Overview(ctx context.Context) (entity.MarketOverview, error) {
	return m.OverviewFunc(ctx)
}

func (m *mockMarketUsecase) Status(ctx context.Context, limit int) (entity.IngestionStatus, error) {
	return m.StatusFunc(ctx, limit)
}

func (m *mockMarketUsecase) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// envelope は共通レスポンスエンベロープのデコード用です。
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Timestamp string          `json:"timestamp"`
}

func doRequest(t *testing.T, uc handler.MarketUsecase, method, url string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := handler.NewMarketHandler(uc)
	router := gin.New()
	api := router.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/companies", h.GetCompanies)
	api.GET("/companies/:symbol/prices", h.GetCompanyPrices)
	api.GET("/prices/latest", h.GetLatestPrices)
	api.GET("/search", h.Search)
	api.GET("/market/overview", h.GetMarketOverview)
	api.GET("/market/top-performers", h.GetTopPerformers)
	api.GET("/ingestion/status", h.GetIngestionStatus)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, nil)
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body is not a valid envelope: %s", w.Body.String())
	return w, env
}

func TestMarketHandler_GetCompanies(t *testing.T) {
	name := "Reliance Industries"
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	uc := &mockMarketUsecase{
		ListCompaniesFunc: func(ctx context.Context, search, series string, p usecase.Pagination) ([]entity.Company, int64, error) {
			assert.Equal(t, "rel", search)
			assert.Equal(t, "EQ", series)
			assert.Equal(t, 2, p.Page)
			assert.Equal(t, 50, p.Limit)
			return []entity.Company{
				{ID: 1, Symbol: "RELIANCE", ISIN: "INE002A01018", Series: "EQ", Name: &name, CreatedAt: now, UpdatedAt: now},
			}, 120, nil
		},
	}

	w, env := doRequest(t, uc, http.MethodGet, "/api/companies?search=rel&series=EQ&page=2")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Timestamp)

	var body struct {
		Data []struct {
			Symbol string  `json:"symbol"`
			Name   *string `json:"name"`
		} `json:"data"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
			HasNext    bool  `json:"has_next"`
			HasPrev    bool  `json:"has_prev"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "RELIANCE", body.Data[0].Symbol)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, int64(120), body.Pagination.Total)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.True(t, body.Pagination.HasNext)
	assert.True(t, body.Pagination.HasPrev)
}

func TestMarketHandler_GetCompanies_BadPageGoesToUsecase(t *testing.T) {
	uc := &mockMarketUsecase{
		ListCompaniesFunc: func(ctx context.Context, search, series string, p usecase.Pagination) ([]entity.Company, int64, error) {
			// strconv.Atoi("abc") は 0。デフォルトへの丸めはusecase層の責務。
			assert.Equal(t, 0, p.Page)
			return []entity.Company{}, 0, nil
		},
	}

	w, env := doRequest(t, uc, http.MethodGet, "/api/companies?page=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestMarketHandler_GetCompanyPrices_InternalError(t *testing.T) {
	uc := &mockMarketUsecase{
		ListPricesFunc: func(ctx context.Context, symbol, fromDate, toDate string, p usecase.Pagination) ([]entity.DailyPrice, int64, error) {
			assert.Equal(t, "RELIANCE", symbol)
			return nil, 0, assert.AnError
		},
	}

	w, env := doRequest(t, uc, http.MethodGet, "/api/companies/RELIANCE/prices")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestMarketHandler_GetLatestPrices_InvalidDate(t *testing.T) {
	uc := &mockMarketUsecase{
		LatestPricesFunc: func(ctx context.Context, date, series string, p usecase.Pagination) ([]entity.DailyPrice, int64, error) {
			return nil, 0, domain.ErrInvalidDate
		},
	}

	w, env := doRequest(t, uc, http.MethodGet, "/api/prices/latest?date=bogus")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, domain.ErrInvalidDate.Error(), env.Error)
}

func TestMarketHandler_Search_EmptyQuery(t *testing.T) {
	uc := &mockMarketUsecase{
		SearchFunc: func(ctx context.Context, query string, p usecase.Pagination) ([]entity.CompanyWithLatestPrice, int64, error) {
			return nil, 0, domain.ErrEmptyQuery
		},
	}

	w, env := doRequest(t, uc, http.MethodGet, "/api/search")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestMarketHandler_GetTopPerformers(t *testing.T) {
	t.Run("defaults are applied from the query string", func(t *testing.T) {
		uc := &mockMarketUsecase{
			TopPerformersFunc: func(ctx context.Context, metric string, limit int) ([]entity.TopPerformer, error) {
				assert.Equal(t, "gainers", metric)
				assert.Equal(t, 10, limit)
				return []entity.TopPerformer{
					{Symbol: "UPSTOCK", Series: "EQ", LatestPrice: 110, PrevClose: 100, PriceChange: 10, PriceChangePercent: 10, Volume: 1000},
				}, nil
			},
		}

		w, env := doRequest(t, uc, http.MethodGet, "/api/market/top-performers")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)

		var performers []struct {
			Symbol             string  `json:"symbol"`
			PriceChangePercent float64 `json:"price_change_percent"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &performers))
		require.Len(t, performers, 1)
		assert.Equal(t, "UPSTOCK", performers[0].Symbol)
		assert.Equal(t, 10.0, performers[0].PriceChangePercent)
	})

	t.Run("unknown metric maps to bad request", func(t *testing.T) {
		uc := &mockMarketUsecase{
			TopPerformersFunc: func(ctx context.Context, metric string, limit int) ([]entity.TopPerformer, error) {
				return nil, domain.ErrUnknownMetric
			},
		}

		w, env := doRequest(t, uc, http.MethodGet, "/api/market/top-performers?metric=momentum")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
	})
}

func TestMarketHandler_GetMarketOverview(t *testing.T) {
	latest := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	uc := &mockMarketUsecase{
		OverviewFunc: func(ctx context.Context) (entity.MarketOverview, error) {
			return entity.MarketOverview{
				TotalCompanies:    1800,
				TotalPriceRecords: 900000,
				LatestTradingDate: &latest,
			}, nil
		},
	}

	w, env := doRequest(t, uc, http.MethodGet, "/api/market/overview")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var overview struct {
		TotalCompanies    int64   `json:"total_companies"`
		LatestTradingDate *string `json:"latest_trading_date"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, int64(1800), overview.TotalCompanies)
	require.NotNil(t, overview.LatestTradingDate)
	assert.Equal(t, "2025-01-15", *overview.LatestTradingDate)
}

func TestMarketHandler_GetIngestionStatus(t *testing.T) {
	uc := &mockMarketUsecase{
		StatusFunc: func(ctx context.Context, limit int) (entity.IngestionStatus, error) {
			assert.Equal(t, 5, limit)
			return entity.IngestionStatus{TotalCompanies: 10, TotalPriceRecords: 200}, nil
		},
	}

	w, env := doRequest(t, uc, http.MethodGet, "/api/ingestion/status?limit=5")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var status struct {
		Logs              []any `json:"logs"`
		TotalCompanies    int64 `json:"total_companies"`
		TotalPriceRecords int64 `json:"total_price_records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, int64(10), status.TotalCompanies)
	assert.Empty(t, status.Logs)
}

func TestMarketHandler_Health(t *testing.T) {
	t.Run("healthy when the database answers", func(t *testing.T) {
		uc := &mockMarketUsecase{}

		w, env := doRequest(t, uc, http.MethodGet, "/api/health")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)

		var health struct {
			Status         string `json:"status"`
			DatabaseStatus string `json:"database_status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "connected", health.DatabaseStatus)
	})

	t.Run("degraded when the database is unreachable", func(t *testing.T) {
		uc := &mockMarketUsecase{
			PingFunc: func(ctx context.Context) error { return assert.AnError },
		}

		w, env := doRequest(t, uc, http.MethodGet, "/api/health")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var health struct {
			Status         string `json:"status"`
			DatabaseStatus string `json:"database_status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &health))
		assert.Equal(t, "degraded", health.Status)
		assert.Equal(t, "disconnected", health.DatabaseStatus)
	})
}
