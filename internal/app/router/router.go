// Package router はAPIサーバーのルーティングを定義します。
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/bhavcopy/transport/handler"
)

// NewRouter は市場データAPIの全ルートを登録したginエンジンを返します。
func NewRouter(market *handler.MarketHandler) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	api := r.Group("/api")
	{
		// 導通確認用（DB疎通を含む）
		api.GET("/health", market.Health)

		// 企業と価格履歴
		api.GET("/companies", market.GetCompanies)
		api.GET("/companies/:symbol/prices", market.GetCompanyPrices)
		api.GET("/prices/latest", market.GetLatestPrices)
		api.GET("/search", market.Search)

		// 市場集計
		api.GET("/market/overview", market.GetMarketOverview)
		api.GET("/market/top-performers", market.GetTopPerformers)

		// 取り込み監査
		api.GET("/ingestion/status", market.GetIngestionStatus)
	}

	return r
}
