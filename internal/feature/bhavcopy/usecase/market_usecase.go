// Package usecase はbhavcopyデータの取り込みと照会のビジネスロジックを実装します。
package usecase

import (
	"context"
	"strings"
	"time"

	"marketdata_backend/internal/feature/bhavcopy/domain"
	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
	"marketdata_backend/internal/platform/calendar"
)

const (
	// DefaultPage はページ番号のデフォルト値です。
	DefaultPage = 1
	// DefaultLimit は1ページあたり件数のデフォルト値です。
	DefaultLimit = 50
	// MaxLimit は1ページあたり件数の上限です。
	MaxLimit = 1000

	// DefaultTopLimit はランキングのデフォルト件数です。
	DefaultTopLimit = 10
	// MaxTopLimit はランキングの最大件数です。
	MaxTopLimit = 100

	// DefaultLogLimit はステータス表示する監査ログのデフォルト件数です。
	DefaultLogLimit = 10
)

// Pagination はページネーションパラメータです。範囲外の値は拒否せず
// デフォルトへクランプします。
type Pagination struct {
	Page  int
	Limit int
}

// Normalized は範囲外の値をデフォルトへ丸めたコピーを返します。
func (p Pagination) Normalized() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset は正規化済みパラメータから行オフセットを計算します。
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// QueryRepository は保存済みデータへの読み取り専用クエリを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QueryRepository interface {
	Companies(ctx context.Context, search, series string, limit, offset int) ([]entity.Company, int64, error)
	Prices(ctx context.Context, symbol string, from, to *time.Time, limit, offset int) ([]entity.DailyPrice, int64, error)
	LatestPrices(ctx context.Context, date *time.Time, series string, limit, offset int) ([]entity.DailyPrice, int64, error)
	SearchCompanies(ctx context.Context, query string, limit, offset int) ([]entity.CompanyWithLatestPrice, int64, error)
	TopPerformers(ctx context.Context, metric entity.Metric, limit int) ([]entity.TopPerformer, error)
	MarketOverview(ctx context.Context) (entity.MarketOverview, error)
	Ping(ctx context.Context) error
}

// IngestionLogRepository はステータス報告用の監査ログ読み取りを抽象化します。
type IngestionLogRepository interface {
	IngestionLogs(ctx context.Context, limit int) ([]entity.IngestionLog, error)
	TableCounts(ctx context.Context) (companies, prices int64, err error)
}

// MarketUsecase は保存済み時系列データの照会・集計ユースケースを定義します。
// 読み取り専用でリクエストごとに独立しており、状態を持ちません。
type MarketUsecase struct {
	query QueryRepository
	logs  IngestionLogRepository
	now   func() time.Time
}

// NewMarketUsecase はMarketUsecaseの新しいインスタンスを生成します。
func NewMarketUsecase(query QueryRepository, logs IngestionLogRepository) *MarketUsecase {
	return &MarketUsecase{query: query, logs: logs, now: time.Now}
}

// ListCompanies は企業一覧をページネーション付きで返します。
// search はシンボル・社名に対する大文字小文字を区別しない部分一致、
// series は完全一致フィルタです。
func (mu *MarketUsecase) ListCompanies(ctx context.Context, search, series string, p Pagination) ([]entity.Company, int64, error) {
	p = p.Normalized()
	return mu.query.Companies(ctx, search, series, p.Limit, p.Offset())
}

// ListPrices は指定シンボルの価格履歴を取引日の降順で返します。
// from/to は両端を含む日付範囲の絞り込みです（省略可）。
func (mu *MarketUsecase) ListPrices(ctx context.Context, symbol, fromStr, toStr string, p Pagination) ([]entity.DailyPrice, int64, error) {
	from, err := mu.parseDateParam(fromStr)
	if err != nil {
		return nil, 0, err
	}
	to, err := mu.parseDateParam(toStr)
	if err != nil {
		return nil, 0, err
	}

	p = p.Normalized()
	return mu.query.Prices(ctx, symbol, from, to, p.Limit, p.Offset())
}

// LatestPrices は最新スナップショットを売買代金の降順で返します。
// date 省略時は保存済みデータ中の最大取引日に解決されます。
func (mu *MarketUsecase) LatestPrices(ctx context.Context, dateStr, series string, p Pagination) ([]entity.DailyPrice, int64, error) {
	date, err := mu.parseDateParam(dateStr)
	if err != nil {
		return nil, 0, err
	}

	p = p.Normalized()
	return mu.query.LatestPrices(ctx, date, series, p.Limit, p.Offset())
}

// Search はシンボル・社名の部分一致検索に各社の直近価格を結合して返します。
func (mu *MarketUsecase) Search(ctx context.Context, query string, p Pagination) ([]entity.CompanyWithLatestPrice, int64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, domain.ErrEmptyQuery
	}

	p = p.Normalized()
	return mu.query.SearchCompanies(ctx, query, p.Limit, p.Offset())
}

// TopPerformers は直近取引日のランキングを返します。metric は
// gainers/losers/volume のいずれかで、未知の値は domain.ErrUnknownMetric です。
func (mu *MarketUsecase) TopPerformers(ctx context.Context, metricStr string, limit int) ([]entity.TopPerformer, error) {
	metric, err := entity.ParseMetric(metricStr)
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > MaxTopLimit {
		limit = DefaultTopLimit
	}
	return mu.query.TopPerformers(ctx, metric, limit)
}

// Overview は市場全体の集計（件数、最新取引日、各ランキング上位5件）を返します。
func (mu *MarketUsecase) Overview(ctx context.Context) (entity.MarketOverview, error) {
	return mu.query.MarketOverview(ctx)
}

// Status は直近の監査ログとテーブル件数をまとめて返します。
func (mu *MarketUsecase) Status(ctx context.Context, limit int) (entity.IngestionStatus, error) {
	if limit < 1 {
		limit = DefaultLogLimit
	}

	logs, err := mu.logs.IngestionLogs(ctx, limit)
	if err != nil {
		return entity.IngestionStatus{}, err
	}

	companies, prices, err := mu.logs.TableCounts(ctx)
	if err != nil {
		return entity.IngestionStatus{}, err
	}

	return entity.IngestionStatus{
		Logs:              logs,
		TotalCompanies:    companies,
		TotalPriceRecords: prices,
	}, nil
}

// Ping はストレージへの導通を確認します。
func (mu *MarketUsecase) Ping(ctx context.Context) error {
	return mu.query.Ping(ctx)
}

// parseDateParam は省略可能な日付クエリパラメータを解釈します。
// 空文字は nil、"today" は直近の取引日、それ以外は YYYY-MM-DD です。
func (mu *MarketUsecase) parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if s == "today" {
		d := calendar.LatestTradingDate(mu.now())
		return &d, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}
	d = calendar.Normalize(d)
	return &d, nil
}
