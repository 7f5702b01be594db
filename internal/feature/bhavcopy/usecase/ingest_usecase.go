package usecase

import (
	"context"
	"log/slog"
	"time"

	"marketdata_backend/internal/feature/bhavcopy/domain"
	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
	"marketdata_backend/internal/platform/calendar"
	"marketdata_backend/internal/shared/ratelimiter"
)

// sourceNSE は監査ログに記録するデータソース名です。
const sourceNSE = "nse"

// dateLayout はすべての外部インターフェースで使う日付書式です。
const dateLayout = "2006-01-02"

// MarketRepository はbhavcopyファイルを取得・デコードするリポジトリの
// インターフェイスです。外部取得元の実装を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	GetBhavcopy(ctx context.Context, date time.Time) (entity.Bhavcopy, error)
}

// StoreRepository は正規化済みレコードの永続化と監査ログを抽象化します。
type StoreRepository interface {
	// StoreRecords はレコードを順に upsert し、保存に成功した件数を返します。
	// 途中で失敗した場合もそれまでの件数を返します。
	StoreRecords(ctx context.Context, records []entity.StockRecord) (int, error)

	// LogIngestion は監査ログを1件追記します。
	LogIngestion(ctx context.Context, entry entity.IngestionLog) error
}

// IngestUsecase はbhavcopyを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market      MarketRepository
	store       StoreRepository
	rateLimiter ratelimiter.RateLimiterInterface
	now         func() time.Time
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, store StoreRepository, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{market: market, store: store, rateLimiter: rateLimiter, now: time.Now}
}

// IngestResult は1取引日分の取り込み結果です。
type IngestResult struct {
	Date    time.Time
	Records int
	Err     error
}

// ResolveDates はCLI/APIから渡された日付指定を処理対象の取引日列へ解決します。
//
//   - date が指定されていればその1日（"today" は直近の取引日に解決）
//   - from と to が指定されていれば範囲内の取引日（土日を除く昇順）
//   - どちらもなければ直近の取引日1日
//
// 不正な日付文字列には domain.ErrInvalidDate を返します。
func (iu *IngestUsecase) ResolveDates(date, from, to string) ([]time.Time, error) {
	switch {
	case date != "":
		d, err := iu.parseDate(date)
		if err != nil {
			return nil, err
		}
		return []time.Time{d}, nil

	case from != "" && to != "":
		f, err := iu.parseDate(from)
		if err != nil {
			return nil, err
		}
		t, err := iu.parseDate(to)
		if err != nil {
			return nil, err
		}
		return calendar.TradingDatesInRange(f, t), nil

	default:
		return []time.Time{calendar.LatestTradingDate(iu.now())}, nil
	}
}

func (iu *IngestUsecase) parseDate(s string) (time.Time, error) {
	if s == "today" {
		return calendar.LatestTradingDate(iu.now()), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return calendar.Normalize(d), nil
}

// IngestDates は各取引日を順に取り込みます。日付間は厳密に逐次で、
// ある日付の失敗は残りの日付の処理を止めません。
func (iu *IngestUsecase) IngestDates(ctx context.Context, dates []time.Time) []IngestResult {
	results := make([]IngestResult, 0, len(dates))
	for _, date := range dates {
		iu.rateLimiter.WaitIfNeeded()

		count, err := iu.ingestOne(ctx, date)
		if err != nil {
			slog.Error("failed to ingest bhavcopy", "date", date.Format(dateLayout), "error", err)
		}
		results = append(results, IngestResult{Date: date, Records: count, Err: err})
	}
	return results
}

// ingestOne は1取引日分の fetch→decode→store パイプラインを実行し、
// 結果にかかわらず監査ログを1件追記します。ログ追記の失敗は取り込み結果に
// 影響しません（警告のみ）。
func (iu *IngestUsecase) ingestOne(ctx context.Context, date time.Time) (int, error) {
	entry := entity.IngestionLog{
		Source:    sourceNSE,
		TradeDate: &date,
		Status:    entity.IngestionStatusFailed,
		StartedAt: iu.now(),
	}

	count, fileName, err := iu.runPipeline(ctx, date)

	if fileName != "" {
		entry.FileName = &fileName
	}
	processed := int64(count)
	entry.RecordsProcessed = &processed

	switch {
	case err == nil:
		entry.Status = entity.IngestionStatusSuccess
	case count > 0:
		// 一部のレコードは失敗前に保存済み。upsertは再実行しても安全なので
		// リトライで回復できるが、状態としては partial を記録する。
		entry.Status = entity.IngestionStatusPartial
	}
	if err != nil {
		msg := err.Error()
		entry.ErrorMessage = &msg
	}
	entry.CompletedAt = iu.now()

	if logErr := iu.store.LogIngestion(ctx, entry); logErr != nil {
		slog.Warn("failed to log ingestion attempt", "date", date.Format(dateLayout), "error", logErr)
	}

	return count, err
}

func (iu *IngestUsecase) runPipeline(ctx context.Context, date time.Time) (int, string, error) {
	bhav, err := iu.market.GetBhavcopy(ctx, date)
	if err != nil {
		return 0, "", err
	}

	if len(bhav.Records) == 0 {
		return 0, bhav.FileName, domain.ErrNoRecords
	}

	count, err := iu.store.StoreRecords(ctx, bhav.Records)
	return count, bhav.FileName, err
}
