package nse

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"marketdata_backend/internal/feature/bhavcopy/domain"
	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
	"marketdata_backend/internal/feature/bhavcopy/usecase"
)

const (
	// minContentLength はダウンロードした本文を有効とみなす最小バイト数です。
	// NSEはエラーページとして短いHTMLを返すことがあるため、小さすぎる応答は拒否します。
	minContentLength = 100

	// browserUserAgent はダウンロード時に使用するUA文字列です。
	// NSEは素のHTTPクライアントからのリクエストを拒否するため、ブラウザ相当の
	// リクエストヘッダを付与します。
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// strategy は1つのダウンロード戦略（名前とURL組み立て）を表します。
// 戦略は宣言的なリストとして順序付けられ、単一の汎用ループで評価されます。
type strategy struct {
	name string
	url  func(cfg Config, date time.Time) string
}

// strategies は過去に観測されたNSEのURLスキームを優先順に並べたものです。
// 先頭から順に試行し、最初に受理された応答で打ち切ります（後続は試行されない）。
var strategies = []strategy{
	{
		name: "sec_bhavdata_full",
		url: func(cfg Config, date time.Time) string {
			return fmt.Sprintf("%s/products/content/sec_bhavdata_full_%s.csv",
				cfg.ArchivesURL, date.Format("02012006"))
		},
	},
	{
		name: "archives_cm_bhav",
		url: func(cfg Config, date time.Time) string {
			return fmt.Sprintf("%s/content/historical/EQUITIES/%d/%s/cm%02d%s%dbhav.csv",
				cfg.ArchivesURL, date.Year(), monthName(date), date.Day(), monthName(date), date.Year())
		},
	},
	{
		name: "legacy_cm_bhav_zip",
		url: func(cfg Config, date time.Time) string {
			return fmt.Sprintf("%s/content/historical/EQUITIES/%d/%s/cm%02d%s%dbhav.csv.zip",
				cfg.BaseURL, date.Year(), monthName(date), date.Day(), monthName(date), date.Year())
		},
	},
	{
		// 日付に紐付かない上場銘柄一覧。最終フォールバックとしてのみ使用します。
		name: "equity_list",
		url: func(cfg Config, date time.Time) string {
			return fmt.Sprintf("%s/content/equities/EQUITY_L.csv", cfg.BaseURL)
		},
	},
}

// monthName は bhavcopy URL 用の大文字3文字の月名を返します。
func monthName(date time.Time) string {
	return strings.ToUpper(date.Format("Jan"))
}

// Client はNSEからbhavcopyファイルを取得するダウンロードクライアントです。
type Client struct {
	cfg  Config
	http *resty.Client
}

var _ usecase.MarketRepository = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, hc *http.Client) *Client {
	r := resty.NewWithClient(hc).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept", "text/csv,application/octet-stream;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Referer", cfg.BaseURL+"/")
	return &Client{cfg: cfg, http: r}
}

// GetBhavcopy は指定日のbhavcopyを戦略リストの順に試行してダウンロードし、
// 正規化済みレコード列にデコードして返します。
//
// 応答の受理条件: HTTP成功ステータス、空でない本文、テキストとして復号可能
// （UTF-8直接、またはgzip展開のフォールバック）、最小長を超え複数行であること。
// すべての戦略が失敗した場合のみ domain.ErrAllStrategiesFailed を返します。
func (c *Client) GetBhavcopy(ctx context.Context, date time.Time) (entity.Bhavcopy, error) {
	for _, s := range strategies {
		u := s.url(c.cfg, date)

		res, err := c.http.R().SetContext(ctx).Get(u)
		if err != nil {
			slog.Warn("bhavcopy download attempt failed", "strategy", s.name, "error", err)
			continue
		}
		if res.StatusCode() < 200 || res.StatusCode() >= 300 {
			slog.Warn("bhavcopy download rejected", "strategy", s.name, "status", res.StatusCode())
			continue
		}

		text, ok := decodeText(res.Body())
		if !ok || !acceptable(text) {
			slog.Warn("bhavcopy content failed sanity check", "strategy", s.name, "bytes", len(res.Body()))
			continue
		}

		slog.Info("bhavcopy downloaded", "strategy", s.name, "date", date.Format("2006-01-02"), "bytes", len(text))

		bhav := ParseCSV(text, date)
		bhav.FileName = path.Base(u)
		return bhav, nil
	}
	return entity.Bhavcopy{}, fmt.Errorf("%w for %s", domain.ErrAllStrategiesFailed, date.Format("2006-01-02"))
}

// decodeText は本文をテキストとして復号します。まずUTF-8として直接解釈し、
// だめならgzip展開を試みます（Content-Encodingなしで圧縮済み本文を返す
// ミラーがあるため）。
func decodeText(body []byte) (string, bool) {
	if isText(body) {
		return string(body), true
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	defer func() {
		if err := zr.Close(); err != nil {
			slog.Warn("failed to close gzip reader", "error", err)
		}
	}()

	out, err := io.ReadAll(zr)
	if err != nil || !isText(out) {
		return "", false
	}
	return string(out), true
}

func isText(b []byte) bool {
	return len(b) > 0 && utf8.Valid(b) && !bytes.ContainsRune(b, 0)
}

// acceptable は復号済みテキストが妥当なbhavcopyらしいかを判定します。
func acceptable(text string) bool {
	trimmed := strings.TrimSpace(text)
	return len(trimmed) > minContentLength && strings.Contains(trimmed, "\n")
}
