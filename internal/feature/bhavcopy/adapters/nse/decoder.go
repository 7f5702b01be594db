package nse

import (
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"marketdata_backend/internal/feature/bhavcopy/domain/entity"
)

const (
	// legacyMinColumns は旧スキーマの最小カラム数です。
	// SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
	legacyMinColumns = 13

	// modernMinColumns は新スキーマ（sec_bhavdata_full）の最小カラム数です。
	// SYMBOL,SERIES,DATE1,PREV_CLOSE,OPEN_PRICE,HIGH_PRICE,LOW_PRICE,LAST_PRICE,
	// CLOSE_PRICE,AVG_PRICE,TTL_TRD_QNTY,TURNOVER_LACS,NO_OF_TRADES,DELIV_QTY,DELIV_PER
	modernMinColumns = 15

	// lakh は新スキーマの売買代金の単位（10万）です。旧スキーマと同じ通貨単位に
	// 正規化するため TURNOVER_LACS に乗じます。
	lakh = 100000
)

// ParseCSV は生のbhavcopy CSVを正規化済みStockRecordの列にデコードします。
//
// 各行のカラム数でスキーマを判別します: modernMinColumns以上なら新スキーマ、
// legacyMinColumns以上なら旧スキーマ、それ未満の行はスキップします。個々の
// 不正行は集計してスキップするだけで、デコード全体が失敗することはありません。
// 空入力や全行不正の入力も有効な結果（0件）です。ゼロ件をエラーとするかは
// 呼び出し側が判断します。
//
// レコードの取引日には行中の日付カラムではなく引数のdateを使います。CSV側の
// 日付書式はスキーマ世代間で一貫していないためです。
func ParseCSV(content string, date time.Time) entity.Bhavcopy {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	bhav := entity.Bhavcopy{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 行単位の読み取りエラーはその行をスキップして続行
			slog.Warn("skipping unreadable csv row", "error", err)
			bhav.TotalRows++
			bhav.SkippedRows++
			continue
		}
		if isHeaderRow(row) {
			continue
		}
		bhav.TotalRows++

		rec, ok := mapRow(row, date)
		if !ok {
			bhav.SkippedRows++
			continue
		}
		bhav.Records = append(bhav.Records, rec)
	}

	slog.Info("parsed bhavcopy csv",
		"date", date.Format("2006-01-02"),
		"records", len(bhav.Records),
		"skipped", bhav.SkippedRows)
	return bhav
}

// isHeaderRow はカラム名行かどうかを判定します。
func isHeaderRow(row []string) bool {
	return len(row) > 0 && strings.EqualFold(field(row, 0), "SYMBOL")
}

// mapRow は1行をカラム数で判別したスキーマに従ってマッピングします。
// シンボルが空または "-"、あるいはシリーズが空の行は不正として拒否します。
func mapRow(row []string, date time.Time) (entity.StockRecord, bool) {
	var rec entity.StockRecord
	switch {
	case len(row) >= modernMinColumns:
		rec = mapModernRow(row, date)
	case len(row) >= legacyMinColumns:
		rec = mapLegacyRow(row, date)
	default:
		return entity.StockRecord{}, false
	}

	if rec.Symbol == "" || rec.Symbol == "-" || rec.Series == "" {
		return entity.StockRecord{}, false
	}
	return rec, true
}

// mapModernRow は新スキーマ（sec_bhavdata_full形式）の行をマッピングします。
// 売買代金はラーク（10万）単位で公表されるため通貨単位へ換算します。
// このスキーマにISINは含まれないため空で記録します。
func mapModernRow(row []string, date time.Time) entity.StockRecord {
	return entity.StockRecord{
		Symbol:           field(row, 0),
		Series:           field(row, 1),
		PrevClose:        parseFloat(field(row, 3)),
		Open:             parseFloat(field(row, 4)),
		High:             parseFloat(field(row, 5)),
		Low:              parseFloat(field(row, 6)),
		Last:             parseFloat(field(row, 7)),
		Close:            parseFloat(field(row, 8)),
		TotalTradedQty:   parseInt(field(row, 10)),
		TotalTradedValue: parseFloat(field(row, 11)) * lakh,
		TotalTrades:      parseInt(field(row, 12)),
		TradeDate:        date,
	}
}

// mapLegacyRow は旧スキーマ（cm*bhav.csv形式）の行をマッピングします。
func mapLegacyRow(row []string, date time.Time) entity.StockRecord {
	return entity.StockRecord{
		Symbol:           field(row, 0),
		Series:           field(row, 1),
		Open:             parseFloat(field(row, 2)),
		High:             parseFloat(field(row, 3)),
		Low:              parseFloat(field(row, 4)),
		Close:            parseFloat(field(row, 5)),
		Last:             parseFloat(field(row, 6)),
		PrevClose:        parseFloat(field(row, 7)),
		TotalTradedQty:   parseInt(field(row, 8)),
		TotalTradedValue: parseFloat(field(row, 9)),
		TotalTrades:      parseInt(field(row, 11)),
		ISIN:             field(row, 12),
		TradeDate:        date,
	}
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseFloat は数値をパースします。不正値は行を落とさずゼロへフォールバックします。
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
