// Package calendar provides pure trading-day date math.
//
// 取引日の判定は土日を除く平日のみの近似です。取引所の祝日カレンダーは
// 持たないため、祝日は取引日として扱われます（既知の近似であり保証ではない）。
package calendar

import "time"

// IsTradingDay reports whether d falls on a weekday.
func IsTradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TradingDatesInRange は from から to までの取引日を昇順で返します。
// 両端を含み、土日を除外します。from が to より後の場合は空を返します。
func TradingDatesInRange(from, to time.Time) []time.Time {
	from = Normalize(from)
	to = Normalize(to)

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// LatestTradingDate は now から過去に向かって最初の取引日を返します。
// now 自体が取引日であれば now の日付を返します。
func LatestTradingDate(now time.Time) time.Time {
	d := Normalize(now)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Normalize truncates t to midnight UTC so dates compare and store uniformly.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
