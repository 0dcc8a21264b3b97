package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bistscrapper/utils"
)

// Istanbul is the exchange's time zone. Turkey has kept UTC+3 all year
// since 2016.
var Istanbul = time.FixedZone("TRT", 3*60*60)

// DateLayout is the dd.mm.yyyy form used across the sources.
const DateLayout = "02.01.2006"

var months = map[string]time.Month{
	"ocak": time.January, "şubat": time.February, "mart": time.March,
	"nisan": time.April, "mayıs": time.May, "haziran": time.June,
	"temmuz": time.July, "ağustos": time.August, "eylül": time.September,
	"ekim": time.October, "kasım": time.November, "aralık": time.December,
}

const monthAlt = `(?:Ocak|Şubat|Mart|Nisan|Mayıs|Haziran|Temmuz|Ağustos|Eylül|Ekim|Kasım|Aralık)`

var (
	dottedRange = `\d{2}\.\d{2}\.\d{4}(?:\s*[-–]\s*\d{2}\.\d{2}\.\d{4})?`
	wordRange   = `\d{1,2}(?:\s*[-–,]\s*\d{1,2})*(?:\s+` + monthAlt + `(?:\s*[-–]\s*\d{1,2})*)?\s+` + monthAlt + `\s+\d{4}`

	dateAnchored = regexp.MustCompile(`(?s)(?:Tarih|Talep\s*Toplama|Takvimi)\D{0,60}?(` + dottedRange + `|` + wordRange + `)`)
	dateAny      = regexp.MustCompile(dottedRange + `|` + wordRange)
	dottedDate   = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	dateToken    = regexp.MustCompile(`\d{4}|\d{1,2}|[\p{L}]+`)
)

// Dates finds the offering dates after one of the date anchors, falling back
// to the first date-like text anywhere.
func Dates(text string) Value {
	if m := dateAnchored.FindStringSubmatch(text); m != nil {
		return found(KindDateRange, utils.Normalize(m[1]))
	}
	if m := dateAny.FindString(text); m != "" {
		return found(KindDateRange, utils.Normalize(m))
	}
	return missing(KindDateRange)
}

// AllDottedDates returns every dd.mm.yyyy token in order.
func AllDottedDates(text string) []string {
	return dottedDate.FindAllString(text, -1)
}

// ParseDate reads a single dd.mm.yyyy date in the exchange's zone.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), Istanbul)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type dayOfMonth struct {
	day   int
	month time.Month
}

// ParseDateRange reads the first and last day of a date expression such as
// "12.03.2025", "10-11-12 Mart 2025" or "28 Şubat - 2 Mart 2025".
func ParseDateRange(s string) (start, end time.Time, ok bool) {
	if ds := AllDottedDates(s); len(ds) > 0 {
		start, ok = ParseDate(ds[0])
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		end, ok = ParseDate(ds[len(ds)-1])
		return start, end, ok
	}

	var (
		pending []int
		year    int
		dates   []dayOfMonth
	)
	for _, tok := range dateToken.FindAllString(utils.Lower(s), -1) {
		if m, isMonth := months[tok]; isMonth {
			for _, d := range pending {
				dates = append(dates, dayOfMonth{d, m})
			}
			pending = pending[:0]
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if len(tok) == 4 {
			year = n
			continue
		}
		if n >= 1 && n <= 31 {
			pending = append(pending, n)
		}
	}
	if year == 0 || len(dates) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last := dates[0], dates[len(dates)-1]
	start = time.Date(year, first.month, first.day, 0, 0, 0, 0, Istanbul)
	end = time.Date(year, last.month, last.day, 0, 0, 0, 0, Istanbul)
	if end.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	return start, end, true
}
