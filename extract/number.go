package extract

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseDecimal reads a price written with either separator convention,
// "1.234,50", "1,234.50", "19,5" and "45" included. The last separator is
// the decimal point when one or two digits follow it; three digits make it
// a thousands separator.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	intPart, frac := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 {
		if n := len(s) - i - 1; n == 1 || n == 2 {
			intPart, frac = s[:i], s[i+1:]
		}
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}
	num := intPart
	if frac != "" {
		num += "." + frac
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInt reads an integer with any thousands separators.
func ParseInt(s string) (int64, bool) {
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatPrice renders a price with two decimals and a dot separator.
func FormatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatLots renders a lot total: one decimal millions from a million up,
// Turkish digit grouping below.
func FormatLots(n int64) string {
	if n <= 0 {
		return NoCount
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1f Milyon", float64(n)/1_000_000)
	}
	return message.NewPrinter(language.Turkish).Sprintf("%d", n)
}
