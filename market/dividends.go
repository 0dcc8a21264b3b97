package market

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"bistscrapper/extract"
)

// PaymentDateKey is the feed key holding a dividend's payment date.
const PaymentDateKey = "t_odemetarihi"

var paymentLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	extract.DateLayout,
}

// PaymentDate parses the payment date of a dividend row.
func PaymentDate(r Row) (time.Time, bool) {
	s, _ := r[PaymentDateKey].(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range paymentLayouts {
		if t, err := time.ParseInLocation(layout, s, extract.Istanbul); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ArchiveIndex summarizes an archive run.
type ArchiveIndex struct {
	LastUpdated   time.Time `json:"lastUpdated"`
	Years         []string  `json:"years"`
	TotalArchived int       `json:"totalArchived"`
	TotalActive   int       `json:"totalActive"`
}

// Archive is the dividend feed split into upcoming payments and past
// payments grouped by year.
type Archive struct {
	Active []Row
	ByYear map[string][]Row
	Index  ArchiveIndex
}

// SplitDividends moves rows whose payment date is before now into per-year
// archives. Rows without a readable date stay active.
func SplitDividends(rows []Row, now time.Time) Archive {
	a := Archive{Active: []Row{}, ByYear: make(map[string][]Row)}
	archived := 0
	for _, r := range rows {
		t, ok := PaymentDate(r)
		if !ok || !t.Before(now) {
			a.Active = append(a.Active, r)
			continue
		}
		year := strconv.Itoa(t.Year())
		a.ByYear[year] = append(a.ByYear[year], r)
		archived++
	}
	years := make([]string, 0, len(a.ByYear))
	for y := range a.ByYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	a.Index = ArchiveIndex{
		LastUpdated:   now,
		Years:         years,
		TotalArchived: archived,
		TotalActive:   len(a.Active),
	}
	return a
}
