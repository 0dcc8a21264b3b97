package market

import (
	"strconv"
	"strings"
	"time"

	"bistscrapper/dom"
	"bistscrapper/utils"

	"github.com/PuerkitoBio/goquery"
)

// Quote is one line of the live price table.
type Quote struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change"`
	ChangeRate float64 `json:"changeRate"`
	Volume     string  `json:"volume"`
	Sector     string  `json:"sector"`
}

// QuoteDocument is the published quotes file.
type QuoteDocument struct {
	LastUpdate  string  `json:"last_update"`
	Source      string  `json:"source"`
	TotalStocks int     `json:"total_stocks"`
	Stocks      []Quote `json:"stocks"`
}

// NewQuoteDocument wraps quotes with their metadata.
func NewQuoteDocument(quotes []Quote, source string, now time.Time) QuoteDocument {
	if quotes == nil {
		quotes = []Quote{}
	}
	return QuoteDocument{
		LastUpdate:  now.Format(time.RFC3339),
		Source:      source,
		TotalStocks: len(quotes),
		Stocks:      quotes,
	}
}

// ParseNumber reads a number written with a decimal comma, dots as
// thousands separators and an optional percent sign.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.NewReplacer("%", "", "TL", "", "₺", "", " ", "").Replace(s))
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseQuotes reads up to limit rows of the quote table. Rows with fewer
// than six cells or an unreadable price are skipped. A limit of zero reads
// every row.
func ParseQuotes(doc *goquery.Selection, limit int, diag dom.Diagnostics) []Quote {
	quotes := []Quote{}
	doc.Find("tr.even, tr.odd").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if limit > 0 && len(quotes) >= limit {
			return false
		}
		var cells []string
		tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, dom.CellText(td))
		})
		if len(cells) < 6 {
			diag.Report("quote row too short", "row", i, "cells", len(cells))
			return true
		}
		price, ok := ParseNumber(cells[1])
		if !ok {
			diag.Report("quote row without a price", "row", i, "code", cells[0])
			return true
		}
		change, _ := ParseNumber(cells[2])
		rate, _ := ParseNumber(cells[3])
		code := utils.Upper(firstWord(cells[0]))
		if code == "" {
			return true
		}
		quotes = append(quotes, Quote{
			Code:       code,
			Name:       code,
			Price:      price,
			Change:     change,
			ChangeRate: rate,
			Volume:     cells[4],
			Sector:     "BIST",
		})
		return true
	})
	return quotes
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
