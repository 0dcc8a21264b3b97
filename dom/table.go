package dom

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Row is one data row of a table, one entry per direct cell.
type Row struct {
	Cells []string
	Sel   *goquery.Selection
}

// Tables returns the tables of the document in order.
func Tables(doc *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		out = append(out, t)
	})
	return out
}

// FindTable returns the innermost table owning a header or data cell whose
// own text contains phrase. The result is empty when nothing matches.
func FindTable(doc *goquery.Selection, phrase string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("th, td").EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if strings.Contains(CellText(c), phrase) {
			found = c.Closest("table")
			return false
		}
		return true
	})
	if found == nil {
		return doc.Find("table").Slice(0, 0)
	}
	return found
}

// Rows returns the rows that belong to table itself, skipping nested
// tables and rows made only of header cells.
func Rows(table *goquery.Selection) []Row {
	if table.Length() == 0 {
		return nil
	}
	owner := table.Get(0)
	var rows []Row
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if closestTable(tr.Get(0)) != owner {
			return
		}
		cells := tr.ChildrenFiltered("td, th")
		if cells.Length() == 0 || cells.Length() == cells.Filter("th").Length() {
			return
		}
		row := Row{Sel: tr}
		cells.Each(func(_ int, c *goquery.Selection) {
			row.Cells = append(row.Cells, CellText(c))
		})
		rows = append(rows, row)
	})
	return rows
}

func closestTable(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "table" {
			return p
		}
	}
	return nil
}

var (
	dateToken = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	hasDigit  = regexp.MustCompile(`\d`)
)

// CellKinds is the outcome of classifying a row's cells by their content.
type CellKinds struct {
	Rate   string
	Amount string
	Dates  []string
}

// ClassifyCells inspects each cell for a rate ("%"), an amount ("TL" or a
// digit-bearing value longer than eight characters that is not a date) and
// every dd.mm.yyyy date, in column order. The first rate and amount win.
func ClassifyCells(cells []string) CellKinds {
	var k CellKinds
	for _, text := range cells {
		isDate := dateToken.MatchString(text)
		switch {
		case strings.Contains(text, "%"):
			if k.Rate == "" {
				k.Rate = text
			}
		case !isDate && (strings.Contains(text, "TL") || (hasDigit.MatchString(text) && len([]rune(text)) > 8)):
			if k.Amount == "" {
				k.Amount = text
			}
		}
		k.Dates = append(k.Dates, dateToken.FindAllString(text, -1)...)
	}
	return k
}
