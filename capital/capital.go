// Package capital parses the capital increase tables and settles the stage
// of each increase from the dates its row carries.
package capital

import (
	"regexp"
	"strings"
	"time"

	"bistscrapper/dom"
	"bistscrapper/extract"
	"bistscrapper/utils"

	"github.com/PuerkitoBio/goquery"
)

// Kind is the type of a capital increase.
type Kind string

const (
	Bonus            Kind = "Bedelsiz"
	Rights           Kind = "Bedelli"
	PrivatePlacement Kind = "Tahsisli"
)

// DefaultRoles is the order in which the increase tables appear on the
// page.
var DefaultRoles = []Kind{Bonus, Rights, PrivatePlacement}

// Status is the stage of an increase.
type Status string

const (
	Draft             Status = "Taslak"
	BoardDecision     Status = "YKK Kararı"
	RegulatorApproved Status = "SPK Onay"
	Approved          Status = "Onaylandı"
	Completed         Status = "Tamamlandı"
)

// Record is one capital increase.
type Record struct {
	Code        string `json:"code"`
	Company     string `json:"company"`
	Type        Kind   `json:"type"`
	Rate        string `json:"rate"`
	Date        string `json:"date"`
	Status      Status `json:"status"`
	Description string `json:"description"`
}

// Derived is the outcome of DeriveStatus.
type Derived struct {
	Status      Status
	Date        string
	Description string
}

// DeriveStatus maps the dates of a row to a stage. Dates are in column
// order: board decision, regulator approval, then the final registration
// date. Once the displayed date is behind now the increase is completed.
func DeriveStatus(dates []string, now time.Time) Derived {
	var d Derived
	switch n := len(dates); {
	case n >= 3:
		d = Derived{Status: Approved, Date: dates[n-1], Description: "Bölünme Tarihi: " + dates[n-1]}
	case n == 2:
		d = Derived{Status: RegulatorApproved, Date: dates[1], Description: "SPK Onayı Alındı"}
	case n == 1:
		d = Derived{Status: BoardDecision, Date: dates[0], Description: "Yönetim Kurulu Kararı"}
	default:
		return Derived{Status: Draft}
	}
	if t, ok := extract.ParseDate(d.Date); ok && now.After(t) {
		d.Status = Completed
	}
	return d
}

var (
	parenCode  = regexp.MustCompile(`\(([A-ZÇĞİÖŞÜ]{3,6})\)`)
	upperToken = regexp.MustCompile(`^[A-ZÇĞİÖŞÜ]{3,6}$`)
)

// Code picks the ticker from the company cell: the explicit code element of
// the cell when it holds a ticker, a code in parentheses, then a standalone
// uppercase token, then the first word.
func Code(badge, company string) string {
	if b := strings.Trim(utils.Upper(utils.Normalize(badge)), "(),.-:"); upperToken.MatchString(b) {
		return b
	}
	if m := parenCode.FindStringSubmatch(company); m != nil {
		return m[1]
	}
	for _, f := range strings.Fields(company) {
		if f = strings.Trim(f, "(),.-:"); upperToken.MatchString(f) {
			return f
		}
	}
	return extract.Code("", company).Text
}

// ParseRow builds a record from the cell texts of one row. The first cell
// holds the company and badge is the text of its code element, if any; the
// rest are classified by content. Rows without a company are rejected.
func ParseRow(cells []string, badge string, kind Kind, now time.Time) (Record, bool) {
	if len(cells) == 0 {
		return Record{}, false
	}
	company := utils.Normalize(cells[0])
	if company == "" {
		return Record{}, false
	}
	k := dom.ClassifyCells(cells[1:])
	d := DeriveStatus(k.Dates, now)
	desc := d.Description
	if k.Amount != "" {
		if desc != "" {
			desc += " | "
		}
		desc += "Tutar: " + k.Amount
	}
	return Record{
		Code:        Code(badge, company),
		Company:     company,
		Type:        kind,
		Rate:        k.Rate,
		Date:        d.Date,
		Status:      d.Status,
		Description: desc,
	}, true
}

// badge returns the text of the code element in the first cell of a row.
func badge(row dom.Row) string {
	if row.Sel == nil {
		return ""
	}
	return dom.Text(row.Sel.ChildrenFiltered("td, th").First().Find("strong, b").First())
}

// ParseTables reads the increase tables of a page. The n-th table is of the
// n-th kind in roles; further tables are ignored.
func ParseTables(doc *goquery.Selection, roles []Kind, now time.Time, diag dom.Diagnostics) []Record {
	out := []Record{}
	for i, table := range dom.Tables(doc) {
		if i >= len(roles) {
			diag.Report("extra capital increase table ignored", "index", i)
			break
		}
		for j, row := range dom.Rows(table) {
			rec, ok := ParseRow(row.Cells, badge(row), roles[i], now)
			if !ok {
				diag.Report("capital increase row skipped", "table", i, "row", j)
				continue
			}
			out = append(out, rec)
		}
	}
	return out
}
