package extract

import (
	"strings"

	"bistscrapper/dom"
	"bistscrapper/utils"

	"github.com/PuerkitoBio/goquery"
)

// Pair is one label and its value.
type Pair struct {
	Label string
	Value string
}

// LabelValues collects two-column label/value pairs from table rows and
// definition lists, in document order.
func LabelValues(sel *goquery.Selection) []Pair {
	var pairs []Pair
	put := func(label, value string) {
		label = strings.TrimRight(utils.Normalize(label), " :")
		value = strings.TrimLeft(utils.Normalize(value), ": ")
		if label != "" && value != "" {
			pairs = append(pairs, Pair{Label: label, Value: value})
		}
	}

	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td, th")
		if cells.Length() == 2 {
			put(dom.CellText(cells.Eq(0)), dom.CellText(cells.Eq(1)))
		}
	})
	sel.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		put(dom.Text(dt), dom.Text(dt.NextFiltered("dd")))
	})
	return pairs
}

// Lookup returns the value of the first label containing one of the
// phrases. Phrases are tried in order and compared under Turkish
// lowercasing.
func Lookup(pairs []Pair, phrases ...string) (string, bool) {
	for _, phrase := range phrases {
		p := utils.Lower(phrase)
		for _, pair := range pairs {
			if strings.Contains(utils.Lower(pair.Label), p) {
				return pair.Value, true
			}
		}
	}
	return "", false
}

// Detail is every field a detail page can contribute to a record.
type Detail struct {
	Slug             string
	Price            Value
	Dates            Value
	LotCount         Value
	Distribution     Value
	Market           Value
	Broker           Value
	FloatingRate     Value
	Discount         Value
	TotalSize        Value
	ApplicationHours Value
	Sections         Sections
}

// FromPage extracts a Detail from a parsed detail page. An empty selection
// gives a Detail in which every field is missing.
func FromPage(sel *goquery.Selection, pageURL string) Detail {
	lines := dom.Lines(sel)
	text := strings.Join(lines, "\n")
	labels := LabelValues(sel)
	return Detail{
		Slug:             utils.SlugFromURL(pageURL),
		Price:            First(tablePrice(labels), Price(text)),
		Dates:            First(tableDates(labels), Dates(text)),
		LotCount:         LotCount(text),
		Distribution:     Distribution(text),
		Market:           Market(text),
		Broker:           Broker(text),
		FloatingRate:     FloatingRate(text),
		Discount:         Discount(text),
		TotalSize:        TotalSize(text),
		ApplicationHours: Hours(text),
		Sections:         ParseSections(lines),
	}
}

// FromText extracts a Detail from plain text with one item per line.
func FromText(text string) Detail {
	lines := utils.NormalizeLines(strings.Split(text, "\n"))
	joined := strings.Join(lines, "\n")
	return Detail{
		Price:            Price(joined),
		Dates:            Dates(joined),
		LotCount:         LotCount(joined),
		Distribution:     Distribution(joined),
		Market:           Market(joined),
		Broker:           Broker(joined),
		FloatingRate:     FloatingRate(joined),
		Discount:         Discount(joined),
		TotalSize:        TotalSize(joined),
		ApplicationHours: Hours(joined),
		Sections:         ParseSections(lines),
	}
}

func tablePrice(labels []Pair) Value {
	if v, ok := Lookup(labels, "Halka Arz Fiyatı", "Fiyat"); ok {
		return PriceCell(v)
	}
	return missing(KindPrice)
}

func tableDates(labels []Pair) Value {
	if v, ok := Lookup(labels, "Halka Arz Tarihi", "Talep Toplama", "Tarih"); ok {
		if m := dateAny.FindString(v); m != "" {
			return found(KindDateRange, utils.Normalize(m))
		}
	}
	return missing(KindDateRange)
}
