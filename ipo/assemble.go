package ipo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bistscrapper/extract"
	"bistscrapper/utils"
)

// Item is what a listing page says about an offering before its detail
// page is read.
type Item struct {
	Company string
	URL     string
	Code    string
	Dates   string
	Status  string
	Logo    string
	Price   string
	Source  string
}

// Assemble builds a record from a listing item and its detail page. Every
// field ends up either extracted or at its placeholder, and the status is
// settled against now.
func Assemble(item Item, detail extract.Detail, now time.Time) Record {
	company := utils.Normalize(item.Company)
	rec := Record{
		Code:                  extract.Code(item.Code, company).Text,
		Company:               company,
		Dates:                 extract.First(listDates(item.Dates), detail.Dates).Or(extract.NoDate),
		Price:                 PriceOf(extract.First(extract.PriceCell(item.Price), detail.Price)),
		LotCount:              detail.LotCount.Or(extract.NoCount),
		DistributionType:      detail.Distribution.Or(extract.NoDistribution),
		Logo:                  item.Logo,
		URL:                   item.URL,
		Slug:                  detail.Slug,
		Market:                detail.Market.Or(""),
		Broker:                detail.Broker.Or(extract.NoBroker),
		FloatingRate:          detail.FloatingRate.Or(""),
		Discount:              detail.Discount.Or(""),
		TotalSize:             detail.TotalSize.Or(""),
		ApplicationHours:      detail.ApplicationHours.Or(""),
		PriceStability:        detail.Sections.PriceStability,
		FundUsage:             detail.Sections.FundUsage,
		Lockup:                detail.Sections.Lockup,
		AllocationGroups:      detail.Sections.AllocationGroups,
		EstimatedDistribution: detail.Sections.EstimatedDistribution,
		Source:                item.Source,
	}
	if detail.Sections.Financial != "" {
		rec.FinancialData = map[string]string{"raw": detail.Sections.Financial}
	}
	if rec.Slug == "" {
		rec.Slug = utils.SlugFromURL(item.URL)
	}
	if rec.Slug == "" {
		rec.Slug = utils.Slugify(company)
	}
	rec.Status, rec.StatusNote = settleStatus(item.Status, rec.Dates, now)
	return rec
}

func listDates(text string) extract.Value {
	text = utils.Normalize(text)
	if text == "" || text == extract.NoDate {
		return extract.Value{Kind: extract.KindDateRange, Text: extract.NoDate}
	}
	return extract.Value{Kind: extract.KindDateRange, Text: text, Found: true}
}

// settleStatus parses badge text and corrects it with the offering dates.
// An active offering whose last day has passed is completed, and an
// unlabelled one with upcoming dates is in process.
func settleStatus(raw, dates string, now time.Time) (Status, string) {
	raw = utils.Normalize(raw)
	status := ParseStatus(raw)

	var note string
	if status == StatusUnknown {
		status, note = StatusDraft, raw
	}

	_, end, ok := extract.ParseDateRange(dates)
	if !ok {
		return status, note
	}
	passed := !now.Before(end.AddDate(0, 0, 1))
	switch {
	case raw == "" && !passed:
		status = StatusInProcess
	case status.Active() && passed:
		status = StatusCompleted
	}
	return status, note
}

// AssembleRaw builds a record from loosely typed fields, as found in JSON
// and YAML sources. Numbers, strings and lists are accepted where they make
// sense; anything else is ignored.
func AssembleRaw(fields map[string]any, now time.Time) Record {
	item := Item{
		Company: str(fields, "company", "name", "sirket"),
		URL:     str(fields, "url", "link"),
		Code:    str(fields, "code", "kod"),
		Dates:   str(fields, "dates", "date", "tarih"),
		Status:  str(fields, "status", "durum"),
		Logo:    str(fields, "logo"),
		Source:  str(fields, "source"),
	}
	detail := extract.Detail{
		Slug:             str(fields, "slug"),
		Price:            rawPrice(fields["price"], fields["fiyat"]),
		LotCount:         text(extract.KindCount, str(fields, "lotCount"), extract.NoCount, "Bilinmiyor", "Belirtilmedi"),
		Distribution:     text(extract.KindFreeText, str(fields, "distributionType"), extract.NoDistribution, "Bilinmiyor", "Belirtilmedi"),
		Market:           text(extract.KindFreeText, str(fields, "market")),
		Broker:           text(extract.KindFreeText, str(fields, "broker"), extract.NoBroker),
		FloatingRate:     text(extract.KindPercentage, str(fields, "floatingRate")),
		Discount:         text(extract.KindPercentage, str(fields, "discount")),
		TotalSize:        text(extract.KindFreeText, str(fields, "totalSize")),
		ApplicationHours: text(extract.KindFreeText, str(fields, "applicationHours")),
		Sections: extract.Sections{
			FundUsage:             list(fields, "fundUsage"),
			Lockup:                list(fields, "lockup"),
			AllocationGroups:      list(fields, "allocationGroups"),
			EstimatedDistribution: list(fields, "estimatedDistribution"),
			PriceStability:        str(fields, "priceStability"),
		},
	}
	rec := Assemble(item, detail, now)
	if fd, ok := fields["financialData"].(map[string]any); ok && len(fd) > 0 {
		rec.FinancialData = make(map[string]string, len(fd))
		for k, v := range fd {
			rec.FinancialData[k] = scalar(v)
		}
	}
	if p := str(fields, "price", "fiyat"); rec.Price.IsDefault() && p != "" && p != extract.NoPrice {
		rec.Price = Price{Text: p}
	}
	return rec
}

func rawPrice(values ...any) extract.Value {
	for _, v := range values {
		switch t := v.(type) {
		case float64:
			if t > 0 {
				return extract.Value{Kind: extract.KindPrice, Text: extract.FormatPrice(t), Number: t, Found: true}
			}
		case int:
			if t > 0 {
				return extract.Value{Kind: extract.KindPrice, Text: extract.FormatPrice(float64(t)), Number: float64(t), Found: true}
			}
		case string:
			if p := extract.PriceCell(t); p.Found {
				return p
			}
		}
	}
	return extract.Value{Kind: extract.KindPrice, Text: extract.NoPrice}
}

func text(kind extract.Kind, s string, placeholders ...string) extract.Value {
	if s == "" {
		return extract.Value{Kind: kind}
	}
	for _, p := range placeholders {
		if strings.EqualFold(s, p) {
			return extract.Value{Kind: kind}
		}
	}
	return extract.Value{Kind: kind, Text: s, Found: true}
}

func str(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			if s := utils.Normalize(scalar(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	return ""
}

func list(fields map[string]any, key string) []string {
	var out []string
	switch t := fields[key].(type) {
	case []any:
		for _, v := range t {
			if s := utils.Normalize(scalar(v)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		out = utils.NormalizeLines(t)
	case string:
		if s := utils.Normalize(t); s != "" {
			out = []string{s}
		}
	}
	return out
}
