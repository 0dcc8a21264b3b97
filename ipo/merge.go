package ipo

import (
	"bistscrapper/extract"
	"bistscrapper/utils"

	"golang.org/x/exp/slices"
)

// Merge joins record lists from several sources. Records are matched by
// normalized URL. The normalized company name only matches when one side
// has no URL, so two distinct pages never collapse into one record.
// A matched record only fills fields that are still at their placeholder,
// so the first source to know a value wins. First-seen order is kept.
func Merge(lists ...[]Record) []Record {
	var (
		out    []Record
		byURL  = make(map[string]int)
		byName = make(map[string]int)
	)
	for _, list := range lists {
		for _, r := range list {
			urlKey, nameKey := utils.NormalizeURL(r.URL), utils.FoldKey(r.Company)
			idx, ok := -1, false
			if urlKey != "" {
				idx, ok = byURL[urlKey]
			}
			if !ok && nameKey != "" {
				if j, seen := byName[nameKey]; seen && (urlKey == "" || out[j].URL == "") {
					idx, ok = j, true
				}
			}
			if !ok {
				idx = len(out)
				out = append(out, r)
			} else {
				fill(&out[idx], r)
			}
			if urlKey != "" {
				byURL[urlKey] = idx
			}
			if nameKey != "" {
				byName[nameKey] = idx
			}
			if k := utils.NormalizeURL(out[idx].URL); k != "" {
				byURL[k] = idx
			}
		}
	}
	return out
}

var placeholders = []string{
	"",
	extract.NoCode,
	extract.NoDate,
	extract.NoCount,
	extract.NoDistribution,
	extract.NoBroker,
	extract.NoPrice,
	"Belirtilmedi",
}

func isPlaceholder(s string) bool {
	return slices.Contains(placeholders, s)
}

func fillString(dst *string, src string) {
	if isPlaceholder(*dst) && !isPlaceholder(src) {
		*dst = src
	}
}

func fillList(dst *[]string, src []string) {
	if len(*dst) == 0 && len(src) > 0 {
		*dst = slices.Clone(src)
	}
}

func fill(dst *Record, src Record) {
	fillString(&dst.Code, src.Code)
	fillString(&dst.Company, src.Company)
	fillString(&dst.Dates, src.Dates)
	if dst.Price.IsDefault() && !src.Price.IsDefault() {
		dst.Price = src.Price
	}
	if dst.Status == StatusDraft && dst.StatusNote == "" && src.Status != StatusDraft {
		dst.Status = src.Status
		dst.StatusNote = src.StatusNote
	}
	fillString(&dst.LotCount, src.LotCount)
	fillString(&dst.DistributionType, src.DistributionType)
	fillString(&dst.Logo, src.Logo)
	fillString(&dst.URL, src.URL)
	fillString(&dst.Slug, src.Slug)
	fillString(&dst.Market, src.Market)
	fillString(&dst.Broker, src.Broker)
	fillString(&dst.FloatingRate, src.FloatingRate)
	fillString(&dst.Discount, src.Discount)
	fillString(&dst.TotalSize, src.TotalSize)
	fillString(&dst.ApplicationHours, src.ApplicationHours)
	fillString(&dst.PriceStability, src.PriceStability)
	fillList(&dst.FundUsage, src.FundUsage)
	fillList(&dst.Lockup, src.Lockup)
	fillList(&dst.AllocationGroups, src.AllocationGroups)
	fillList(&dst.EstimatedDistribution, src.EstimatedDistribution)
	if len(dst.FinancialData) == 0 && len(src.FinancialData) > 0 {
		dst.FinancialData = make(map[string]string, len(src.FinancialData))
		for k, v := range src.FinancialData {
			dst.FinancialData[k] = v
		}
	}
}
