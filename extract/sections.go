package extract

import (
	"strings"
)

type section int

const (
	sectionNone section = iota
	sectionFund
	sectionLockup
	sectionAllocation
	sectionDistribution
	sectionFinancial
)

var sectionHeaders = []struct {
	marker  string
	section section
}{
	{"Fonun Kullanım Yeri", sectionFund},
	{"Satmama Taahhüdü", sectionLockup},
	{"Tahsisat Grupları", sectionAllocation},
	{"Dağıtılacak Pay Miktarı", sectionDistribution},
	{"Finansal Tablo", sectionFinancial},
}

const priceStabilityHeader = "Fiyat İstikrarı"

var stopMarkers = []string{"Bist", "Endeks", "Başvuru Yerleri", "Şirket Hakkında", "Ekler"}

var financialMarkers = []string{"Hasılat", "Brüt Kâr", "Brüt Kar", "Milyon TL"}

// Sections holds the bulleted blocks of a detail page.
type Sections struct {
	FundUsage             []string
	Lockup                []string
	AllocationGroups      []string
	EstimatedDistribution []string
	Financial             string
	PriceStability        string
}

// ParseSections walks page lines with one capture mode active at a time. A
// header line switches the mode, a stop marker clears it, and only lines
// shaped like items of the active block are kept.
func ParseSections(lines []string) Sections {
	var (
		out       Sections
		mode      = sectionNone
		financial []string
	)
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if next, ok := header(line); ok {
			mode = next
			continue
		}
		if strings.Contains(line, priceStabilityHeader) {
			if i+1 < len(lines) {
				if next := strings.TrimSpace(lines[i+1]); strings.HasPrefix(next, "-") {
					out.PriceStability = strings.Trim(next, "- ")
					i++
				}
			}
			mode = sectionNone
			continue
		}
		if containsAny(line, stopMarkers) {
			mode = sectionNone
			continue
		}

		switch mode {
		case sectionFund:
			if hasPrefixAny(line, "-", "•", "%") {
				out.FundUsage = append(out.FundUsage, bullet(line))
			}
		case sectionLockup:
			if hasPrefixAny(line, "-", "•") {
				out.Lockup = append(out.Lockup, bullet(line))
			}
		case sectionAllocation:
			if hasPrefixAny(line, "-") || strings.Contains(line, "Lot") {
				out.AllocationGroups = append(out.AllocationGroups, bullet(line))
			}
		case sectionDistribution:
			if hasPrefixAny(line, "-") || strings.Contains(strings.ToLower(line), "katılım") {
				out.EstimatedDistribution = append(out.EstimatedDistribution, bullet(line))
			}
		case sectionFinancial:
			if !strings.HasPrefix(line, "*") && containsAny(line, financialMarkers) {
				financial = append(financial, line)
			}
		}
	}
	out.Financial = strings.Join(financial, " ")
	return out
}

func header(line string) (section, bool) {
	for _, h := range sectionHeaders {
		if strings.Contains(line, h.marker) {
			return h.section, true
		}
	}
	return sectionNone, false
}

func bullet(line string) string {
	return strings.TrimSpace(strings.Trim(line, "-• "))
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
