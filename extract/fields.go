package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"bistscrapper/utils"
)

const (
	decimalToken = `(\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2})`
	amountToken  = `(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`
	// A range such as "19,50 - 21,00 TL" yields its lower bound.
	pricedToken  = amountToken + `(?:\s*[-–]\s*` + amountToken + `)?\s*(?:TL|₺)`
)

var (
	// lookahead is bounded so that a price belonging to a later section is
	// not attached to the anchor.
	priceAnchored = regexp.MustCompile(`(?is)Halka\s*Arz\s*Fiyat[ıi].{0,80}?` + pricedToken)
	priceLabel    = regexp.MustCompile(`(?is)Fiyat.{0,40}?` + pricedToken)
	priceCell     = regexp.MustCompile(`(?i)` + pricedToken)
	priceBare     = regexp.MustCompile(decimalToken)

	lotCapital = regexp.MustCompile(`(?i)Sermaye\s*Artırımı\s*:\s*([\d.,]+)\s*Lot`)
	lotSale    = regexp.MustCompile(`(?i)Ortak\s*Satışı\s*:\s*([\d.,]+)\s*Lot`)

	hoursRe    = regexp.MustCompile(`(\d{2}:\d{2})\s*-\s*(\d{2}:\d{2})`)
	floatingRe = regexp.MustCompile(`(?i)Halka\s*Açıklık\s*[:\-]\s*(%?\s*[\d,.]+)`)
	discountRe = regexp.MustCompile(`(?i)İskonto\s*[:\-]\s*(%?\s*[\d,.]+)`)
	sizeRe     = regexp.MustCompile(`(?i)Büyüklüğü\s*[:\-～~]\s*([\d,.]+\s+(?:Milyar|Milyon)\s+TL)`)
	brokerRe   = regexp.MustCompile(`(?is)Aracı\s*Kurum[^:]{0,40}:(.*?)(?:Bist\s*Kodu|$)`)

	codeParen = regexp.MustCompile(`\(([A-ZÇĞİÖŞÜ]{3,6})\)`)
)

// Price finds the offering price in page text: the number right before a
// currency marker, looked up after the offering price anchor first and any
// price label second.
func Price(text string) Value {
	for _, re := range []*regexp.Regexp{priceAnchored, priceLabel} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v := priceValue(m[1]); v.Found {
				return v
			}
		}
	}
	return missing(KindPrice)
}

// PriceCell reads a price out of a single table cell or label value.
func PriceCell(text string) Value {
	if m := priceCell.FindStringSubmatch(text); m != nil {
		return priceValue(m[1])
	}
	if m := priceBare.FindString(text); m != "" {
		return priceValue(m)
	}
	return missing(KindPrice)
}

func priceValue(token string) Value {
	f, ok := ParseDecimal(token)
	if !ok || f <= 0 {
		return missing(KindPrice)
	}
	v := found(KindPrice, FormatPrice(f))
	v.Number = f
	return v
}

// LotCount sums the capital increase and shareholder sale quantities.
func LotCount(text string) Value {
	var total int64
	for _, re := range []*regexp.Regexp{lotCapital, lotSale} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, ok := ParseInt(m[1]); ok {
				total += n
			}
		}
	}
	if total <= 0 {
		return missing(KindCount)
	}
	v := found(KindCount, FormatLots(total))
	v.Number = float64(total)
	return v
}

// Hours returns the application window, "09:00-17:00".
func Hours(text string) Value {
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		return found(KindFreeText, m[1]+"-"+m[2])
	}
	return missing(KindFreeText)
}

// FloatingRate returns the free float, "%25,5".
func FloatingRate(text string) Value {
	return percentage(floatingRe, text)
}

// Discount returns the offering discount.
func Discount(text string) Value {
	return percentage(discountRe, text)
}

func percentage(re *regexp.Regexp, text string) Value {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return missing(KindPercentage)
	}
	s := strings.TrimRight(strings.ReplaceAll(m[1], " ", ""), ".,")
	if strings.Trim(s, "%") == "" {
		return missing(KindPercentage)
	}
	return found(KindPercentage, s)
}

// TotalSize returns the offering size, "1,2 Milyar TL".
func TotalSize(text string) Value {
	if m := sizeRe.FindStringSubmatch(text); m != nil {
		return found(KindFreeText, utils.Normalize(m[1]))
	}
	return missing(KindFreeText)
}

var (
	markets       = []string{"Yıldız Pazar", "Ana Pazar", "Alt Pazar"}
	distributions = []string{"Eşit Dağıtım", "Oransal Dağıtım"}
)

// Market returns the market segment named on the page.
func Market(text string) Value {
	return firstPhrase(text, markets)
}

// Distribution returns the distribution method named on the page.
func Distribution(text string) Value {
	return firstPhrase(text, distributions)
}

func firstPhrase(text string, phrases []string) Value {
	best, at := "", -1
	for _, p := range phrases {
		if i := strings.Index(text, p); i >= 0 && (at < 0 || i < at) {
			best, at = p, i
		}
	}
	if at < 0 {
		return missing(KindFreeText)
	}
	return found(KindFreeText, best)
}

// Broker returns the leading brokerage house, or the first two joined when
// a consortium is listed.
func Broker(text string) Value {
	m := brokerRe.FindStringSubmatch(text)
	if m == nil {
		return missing(KindFreeText)
	}
	var brokers []string
	for _, line := range strings.Split(m[1], "\n") {
		line = utils.Normalize(strings.TrimLeft(line, "-•· "))
		if strings.Contains(line, "A.Ş") && utf8.RuneCountInString(line) < 100 {
			brokers = append(brokers, line)
		}
		if len(brokers) == 2 {
			break
		}
	}
	if len(brokers) == 0 {
		return missing(KindFreeText)
	}
	return found(KindFreeText, strings.Join(brokers, ", "))
}

// Code picks a ticker: the explicit badge, then an uppercase token in
// parentheses in the company text, then the company text's first word.
func Code(badge, company string) Value {
	if badge = strings.TrimSpace(badge); badge != "" && badge != NoCode {
		return found(KindFreeText, utils.Upper(badge))
	}
	if m := codeParen.FindAllStringSubmatch(company, -1); len(m) > 0 {
		return found(KindFreeText, m[len(m)-1][1])
	}
	if fields := strings.Fields(company); len(fields) > 0 {
		if word := strings.Trim(fields[0], "(),.-"); word != "" {
			return found(KindFreeText, utils.Upper(word))
		}
	}
	return Value{Kind: KindFreeText, Text: NoCode}
}
