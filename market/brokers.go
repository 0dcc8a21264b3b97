package market

import (
	"regexp"
	"strconv"
	"strings"

	"bistscrapper/dom"
	"bistscrapper/utils"

	"github.com/PuerkitoBio/goquery"
)

// Broker is a brokerage house with its published research.
type Broker struct {
	Name            string           `json:"name"`
	URL             string           `json:"url"`
	TotalReports    int              `json:"total_reports"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Recommendation is one research note: a target price for a symbol.
type Recommendation struct {
	Symbol         string `json:"symbol"`
	Date           string `json:"date"`
	Recommendation string `json:"recommendation"`
	TargetPrice    string `json:"target_price"`
}

var reportCount = regexp.MustCompile(`(?i)Toplam\s*Rapor\s*(\d+)`)

// ParseBrokers reads the broker directory. Entries are deduplicated by URL
// and keep their first position.
func ParseBrokers(doc *goquery.Selection, base string) []Broker {
	brokers := []Broker{}
	seen := make(map[string]int)
	listURL := utils.NormalizeURL(base)

	doc.Find(`a[href*="/araci-kurumlar/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := utils.ResolveURL(base, href)
		key := utils.NormalizeURL(link)
		if key == "" || key == listURL {
			return
		}

		name := dom.Text(a.Find("h3, h2, strong, span").First())
		if name == "" {
			name = dom.Text(a)
		}
		name = strings.TrimSpace(strings.SplitN(name, "#", 2)[0])

		total := 0
		if m := reportCount.FindStringSubmatch(dom.Text(a)); m != nil {
			total, _ = strconv.Atoi(m[1])
		}
		if name == "" && total == 0 {
			return
		}

		if i, dup := seen[key]; dup {
			brokers[i] = Broker{Name: name, URL: link, TotalReports: total}
			return
		}
		seen[key] = len(brokers)
		brokers = append(brokers, Broker{Name: name, URL: link, TotalReports: total})
	})
	return brokers
}

// ParseRecommendations reads the research cards of a broker page. Cards
// without a symbol or a target are skipped, and a symbol is listed once per
// date.
func ParseRecommendations(doc *goquery.Selection) []Recommendation {
	recs := []Recommendation{}
	seen := make(map[string]bool)
	doc.Find("div.rounded-lg.bg-card").Each(func(_ int, card *goquery.Selection) {
		symbol := dom.Text(card.Find("h3").First())
		target := dom.Text(card.Find("div.text-3xl.font-black").First())
		if symbol == "" || target == "" {
			return
		}
		date := dom.Text(card.Find("h3 ~ p").First())
		if date == "" {
			date = dom.Text(card.Find("p.text-xs.text-muted-foreground").First())
		}
		key := symbol + "-" + date
		if seen[key] {
			return
		}
		seen[key] = true
		recs = append(recs, Recommendation{
			Symbol:         symbol,
			Date:           date,
			Recommendation: dom.Text(card.Find("div.rounded-full").First()),
			TargetPrice:    target,
		})
	})
	return recs
}
