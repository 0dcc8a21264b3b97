package dom

import (
	"strings"

	"bistscrapper/utils"

	"github.com/PuerkitoBio/goquery"
)

// CardLayout names the selectors of a card based listing.
type CardLayout struct {
	Item   string
	Anchor string
	Code   string
	Date   string
	Status string
	Logo   string
}

// Card is the raw content of one listing card.
type Card struct {
	Name   string
	Link   string
	Code   string
	Date   string
	Status string
	Logo   string
}

// Cards walks every item under root. Items without a name are reported and
// skipped. Links and logos are resolved against base.
func Cards(root *goquery.Selection, layout CardLayout, base string, diag Diagnostics) []Card {
	var cards []Card
	root.Find(layout.Item).Each(func(i int, item *goquery.Selection) {
		anchor := item.Find(layout.Anchor).First()
		name := Text(anchor)
		if name == "" {
			diag.Report("card without a name", "index", i)
			return
		}
		card := Card{
			Name:   name,
			Code:   field(item, layout.Code),
			Date:   field(item, layout.Date),
			Status: field(item, layout.Status),
		}
		if href, ok := anchor.Attr("href"); ok {
			card.Link = utils.ResolveURL(base, href)
		}
		if layout.Logo != "" {
			img := item.Find(layout.Logo).First()
			src := attrOr(img, "src", "data-src")
			card.Logo = utils.ResolveURL(base, src)
		}
		cards = append(cards, card)
	})
	return cards
}

func field(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return Text(item.Find(selector).First())
}

func attrOr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := s.Attr(name); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}
