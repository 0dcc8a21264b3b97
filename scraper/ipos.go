package scraper

import (
	"context"
	"strings"

	"bistscrapper/dom"
	"bistscrapper/extract"
	"bistscrapper/fetch"
	"bistscrapper/ipo"
	"bistscrapper/utils"

	"github.com/PuerkitoBio/goquery"
)

var halkarzLayout = dom.CardLayout{
	Item:   "article.index-list",
	Anchor: "h3.il-halka-arz-sirket a",
	Code:   "span.il-bist-kod",
	Date:   "span.il-halka-arz-tarihi",
	Status: "div.il-badge",
	Logo:   "img.slogo",
}

// Halkarz reads the offering cards of the halkarz home page and follows
// each card to its detail page.
type Halkarz struct {
	url   string
	env   Env
	match matcher
}

func NewHalkarz(rawURL string, env Env) *Halkarz {
	return &Halkarz{url: rawURL, env: env, match: newMatcher(rawURL)}
}

func (s *Halkarz) Name() string                 { return "halkarz" }
func (s *Halkarz) URL() string                  { return s.url }
func (s *Halkarz) CanHandle(rawURL string) bool { return s.match.match(rawURL) }

func (s *Halkarz) Parse(ctx context.Context, doc fetch.Document) (Result, error) {
	page := dom.Parse(doc.Body)
	root := page.Find("div.tab_item")
	if root.Length() == 0 {
		root = page.Selection
	}
	base := doc.URL
	if base == "" {
		base = s.url
	}
	cards := dom.Cards(root, halkarzLayout, base, s.env.diagnostics(s.Name()))

	now := s.env.now()
	log := s.env.logger()
	records := fetch.Ordered(ctx, s.env.limit(), cards, func(ctx context.Context, _ int, c dom.Card) ipo.Record {
		var detail extract.Detail
		if c.Link != "" && s.env.Fetcher != nil {
			page := fetch.OrEmpty(ctx, s.env.Fetcher, c.Link, log)
			if !page.Empty() {
				detail = extract.FromPage(dom.Parse(page.Body).Selection, c.Link)
			}
		}
		return ipo.Assemble(ipo.Item{
			Company: c.Name,
			URL:     c.Link,
			Code:    c.Code,
			Dates:   c.Date,
			Status:  c.Status,
			Logo:    c.Logo,
			Source:  s.Name(),
		}, detail, now)
	})
	records = compact(records)
	return Result{Source: s.Name(), Data: records, Count: len(records)}, nil
}

// Piapiri reads the offering table of piapiri. The table is found by its
// "Şirket Adı" header and only its own rows are read, so a nested table
// never contributes rows twice.
type Piapiri struct {
	url   string
	env   Env
	match matcher
}

func NewPiapiri(rawURL string, env Env) *Piapiri {
	return &Piapiri{url: rawURL, env: env, match: newMatcher(rawURL)}
}

func (s *Piapiri) Name() string                 { return "piapiri" }
func (s *Piapiri) URL() string                  { return s.url }
func (s *Piapiri) CanHandle(rawURL string) bool { return s.match.match(rawURL) }

func (s *Piapiri) Parse(_ context.Context, doc fetch.Document) (Result, error) {
	diag := s.env.diagnostics(s.Name())
	table := dom.FindTable(dom.Parse(doc.Body).Selection, "Şirket Adı")
	if table.Length() == 0 {
		diag.Report("offering table not found")
	}

	base := doc.URL
	if base == "" {
		base = s.url
	}
	now := s.env.now()
	records := []ipo.Record{}
	seen := make(map[string]bool)
	for i, row := range dom.Rows(table) {
		if len(row.Cells) < 4 {
			diag.Report("row too short", "row", i, "cells", len(row.Cells))
			continue
		}
		company := row.Cells[0]
		if company == "" || strings.Contains(company, "Şirket Adı") {
			continue
		}
		key := strings.Join(row.Cells[:4], "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true

		records = append(records, ipo.Assemble(ipo.Item{
			Company: company,
			URL:     rowLink(row.Sel, base),
			Dates:   row.Cells[1],
			Price:   row.Cells[2],
			Status:  row.Cells[3],
			Source:  s.Name(),
		}, extract.Detail{}, now))
	}
	return Result{Source: s.Name(), Data: records, Count: len(records)}, nil
}

func rowLink(tr *goquery.Selection, base string) string {
	href, ok := tr.Find("a[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	return utils.ResolveURL(base, href)
}

// compact drops the empty records left behind by a cancelled run.
func compact(records []ipo.Record) []ipo.Record {
	out := records[:0]
	for _, r := range records {
		if r.Company != "" {
			out = append(out, r)
		}
	}
	if out == nil {
		return []ipo.Record{}
	}
	return out
}
