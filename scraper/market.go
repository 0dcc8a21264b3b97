package scraper

import (
	"context"
	"fmt"

	"bistscrapper/capital"
	"bistscrapper/dom"
	"bistscrapper/fetch"
	"bistscrapper/market"
	"bistscrapper/utils"
)

// source holds what every page source shares.
type source struct {
	name  string
	url   string
	env   Env
	match matcher
}

func newSource(name, rawURL string, env Env) source {
	return source{name: name, url: rawURL, env: env, match: newMatcher(rawURL)}
}

func (s source) Name() string                 { return s.name }
func (s source) URL() string                  { return s.url }
func (s source) CanHandle(rawURL string) bool { return s.match.match(rawURL) }

func (s source) base(doc fetch.Document) string {
	if doc.URL != "" {
		return doc.URL
	}
	return s.url
}

// Capital reads the capital increase tables. Tables are read in page order
// and take the kinds of roles in turn.
type Capital struct {
	source
	roles []capital.Kind
}

func NewCapital(rawURL string, env Env) *Capital {
	return &Capital{source: newSource("capital", rawURL, env), roles: capital.DefaultRoles}
}

func (s *Capital) Parse(_ context.Context, doc fetch.Document) (Result, error) {
	records := capital.ParseTables(dom.Parse(doc.Body).Selection, s.roles, s.env.now(), s.env.diagnostics(s.name))
	return Result{Source: s.name, Data: records, Count: len(records)}, nil
}

// Feed reads a JSON list feed, repairing its text. Target prices and
// dividends are both published this way.
type Feed struct {
	source
}

func NewTargets(rawURL string, env Env) *Feed {
	return &Feed{source: newSource("targets", rawURL, env)}
}

func NewDividends(rawURL string, env Env) *Feed {
	return &Feed{source: newSource("dividends", rawURL, env)}
}

func (s *Feed) Parse(_ context.Context, doc fetch.Document) (Result, error) {
	rows, err := market.ParseRows(doc.Body)
	if err != nil {
		return Result{Source: s.name, Data: rows}, fmt.Errorf("%s feed: %w", s.name, err)
	}
	return Result{Source: s.name, Data: rows, Count: len(rows)}, nil
}

// Quotes reads the live price table, keeping the first QuoteLimit rows.
type Quotes struct {
	source
}

const QuoteLimit = 100

func NewQuotes(rawURL string, env Env) *Quotes {
	return &Quotes{source: newSource("quotes", rawURL, env)}
}

func (s *Quotes) Parse(_ context.Context, doc fetch.Document) (Result, error) {
	quotes := market.ParseQuotes(dom.Parse(doc.Body).Selection, QuoteLimit, s.env.diagnostics(s.name))
	out := market.NewQuoteDocument(quotes, utils.Host(s.url), s.env.now())
	return Result{Source: s.name, Data: out, Count: len(quotes)}, nil
}

// Brokers reads the broker directory. With a browser available it also
// renders every broker page and reads its research cards.
type Brokers struct {
	source
}

func NewBrokers(rawURL string, env Env) *Brokers {
	return &Brokers{source: newSource("brokers", rawURL, env)}
}

func (s *Brokers) Parse(ctx context.Context, doc fetch.Document) (Result, error) {
	brokers := market.ParseBrokers(dom.Parse(doc.Body).Selection, s.base(doc))
	if s.env.Browser != nil && len(brokers) > 0 {
		log := s.env.logger()
		brokers = fetch.Ordered(ctx, s.env.limit(), brokers, func(ctx context.Context, _ int, b market.Broker) market.Broker {
			page := fetch.OrEmpty(ctx, s.env.Browser, b.URL, log)
			if !page.Empty() {
				b.Recommendations = market.ParseRecommendations(dom.Parse(page.Body).Selection)
			}
			return b
		})
	}
	return Result{Source: s.name, Data: brokers, Count: len(brokers)}, nil
}
