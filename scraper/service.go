package scraper

import (
	"context"
	"fmt"

	"bistscrapper/fetch"
	"bistscrapper/logger"
	"bistscrapper/utils"
)

// Service fetches a source's page and hands it to the source.
type Service struct {
	fetcher  fetch.Fetcher
	fetchers map[string]fetch.Fetcher
	registry *Registry
	log      logger.Logger
}

// NewService creates a service that fetches with f unless a source has its
// own fetcher.
func NewService(f fetch.Fetcher, registry *Registry, log logger.Logger) *Service {
	return &Service{
		fetcher:  f,
		fetchers: make(map[string]fetch.Fetcher),
		registry: registry,
		log:      log,
	}
}

// UseFetcher makes the named source fetch with f, for sources that need a
// referer or a browser.
func (s *Service) UseFetcher(source string, f fetch.Fetcher) {
	s.fetchers[source] = f
}

// Registry returns the sources the service knows.
func (s *Service) Registry() *Registry { return s.registry }

// Scrape reads the named source's default page.
func (s *Service) Scrape(ctx context.Context, name string) (Result, error) {
	src, ok := s.registry.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrNoSource, name)
	}
	return s.run(ctx, src, src.URL())
}

// ScrapeURL reads rawURL with the first source that can handle it.
func (s *Service) ScrapeURL(ctx context.Context, rawURL string) (Result, error) {
	rawURL = utils.EnsureScheme(rawURL)
	src := s.registry.Find(rawURL)
	if src == nil {
		return Result{}, fmt.Errorf("%w for %s", ErrNoSource, rawURL)
	}
	return s.run(ctx, src, rawURL)
}

func (s *Service) run(ctx context.Context, src Source, rawURL string) (Result, error) {
	f := s.fetcher
	if own, ok := s.fetchers[src.Name()]; ok {
		f = own
	}
	doc, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return Result{Source: src.Name()}, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}
	res, err := src.Parse(ctx, doc)
	if err != nil {
		return Result{Source: src.Name()}, fmt.Errorf("parse %s: %w", src.Name(), err)
	}
	s.log.Info("source scraped",
		logger.String("source", src.Name()),
		logger.String("url", rawURL),
		logger.Int("records", res.Count))
	return res, nil
}
