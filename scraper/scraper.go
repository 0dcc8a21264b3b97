// Package scraper turns fetched source pages into records. Each site has a
// Source that knows its address and page layout; a Registry picks the
// source for a URL.
package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"bistscrapper/dom"
	"bistscrapper/fetch"
	"bistscrapper/logger"
	"bistscrapper/utils"
)

// ErrNoSource is returned when no registered source matches a name or URL.
var ErrNoSource = errors.New("scraper: no source")

// Result is what a source produced from one document.
type Result struct {
	Source string
	Data   any
	Count  int
}

// Source reads one kind of page.
type Source interface {
	Name() string
	// URL is the page the source reads by default.
	URL() string
	CanHandle(rawURL string) bool
	Parse(ctx context.Context, doc fetch.Document) (Result, error)
}

// Env carries what sources need besides the document itself.
type Env struct {
	// Fetcher reads detail pages.
	Fetcher fetch.Fetcher
	// Browser renders pages that need JavaScript. It may be nil.
	Browser     fetch.Fetcher
	Now         func() time.Time
	Concurrency int
	Log         logger.Logger
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e Env) logger() logger.Logger {
	if e.Log == nil {
		return logger.NewNop()
	}
	return e.Log
}

func (e Env) limit() int {
	if e.Concurrency < 1 {
		return 4
	}
	return e.Concurrency
}

// diagnostics reports skipped rows and cards at debug level.
func (e Env) diagnostics(source string) dom.Diagnostics {
	log := e.logger()
	return func(msg string, kv ...any) {
		log.Debug(msg, logger.String("source", source), logger.Any("details", kv))
	}
}

// Registry manages the available sources.
type Registry struct {
	sources []Source
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{sources: make([]Source, 0)}
}

// Register adds a source. Sources registered earlier win when several can
// handle a URL.
func (r *Registry) Register(sources ...Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, sources...)
}

// Find returns the first source that can handle rawURL, or nil.
func (r *Registry) Find(rawURL string) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if s.CanHandle(rawURL) {
			return s
		}
	}
	return nil
}

// Get returns the source with the given name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Names lists the registered sources in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}

// matcher decides whether a URL belongs to a source by host and path prefix.
type matcher struct {
	host string
	path string
}

func newMatcher(rawURL string) matcher {
	m := matcher{host: utils.Host(rawURL)}
	if u, err := url.Parse(utils.EnsureScheme(rawURL)); err == nil {
		m.path = strings.TrimRight(u.Path, "/")
	}
	return m
}

func (m matcher) match(rawURL string) bool {
	if m.host == "" || utils.Host(rawURL) != m.host {
		return false
	}
	u, err := url.Parse(utils.EnsureScheme(rawURL))
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimRight(u.Path, "/")+"/", m.path+"/")
}
