// Package fetch downloads source pages the way a browser would and hands
// them over as raw documents.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bistscrapper/cache"
	"bistscrapper/logger"
	"bistscrapper/utils"
)

var (
	// ErrAllProfilesFailed means every header profile was tried without a
	// successful response.
	ErrAllProfilesFailed = errors.New("fetch: all profiles failed")
	// ErrStatus wraps a non-200 response.
	ErrStatus = errors.New("fetch: unexpected status")
)

// Document is raw page content as received.
type Document struct {
	URL       string    `json:"url"`
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Empty reports whether the document carries no content.
func (d Document) Empty() bool {
	return len(d.Body) == 0
}

// Fetcher retrieves a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// Client is an HTTP Fetcher that retries with each header profile in turn.
type Client struct {
	http     *http.Client
	profiles []Profile
	delay    time.Duration
	referer  string
	store    cache.Store
	ttl      time.Duration
	log      logger.Logger
	now      func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }
func WithProfiles(p ...Profile) Option    { return func(cl *Client) { cl.profiles = p } }
func WithDelay(d time.Duration) Option    { return func(cl *Client) { cl.delay = d } }
func WithReferer(r string) Option         { return func(cl *Client) { cl.referer = r } }
func WithLogger(l logger.Logger) Option   { return func(cl *Client) { cl.log = l } }

// WithCache memoizes successful fetches for ttl.
func WithCache(s cache.Store, ttl time.Duration) Option {
	return func(cl *Client) { cl.store, cl.ttl = s, ttl }
}

// New builds a Client. Without options it uses a 30 second timeout, the
// default profiles and a two second pause between attempts.
func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		profiles: DefaultProfiles,
		delay:    2 * time.Second,
		log:      logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads rawURL, trying each profile until one returns 200.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Document, error) {
	rawURL = utils.EnsureScheme(rawURL)
	return cache.Memoize(ctx, c.store, "fetch:"+rawURL, c.ttl, func() (Document, error) {
		return c.fetch(ctx, rawURL)
	})
}

func (c *Client) fetch(ctx context.Context, rawURL string) (Document, error) {
	var lastErr error
	for i, p := range c.profiles {
		if i > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return Document{}, ctx.Err()
			case <-time.After(c.delay):
			}
		}
		body, err := c.try(ctx, rawURL, p)
		if err == nil {
			c.log.Debug("fetched", logger.String("url", rawURL), logger.String("profile", p.Name), logger.Int("bytes", len(body)))
			return Document{URL: rawURL, Body: body, FetchedAt: c.now()}, nil
		}
		c.log.Warn("fetch attempt failed",
			logger.String("url", rawURL),
			logger.String("profile", p.Name),
			logger.Int("attempt", i+1),
			logger.Error(err))
		lastErr = err
		if ctx.Err() != nil {
			return Document{}, ctx.Err()
		}
	}
	return Document{}, fmt.Errorf("%w: %s: %v", ErrAllProfilesFailed, rawURL, lastErr)
}

func (c *Client) try(ctx context.Context, rawURL string, p Profile) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.apply(req.Header)
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return decodeBody(resp)
}

// OrEmpty fetches rawURL and turns any failure into an empty document, so
// that parsers downstream produce empty, well-formed output.
func OrEmpty(ctx context.Context, f Fetcher, rawURL string, log logger.Logger) Document {
	doc, err := f.Fetch(ctx, rawURL)
	if err != nil {
		log.Error("fetch failed, continuing with an empty document", logger.String("url", rawURL), logger.Error(err))
		return Document{URL: rawURL, FetchedAt: time.Now()}
	}
	return doc
}
