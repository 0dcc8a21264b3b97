// Package browser renders JavaScript-driven pages with a pool of headless
// Chrome tabs.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bistscrapper/fetch"
	"bistscrapper/logger"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrPoolTimeout is returned when no tab frees up in time.
var ErrPoolTimeout = errors.New("browser: timeout waiting for a tab")

// Config sizes the pool and tunes page loads.
type Config struct {
	MinSize   int
	MaxSize   int
	UserAgent string
	// Settle is how long to wait after navigation before reading the DOM.
	Settle time.Duration
	// WaitFor, when set, is a CSS selector that must be visible before
	// the DOM is read.
	WaitFor string
}

// Pool manages a set of browser tabs for reuse.
type Pool struct {
	cfg           Config
	log           logger.Logger
	tabs          chan context.Context
	cancelFuncs   map[context.Context]context.CancelFunc
	mu            sync.Mutex
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	stop          chan struct{}
	currentSize   int
	initialized   bool
	scaleUpCount  int
	scaleDownTime time.Time
	waitQueue     int
}

// New creates a pool. Chrome is not started until the first Fetch.
func New(cfg Config, log logger.Logger) *Pool {
	if cfg.MinSize < 1 {
		cfg.MinSize = 1
	}
	if cfg.MaxSize < cfg.MinSize {
		cfg.MaxSize = cfg.MinSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 2 * time.Second
	}
	return &Pool{
		cfg:         cfg,
		log:         log,
		tabs:        make(chan context.Context, cfg.MaxSize),
		cancelFuncs: make(map[context.Context]context.CancelFunc),
	}
}

func (pool *Pool) initialize() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.initialized {
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(pool.cfg.UserAgent),
	)
	pool.allocCtx, pool.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	pool.stop = make(chan struct{})

	pool.scaleUp(pool.cfg.MinSize)
	go pool.autoScaler(pool.stop)

	pool.initialized = true
	pool.log.Info("browser pool initialized",
		logger.Int("size", pool.currentSize),
		logger.Int("min", pool.cfg.MinSize),
		logger.Int("max", pool.cfg.MaxSize))
}

func (pool *Pool) newTab() (context.Context, context.CancelFunc, error) {
	ctx, cancel := chromedp.NewContext(pool.allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	chromedp.ListenTarget(ctx, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() { _ = chromedp.Run(ctx, page.HandleJavaScriptDialog(true)) }()
		}
	})

	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
	defer initCancel()
	if err := chromedp.Run(initCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, nil, err
	}
	return ctx, cancel, nil
}

// scaleUp adds n tabs. The caller holds mu.
func (pool *Pool) scaleUp(n int) {
	added := 0
	for i := 0; i < n; i++ {
		ctx, cancel, err := pool.newTab()
		if err != nil {
			pool.log.Warn("browser tab failed to start", logger.Error(err))
			continue
		}
		pool.tabs <- ctx
		pool.cancelFuncs[ctx] = cancel
		pool.currentSize++
		added++
	}
	if added > 0 {
		pool.log.Debug("browser pool scaled up", logger.Int("added", added), logger.Int("size", pool.currentSize))
	}
}

// scaleDown closes up to n idle tabs, never going below the minimum. The
// caller holds mu.
func (pool *Pool) scaleDown(n int) {
	if pool.currentSize-n < pool.cfg.MinSize {
		n = pool.currentSize - pool.cfg.MinSize
	}
	for i := 0; i < n; i++ {
		select {
		case ctx := <-pool.tabs:
			if cancel, ok := pool.cancelFuncs[ctx]; ok {
				cancel()
				delete(pool.cancelFuncs, ctx)
				pool.currentSize--
			}
		default:
			return
		}
	}
	pool.scaleDownTime = time.Now()
}

func (pool *Pool) autoScaler(stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		pool.mu.Lock()
		size := pool.currentSize
		idle := len(pool.tabs)
		waiting := pool.waitQueue

		utilization := 0
		if size > 0 {
			utilization = 100 * (size - idle) / size
		}

		if (utilization > 80 || waiting > 0) && size < pool.cfg.MaxSize {
			toAdd := max(1, min(waiting, pool.cfg.MaxSize-size))
			pool.scaleUpCount++
			if pool.scaleUpCount > 3 {
				toAdd = min(toAdd*2, pool.cfg.MaxSize-size)
			}
			pool.scaleUp(toAdd)
		} else {
			pool.scaleUpCount = 0
		}

		if utilization < 30 && size > pool.cfg.MinSize && time.Since(pool.scaleDownTime) > 2*time.Minute {
			if excess := min(idle-max(1, size/5), size-pool.cfg.MinSize); excess > 0 {
				pool.scaleDown(excess)
			}
		}
		pool.mu.Unlock()
	}
}

// acquire takes a tab, growing the pool when all are busy. The returned
// release puts the tab back after clearing its state.
func (pool *Pool) acquire(ctx context.Context) (context.Context, func(), error) {
	pool.initialize()

	pool.mu.Lock()
	pool.waitQueue++
	pool.mu.Unlock()
	defer func() {
		pool.mu.Lock()
		pool.waitQueue--
		pool.mu.Unlock()
	}()

	select {
	case tab := <-pool.tabs:
		return tab, pool.releaser(tab), nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}

	pool.mu.Lock()
	if pool.currentSize < pool.cfg.MaxSize {
		tab, cancel, err := pool.newTab()
		if err != nil {
			pool.mu.Unlock()
			return nil, nil, fmt.Errorf("failed to create new browser tab: %w", err)
		}
		pool.cancelFuncs[tab] = cancel
		pool.currentSize++
		pool.mu.Unlock()
		return tab, pool.releaser(tab), nil
	}
	pool.mu.Unlock()

	select {
	case tab := <-pool.tabs:
		return tab, pool.releaser(tab), nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return nil, nil, ErrPoolTimeout
	}
}

func (pool *Pool) releaser(tab context.Context) func() {
	return func() {
		resetCtx, cancel := context.WithTimeout(tab, 3*time.Second)
		defer cancel()
		_ = chromedp.Run(resetCtx,
			network.ClearBrowserCookies(),
			chromedp.Navigate("about:blank"),
		)

		select {
		case pool.tabs <- tab:
		default:
			pool.mu.Lock()
			if cancel, ok := pool.cancelFuncs[tab]; ok {
				cancel()
				delete(pool.cancelFuncs, tab)
				pool.currentSize--
			}
			pool.mu.Unlock()
		}
	}
}

// Render loads rawURL in a tab, waits for the page to settle and returns
// the outer HTML of the document.
func (pool *Pool) Render(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	tab, release, err := pool.acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get browser tab: %w", err)
	}
	defer release()

	runCtx, cancel := context.WithTimeout(tab, timeout)
	defer cancel()
	stopOnParent := context.AfterFunc(ctx, cancel)
	defer stopOnParent()

	actions := []chromedp.Action{chromedp.Navigate(rawURL)}
	if pool.cfg.WaitFor != "" {
		actions = append(actions, chromedp.WaitVisible(pool.cfg.WaitFor, chromedp.ByQuery))
	}
	var html string
	actions = append(actions,
		chromedp.Sleep(pool.cfg.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", rawURL, err)
	}
	return html, nil
}

// Fetch renders rawURL with a 45 second budget, so a Pool can stand in
// wherever a fetch.Fetcher is expected.
func (pool *Pool) Fetch(ctx context.Context, rawURL string) (fetch.Document, error) {
	html, err := pool.Render(ctx, rawURL, 45*time.Second)
	if err != nil {
		return fetch.Document{}, err
	}
	return fetch.Document{URL: rawURL, Body: []byte(html), FetchedAt: time.Now()}, nil
}

// Shutdown closes every tab and the browser process.
func (pool *Pool) Shutdown() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if !pool.initialized {
		return
	}
	close(pool.stop)
	for ctx, cancel := range pool.cancelFuncs {
		cancel()
		delete(pool.cancelFuncs, ctx)
	}
	if pool.allocCancel != nil {
		pool.allocCancel()
	}
	for len(pool.tabs) > 0 {
		<-pool.tabs
	}
	pool.currentSize = 0
	pool.initialized = false
	pool.log.Info("browser pool shut down")
}
