package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bistscrapper/browser"
	"bistscrapper/cache"
	"bistscrapper/config"
	"bistscrapper/fetch"
	"bistscrapper/logger"
	"bistscrapper/pipeline"
	"bistscrapper/publish"
	"bistscrapper/scraper"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is everything a command needs, built from the configuration.
type app struct {
	cfg      config.Config
	log      logger.Logger
	service  *scraper.Service
	runner   *pipeline.Runner
	out      *publish.Writer
	registry *prometheus.Registry
	closers  []func()
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.LogLevel = "debug"
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, out: publish.New(cfg.OutputDir)}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	store := a.cacheStore(ctx)
	client := func(referer string) *fetch.Client {
		return fetch.New(
			fetch.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
			fetch.WithDelay(cfg.Fetch.ProfileDelay),
			fetch.WithReferer(referer),
			fetch.WithLogger(log),
			fetch.WithCache(store, cfg.Fetch.CacheTTL),
		)
	}
	base := client("")

	env := scraper.Env{Fetcher: base, Concurrency: cfg.Fetch.Concurrency, Log: log}
	if cfg.Browser.Enabled {
		pool := browser.New(browser.Config{MinSize: cfg.Browser.MinSize, MaxSize: cfg.Browser.MaxSize}, log)
		env.Browser = pool
		a.closers = append(a.closers, pool.Shutdown)
	}

	a.service = scraper.NewService(base, scraper.NewDefaultRegistry(cfg.Sources, env), log)
	for source, referer := range cfg.Referers {
		a.service.UseFetcher(source, client(referer))
	}

	overrides, err := config.LoadOverrides(cfg.OverridesFile, time.Now())
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.runner = pipeline.New(a.service, a.out, log,
		pipeline.WithOverrides(overrides),
		pipeline.WithMetrics(pipeline.NewMetrics(a.registry)))
	return a, nil
}

// cacheStore uses Redis when configured and reachable, memory otherwise.
func (a *app) cacheStore(ctx context.Context) cache.Store {
	if a.cfg.Redis.Addr == "" {
		return cache.NewMemory()
	}
	rs := cache.NewRedis(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		a.log.Warn("redis unavailable, caching in memory", logger.String("addr", a.cfg.Redis.Addr), logger.Error(err))
		_ = rs.Close()
		return cache.NewMemory()
	}
	a.closers = append(a.closers, func() { _ = rs.Close() })
	return rs
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
