// Package pipeline runs the scrape jobs: every job scrapes its sources,
// shapes the results into published documents and writes them. A source
// that fails is logged and published as an empty document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bistscrapper/capital"
	"bistscrapper/ipo"
	"bistscrapper/logger"
	"bistscrapper/market"
	"bistscrapper/publish"
	"bistscrapper/scraper"
)

// Published file names, relative to the output directory.
const (
	FileIPOs            = "halkarz_ipos.json"
	FilePiapiri         = "piapiri_ipos.json"
	FileCapital         = "sermaye_artirimi.json"
	FileTargets         = "halkarz_target_prices.json"
	FileDividends       = "temettu.json"
	FileQuotes          = "bist_live_data.json"
	FileBrokers         = "brokers_tefas.json"
	DirDividendArchive  = "dividend_archives"
	DirDividendVersions = "dividend_versions"
)

// Job names.
const (
	JobIPOs      = "ipos"
	JobCapital   = "capital"
	JobTargets   = "targets"
	JobDividends = "dividends"
	JobQuotes    = "quotes"
	JobBrokers   = "brokers"
)

// VersionRetention is how long dated dividend snapshots are kept.
const VersionRetention = 30 * 24 * time.Hour

// ErrUnknownJob is returned for a job name Run does not know.
var ErrUnknownJob = errors.New("pipeline: unknown job")

// Scraper runs a named source.
type Scraper interface {
	Scrape(ctx context.Context, source string) (scraper.Result, error)
}

// Summary reports one job run.
type Summary struct {
	Job     string   `json:"job"`
	Records int      `json:"records"`
	Files   []string `json:"files"`
	// Failed lists the sources that were published empty.
	Failed []string `json:"failed,omitempty"`
}

type Runner struct {
	scraper   Scraper
	out       *publish.Writer
	log       logger.Logger
	metrics   *Metrics
	now       func() time.Time
	overrides []ipo.Override
	mu        sync.Mutex
}

type Option func(*Runner)

func WithOverrides(o []ipo.Override) Option  { return func(r *Runner) { r.overrides = o } }
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }
func WithMetrics(m *Metrics) Option         { return func(r *Runner) { r.metrics = m } }

func New(s Scraper, out *publish.Writer, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{scraper: s, out: out, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Jobs lists the job names in the order RunAll runs them.
func Jobs() []string {
	return []string{JobIPOs, JobCapital, JobTargets, JobDividends, JobQuotes, JobBrokers}
}

// RunAll runs every job. A job that fails to write does not stop the
// others; their errors are joined.
func (r *Runner) RunAll(ctx context.Context) ([]Summary, error) {
	var (
		summaries []Summary
		errs      []error
	)
	for _, job := range Jobs() {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		s, err := r.Run(ctx, job)
		summaries = append(summaries, s)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return summaries, errors.Join(errs...)
}

// Run runs one job. Runs are serialized so two refreshes never write the
// same file at once.
func (r *Runner) Run(ctx context.Context, job string) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{Job: job}
	var err error
	switch job {
	case JobIPOs:
		err = r.ipos(ctx, &s)
	case JobCapital:
		err = r.list(ctx, &s, JobCapital, FileCapital, []capital.Record{})
	case JobTargets:
		err = r.list(ctx, &s, JobTargets, FileTargets, []market.Row{})
	case JobDividends:
		err = r.dividends(ctx, &s)
	case JobQuotes:
		err = r.quotes(ctx, &s)
	case JobBrokers:
		err = r.list(ctx, &s, JobBrokers, FileBrokers, []market.Broker{})
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
	if err != nil {
		r.log.Error("job failed", logger.String("job", job), logger.Error(err))
		return s, err
	}
	r.log.Info("job finished",
		logger.String("job", job),
		logger.Int("records", s.Records),
		logger.Strings("files", s.Files),
		logger.Strings("failed", s.Failed))
	return s, nil
}

// scrape runs a source. On failure the result carries no data and the
// source is recorded as failed.
func (r *Runner) scrape(ctx context.Context, s *Summary, source string) scraper.Result {
	start := time.Now()
	res, err := r.scraper.Scrape(ctx, source)
	r.metrics.observe(source, time.Since(start), res.Count, err, r.now())
	if err != nil {
		r.log.Error("source failed, publishing an empty document",
			logger.String("source", source), logger.Error(err))
		s.Failed = append(s.Failed, source)
		return scraper.Result{Source: source}
	}
	return res
}

func (r *Runner) write(s *Summary, name string, v any) error {
	if err := r.out.WriteJSON(name, v); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.Files = append(s.Files, name)
	return nil
}

// list publishes a source whose result is a plain list. empty is written
// when the source fails.
func (r *Runner) list(ctx context.Context, s *Summary, source, file string, empty any) error {
	res := r.scrape(ctx, s, source)
	data := res.Data
	if data == nil {
		data = empty
	}
	s.Records = res.Count
	return r.write(s, file, data)
}

func records(res scraper.Result) []ipo.Record {
	if rs, ok := res.Data.([]ipo.Record); ok && rs != nil {
		return rs
	}
	return []ipo.Record{}
}

// ipos merges the halkarz and piapiri lists, halkarz first, partitions the
// result and puts the curated records on top.
func (r *Runner) ipos(ctx context.Context, s *Summary) error {
	halkarz := records(r.scrape(ctx, s, "halkarz"))
	piapiri := records(r.scrape(ctx, s, "piapiri"))

	if err := r.write(s, FilePiapiri, piapiri); err != nil {
		return err
	}
	merged := ipo.Merge(halkarz, piapiri)
	doc := ipo.ApplyOverrides(ipo.NewDocument(ipo.Partition(merged)), r.overrides)
	s.Records = len(doc.Active) + len(doc.Draft)
	return r.write(s, FileIPOs, doc)
}

// dividends keeps upcoming payments in the main file and moves past ones
// into yearly archives. The full feed is also kept as a dated snapshot.
func (r *Runner) dividends(ctx context.Context, s *Summary) error {
	res := r.scrape(ctx, s, JobDividends)
	rows, _ := res.Data.([]market.Row)
	now := r.now()

	a := market.SplitDividends(rows, now)
	if err := r.write(s, FileDividends, a.Active); err != nil {
		return err
	}
	s.Records = len(rows)
	if len(rows) == 0 {
		return nil
	}
	for _, year := range a.Index.Years {
		if err := r.write(s, DirDividendArchive+"/temettu_"+year+".json", a.ByYear[year]); err != nil {
			return err
		}
	}
	if err := r.write(s, DirDividendArchive+"/index.json", a.Index); err != nil {
		return err
	}
	name, err := r.out.Version(DirDividendVersions, "temettu", rows)
	if err != nil {
		return fmt.Errorf("snapshot dividends: %w", err)
	}
	s.Files = append(s.Files, name)
	removed, err := r.out.PruneVersions(DirDividendVersions, "temettu", VersionRetention)
	if err != nil {
		r.log.Warn("pruning dividend snapshots failed", logger.Error(err))
	} else if len(removed) > 0 {
		r.log.Info("old dividend snapshots removed", logger.Strings("files", removed))
	}
	return nil
}

func (r *Runner) quotes(ctx context.Context, s *Summary) error {
	res := r.scrape(ctx, s, JobQuotes)
	doc, ok := res.Data.(market.QuoteDocument)
	if !ok {
		doc = market.NewQuoteDocument(nil, "", r.now())
	}
	s.Records = doc.TotalStocks
	return r.write(s, FileQuotes, doc)
}
