package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "bist"
	MetricsSubsystem = "scraper"
)

// Metrics counts source runs and their outcome.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	DurationSeconds *prometheus.HistogramVec
	Records         *prometheus.GaugeVec
	LastSuccess     *prometheus.GaugeVec
}

// NewMetrics creates and registers the metrics on reg, or on the default
// registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_total",
			Help:      "Source scrapes by result",
		}, []string{"source", "result"}),
		DurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Time spent fetching and parsing a source",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"source"}),
		Records: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "records",
			Help:      "Records produced by the last scrape of a source",
		}, []string{"source"}),
		LastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful scrape of a source",
		}, []string{"source"}),
	}
}

func (m *Metrics) observe(source string, took time.Duration, records int, err error, now time.Time) {
	if m == nil {
		return
	}
	m.DurationSeconds.WithLabelValues(source).Observe(took.Seconds())
	if err != nil {
		m.RunsTotal.WithLabelValues(source, "error").Inc()
		m.Records.WithLabelValues(source).Set(0)
		return
	}
	m.RunsTotal.WithLabelValues(source, "ok").Inc()
	m.Records.WithLabelValues(source).Set(float64(records))
	m.LastSuccess.WithLabelValues(source).Set(float64(now.Unix()))
}
