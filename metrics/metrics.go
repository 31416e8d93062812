package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline series. It satisfies the observers of the opensea client,
// the price cache and the batch runner.
type Metrics struct {
	ItemsTotal         *prometheus.CounterVec
	ExtractDuration    prometheus.Histogram
	ApiPagesTotal      *prometheus.CounterVec
	PriceCacheTotal    *prometheus.CounterVec
	BatchFailuresTotal *prometheus.CounterVec
}

// New registers every series on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nftcatalog_items_total",
				Help: "Links processed, by job and outcome",
			},
			[]string{"job", "outcome"},
		),
		ExtractDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nftcatalog_extract_seconds",
				Help:    "Time spent extracting one profile",
				Buckets: prometheus.DefBuckets,
			},
		),
		ApiPagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nftcatalog_api_pages_total",
				Help: "Pages and documents fetched from the marketplace",
			},
			[]string{"api"},
		),
		PriceCacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nftcatalog_price_cache_total",
				Help: "Historical price lookups, by result",
			},
			[]string{"result"},
		),
		BatchFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nftcatalog_batch_failures_total",
				Help: "Links that failed inside a batch",
			},
			[]string{"job"},
		),
	}
}

func (m *Metrics) PageFetched(api string) {
	m.ApiPagesTotal.WithLabelValues(api).Inc()
}

func (m *Metrics) PriceLookup(result string) {
	m.PriceCacheTotal.WithLabelValues(result).Inc()
}

// ItemProcessed only keeps the job kind ("walk doodles" is counted as "walk") so the
// label set stays small.
func (m *Metrics) ItemProcessed(job, outcome string) {
	m.ItemsTotal.WithLabelValues(jobKind(job), outcome).Inc()
}

func (m *Metrics) ExtractObserved(d time.Duration) {
	m.ExtractDuration.Observe(d.Seconds())
}

func (m *Metrics) BatchFailed(job string, failures int) {
	m.BatchFailuresTotal.WithLabelValues(jobKind(job)).Add(float64(failures))
}

func jobKind(job string) string {
	kind, _, _ := strings.Cut(job, " ")
	return kind
}
