package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/typedcache/core/cache"
	"github.com/codewandler/typedcache/core/metrics"
)

// cacheMetrics implements cache.CacheMetrics using Prometheus.
type cacheMetrics struct {
	// Access metrics
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec

	// Loader metrics
	loadDuration *prometheus.HistogramVec
	loads        *prometheus.CounterVec

	// Item metrics
	added   *prometheus.CounterVec
	removed *prometheus.CounterVec
	items   *prometheus.GaugeVec
	flushes *prometheus.CounterVec

	// Expiration metrics
	sweepDuration  *prometheus.HistogramVec
	callbackPanics *prometheus.CounterVec
}

// NewCacheMetrics creates a new Prometheus implementation of CacheMetrics.
func NewCacheMetrics(reg prometheus.Registerer) cache.CacheMetrics {
	m := &cacheMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typedcache_hits_total",
			Help: "Total number of value lookups served from the table",
		}, []string{"table"}),

		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typedcache_misses_total",
			Help: "Total number of value lookups that missed the table",
		}, []string{"table"}),

		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typedcache_load_duration_seconds",
			Help:    "Data loader latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"table"}),

		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typedcache_loads_total",
			Help: "Total number of data loader calls",
		}, []string{"table", "success"}),

		added: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typedcache_items_added_total",
			Help: "Total number of items added",
		}, []string{"table"}),

		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typedcache_items_removed_total",
			Help: "Total number of items removed",
		}, []string{"table", "reason"}),

		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "typedcache_items",
			Help: "Number of items in the table",
		}, []string{"table"}),

		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typedcache_flushes_total",
			Help: "Total number of table flushes",
		}, []string{"table"}),

		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typedcache_sweep_duration_seconds",
			Help:    "Expiration sweep latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"table"}),

		callbackPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typedcache_callback_panics_total",
			Help: "Total number of callbacks that panicked during expiration",
		}, []string{"table"}),
	}

	reg.MustRegister(
		m.hits,
		m.misses,
		m.loadDuration,
		m.loads,
		m.added,
		m.removed,
		m.items,
		m.flushes,
		m.sweepDuration,
		m.callbackPanics,
	)

	return m
}

func (m *cacheMetrics) Hit(table string) {
	m.hits.WithLabelValues(table).Inc()
}

func (m *cacheMetrics) Miss(table string) {
	m.misses.WithLabelValues(table).Inc()
}

func (m *cacheMetrics) LoadDuration(table string) metrics.Timer {
	return newTimer(m.loadDuration.WithLabelValues(table))
}

func (m *cacheMetrics) Loaded(table string, success bool) {
	m.loads.WithLabelValues(table, boolToStr(success)).Inc()
}

func (m *cacheMetrics) ItemAdded(table string) {
	m.added.WithLabelValues(table).Inc()
}

func (m *cacheMetrics) ItemRemoved(table string, reason cache.RemoveReason) {
	m.removed.WithLabelValues(table, string(reason)).Inc()
}

func (m *cacheMetrics) Items(table string, count int) {
	m.items.WithLabelValues(table).Set(float64(count))
}

func (m *cacheMetrics) Flushed(table string) {
	m.flushes.WithLabelValues(table).Inc()
}

func (m *cacheMetrics) SweepDuration(table string) metrics.Timer {
	return newTimer(m.sweepDuration.WithLabelValues(table))
}

func (m *cacheMetrics) CallbackPanic(table string) {
	m.callbackPanics.WithLabelValues(table).Inc()
}

var _ cache.CacheMetrics = (*cacheMetrics)(nil)
