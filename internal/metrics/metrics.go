// Package metrics provides the centralized Prometheus registry for the
// race scanner.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RacesFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "races_fetched_total",
		Help:      "Raw race records fetched, by source",
	}, []string{"source"})
	SourceFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "source_failures_total",
		Help:      "Adapter fetch failures, by source",
	}, []string{"source"})
	MalformedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "malformed_records_total",
		Help:      "Raw records dropped before grouping for missing mandatory fields",
	})
	RacesMergedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "races_merged_total",
		Help:      "Raw records folded into an existing dedup bucket",
	})
	EnrichmentMatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "enrichment_matches_total",
		Help:      "Races that gained a form guide link",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "cache_hits_total",
		Help:      "HTTP response cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "cache_misses_total",
		Help:      "HTTP response cache misses",
	})
	MarketEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "race_scanner",
		Name:      "market_events_total",
		Help:      "Steamer/drifter events detected, by kind",
	}, []string{"kind"})
)

// Gauge metrics
var (
	LastScanRaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "race_scanner",
		Name:      "last_scan_races",
		Help:      "Merged races produced by the most recent scan",
	})
	ActiveSources = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "race_scanner",
		Name:      "active_sources",
		Help:      "Number of enabled source adapters",
	})
)

// Histogram metrics
var (
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "race_scanner",
		Name:      "source_fetch_duration_seconds",
		Help:      "Duration of one adapter's fetch pass",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "race_scanner",
		Name:      "scan_duration_seconds",
		Help:      "Duration of a full scan run",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
)

// Registry returns the singleton registry with all metrics registered.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			RacesFetchedTotal,
			SourceFailuresTotal,
			MalformedRecordsTotal,
			RacesMergedTotal,
			EnrichmentMatchesTotal,
			CacheHitsTotal,
			CacheMissesTotal,
			MarketEventsTotal,
			LastScanRaces,
			ActiveSources,
			SourceFetchDuration,
			ScanDuration,
		)
	})
	return registry
}

// Handler returns an HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}
