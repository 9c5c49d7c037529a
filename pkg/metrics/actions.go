package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ActionMetrics tracks processed registration actions and duplicate searches.
type ActionMetrics struct {
	processed      *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	dedupSearches  prometheus.Counter
	dedupHits      prometheus.Counter
	searchDuration prometheus.Histogram
}

// NewActionMetrics registers the action pipeline metrics on the provided registerer.
func NewActionMetrics(reg prometheus.Registerer) *ActionMetrics {
	if reg == nil {
		return &ActionMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actions_processed_total",
		Help: "Committed registration actions by type and status.",
	}, []string{"action", "status"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actions_rejected_total",
		Help: "Actions rejected before commit by reason.",
	}, []string{"action", "reason"})
	dedupSearches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dedup_searches_total",
		Help: "Duplicate searches executed.",
	})
	dedupHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dedup_hits_total",
		Help: "Duplicate searches that returned at least one candidate.",
	})
	searchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dedup_search_duration_seconds",
		Help:    "Duration of duplicate searches in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(processed, rejected, dedupSearches, dedupHits, searchDuration)
	return &ActionMetrics{
		processed:      processed,
		rejected:       rejected,
		dedupSearches:  dedupSearches,
		dedupHits:      dedupHits,
		searchDuration: searchDuration,
	}
}

// IncProcessed increments the processed counter for the action/status pair.
func (a *ActionMetrics) IncProcessed(action, status string) {
	if a == nil || a.processed == nil {
		return
	}
	a.processed.WithLabelValues(normalizeLabel(action), normalizeLabel(status)).Inc()
}

// IncRejected increments the rejection counter for the action/reason pair.
func (a *ActionMetrics) IncRejected(action, reason string) {
	if a == nil || a.rejected == nil {
		return
	}
	a.rejected.WithLabelValues(normalizeLabel(action), normalizeLabel(reason)).Inc()
}

// ObserveDedupSearch records one duplicate search and whether it matched.
func (a *ActionMetrics) ObserveDedupSearch(duration time.Duration, hit bool) {
	if a == nil || a.dedupSearches == nil {
		return
	}
	a.dedupSearches.Inc()
	if hit {
		a.dedupHits.Inc()
	}
	a.searchDuration.Observe(duration.Seconds())
}
