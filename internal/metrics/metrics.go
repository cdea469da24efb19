// Package metrics exposes Prometheus instrumentation for a running engine:
// per-filter rejection counters, selection/dedup counters, and round
// duration histograms.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/optionstrat/engine/internal/constraints"
)

// Registry bundles the engine's Prometheus collectors. Callers register it
// into whatever prometheus.Registerer their process uses (or use NewRegistry
// for a standalone one).
type Registry struct {
	CandidatesGenerated prometheus.Counter
	CandidatesFiltered  *prometheus.CounterVec
	CandidatesDeduped   prometheus.Counter
	CandidatesSelected  prometheus.Counter
	RoundDuration       prometheus.Histogram
	LegDuration         *prometheus.HistogramVec
}

// NewRegistry builds a Registry and registers its collectors on reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		CandidatesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optstrat",
			Name:      "candidates_generated_total",
			Help:      "Total candidates aggregated across all leg counts.",
		}),
		CandidatesFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optstrat",
			Name:      "candidates_filtered_total",
			Help:      "Candidates rejected, labeled by the filter that rejected them.",
		}, []string{"filter"}),
		CandidatesDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optstrat",
			Name:      "candidates_deduplicated_total",
			Help:      "Candidates dropped as payoff-equivalent duplicates.",
		}),
		CandidatesSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optstrat",
			Name:      "candidates_selected_total",
			Help:      "Candidates retained in a final ranking.",
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optstrat",
			Name:      "round_duration_seconds",
			Help:      "Wall time of a full process_multi round.",
			Buckets:   prometheus.DefBuckets,
		}),
		LegDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "optstrat",
			Name:      "leg_count_duration_seconds",
			Help:      "Wall time spent evaluating one leg count.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"legs"}),
	}

	reg.MustRegister(
		r.CandidatesGenerated,
		r.CandidatesFiltered,
		r.CandidatesDeduped,
		r.CandidatesSelected,
		r.RoundDuration,
		r.LegDuration,
	)
	return r
}

// RecordFilterCounters copies a constraints.Counters snapshot into the
// filtered-by-filter vector.
func (r *Registry) RecordFilterCounters(c constraints.Counters) {
	for id := constraints.FilterID(0); id < constraints.FilterCount; id++ {
		if n := c[id]; n > 0 {
			r.CandidatesFiltered.WithLabelValues(id.String()).Add(float64(n))
		}
	}
}
