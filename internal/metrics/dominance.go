package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for computations and cache lookups
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	CacheHit     = "hit"
	CacheMiss    = "miss"
)

// Dominance groups the collectors recorded per computation
type Dominance struct {
	computations *prometheus.CounterVec
	duration     prometheus.Histogram
	regions      prometheus.Gauge
	winningCells prometheus.Gauge
	votes        prometheus.Gauge
	degenerate   prometheus.Counter
	cacheLookups *prometheus.CounterVec
}

// NewDominance creates the collectors and registers them with reg when non-nil
func NewDominance(reg prometheus.Registerer) *Dominance {
	d := &Dominance{
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Dominance computations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Wall time of dominance computations, cache hits excluded.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions",
			Help:      "Regions in the latest result.",
		}),
		winningCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "winning_cells",
			Help:      "Cells with a winner in the latest result.",
		}),
		votes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "votes",
			Help:      "Votes considered by the latest computation.",
		}),
		degenerate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_regions_total",
			Help:      "Regions whose outline could not be traced.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(d.computations, d.duration, d.regions, d.winningCells, d.votes, d.degenerate, d.cacheLookups)
	}
	return d
}

// ObserveComputation records a finished run
func (d *Dominance) ObserveComputation(elapsed time.Duration, votes, regions, winningCells, degenerate int) {
	d.computations.WithLabelValues(OutcomeOK).Inc()
	d.duration.Observe(elapsed.Seconds())
	d.votes.Set(float64(votes))
	d.regions.Set(float64(regions))
	d.winningCells.Set(float64(winningCells))
	d.degenerate.Add(float64(degenerate))
}

func (d *Dominance) ObserveFailure() {
	d.computations.WithLabelValues(OutcomeError).Inc()
}

func (d *Dominance) ObserveCache(hit bool) {
	if hit {
		d.cacheLookups.WithLabelValues(CacheHit).Inc()
		return
	}
	d.cacheLookups.WithLabelValues(CacheMiss).Inc()
}
