package suggest

import "github.com/prometheus/client_golang/prometheus"

var (
	// suggestionRequests counts provider calls by outcome: "success" or one
	// of the error categories.
	suggestionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_suggestion_requests_total",
			Help: "Total number of suggestion requests sent to the provider, by outcome.",
		},
		[]string{"outcome"},
	)

	// suggestionCacheHits counts suggestions served from the cache.
	suggestionCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_suggestion_cache_hits_total",
			Help: "Total number of suggestions served from the cache.",
		},
	)

	// suggestionLatency records provider round-trip time in seconds.
	suggestionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "intake_suggestion_duration_seconds",
			Help:    "Duration of suggestion provider calls in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(suggestionRequests, suggestionCacheHits, suggestionLatency)
}
