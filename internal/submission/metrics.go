package submission

import "github.com/prometheus/client_golang/prometheus"

var (
	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of application submissions, by outcome (success, invalid, failed).",
		},
		[]string{"outcome"},
	)

	submissionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "intake_submission_duration_seconds",
			Help:    "Duration of submission backend calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(submissions, submissionLatency)
}
