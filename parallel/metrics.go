package parallel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeLabel = "mode"

	modeThreaded   = "threaded"
	modeSequential = "sequential"
)

var (
	passCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sculptree_parallel_passes",
		Help: "The number of range passes executed.",
	}, []string{
		modeLabel,
	})

	passItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sculptree_parallel_items",
		Help: "The number of items processed by range passes.",
	}, []string{
		modeLabel,
	})

	passDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sculptree_parallel_pass_duration_seconds",
		Help:    "The time to execute a range pass.",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{
		modeLabel,
	})
)

func instrumentPass(mode string, items int, start time.Time) {
	labels := prometheus.Labels{modeLabel: mode}
	passCount.With(labels).Inc()
	passItems.With(labels).Add(float64(items))
	passDuration.With(labels).Observe(time.Since(start).Seconds())
}
