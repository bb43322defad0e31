// Package prometheus provides the Prometheus implementation of the cache
// metrics interface.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/typedcache/core/metrics"
)

// newTimer returns a Timer that records seconds into h.
func newTimer(h prometheus.Observer) metrics.Timer {
	return metrics.Since(func(d time.Duration) {
		h.Observe(d.Seconds())
	})
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5,
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
