package gossipvalidation

import (
	"time"

	leakybucket "github.com/kevinms/leakybucket-go"
	"github.com/paulbellamy/ratecounter"
)

// Limiter applies best-effort backpressure to gossip ingestion: a leaky
// bucket per source that drops (never blocks) envelopes over the
// configured rate, plus a rolling throughput counter for metrics.
type Limiter struct {
	bucket    *leakybucket.Collector
	counter   *ratecounter.RateCounter
}

// NewLimiter builds a Limiter allowing ratePerSecond envelopes/sec with
// a burst capacity of burst, tracking a 1-second rolling throughput
// window.
func NewLimiter(ratePerSecond float64, burst int64) *Limiter {
	return &Limiter{
		bucket:  leakybucket.NewCollector(ratePerSecond, burst, true),
		counter: ratecounter.NewRateCounter(1 * time.Second),
	}
}

// Allow accounts for one envelope from source and reports whether it
// should be processed (true) or dropped under backpressure (false).
func (l *Limiter) Allow(source string) bool {
	l.counter.Incr(1)
	return l.bucket.Add(source, 1) != 0
}

// Throughput returns the current rolling envelopes/sec figure.
func (l *Limiter) Throughput() int64 {
	return l.counter.Rate()
}
