package dedupe

import "sync/atomic"

// statsCounters holds the live atomic counters backing Coordinator.Stats,
// so a snapshot can be taken without locking.
type statsCounters struct {
	claims       atomic.Int64
	notStarted   atomic.Int64
	reclaims     atomic.Int64
	seen         atomic.Int64
	polls        atomic.Int64
	pollTimeouts atomic.Int64
	completions  atomic.Int64
	errors       atomic.Int64
}
