package dedupe

import "time"

// PollStrategy models the delay sequence and overall deadline governing how
// long TryStart waits on an in-flight peer. It is a pure value: NextDelay
// must be a deterministic function of (pollNo, prev), with no side effects,
// so the sequence it produces is reproducible in tests.
//
// The zero value is not directly usable; construct one with
// DefaultPollStrategy, or fill in all three fields.
type PollStrategy struct {
	// InitialDelay is the wait before the first poll, after an initial claim
	// attempt observes Started. Must be > 0.
	InitialDelay time.Duration

	// MaxPollDuration bounds the cumulative wall time TryStart may spend
	// polling, measured from its first claim attempt. Exceeding it fails
	// the call with ErrPollTimeout. Must be > 0.
	MaxPollDuration time.Duration

	// NextDelay computes the delay before poll number pollNo+1, given the
	// previous delay. pollNo is 0 for the delay following the very first
	// poll attempt. Must be non-nil and must return a positive duration.
	NextDelay func(pollNo int, prev time.Duration) time.Duration
}

// DefaultPollStrategy returns the built-in policy: a 50ms initial delay, a
// 5s overall polling deadline, and exponential backoff capped at 2s
// (DefaultNextDelay).
func DefaultPollStrategy() PollStrategy {
	return PollStrategy{
		InitialDelay:    50 * time.Millisecond,
		MaxPollDuration: 5 * time.Second,
		NextDelay:       DefaultNextDelay,
	}
}

// DefaultNextDelayCap is the ceiling DefaultNextDelay backs off towards.
const DefaultNextDelayCap = 2 * time.Second

// DefaultNextDelay implements exponential backoff with a cap:
// min(prev*1.5, DefaultNextDelayCap).
func DefaultNextDelay(_ int, prev time.Duration) time.Duration {
	next := time.Duration(float64(prev) * 1.5)
	if next > DefaultNextDelayCap {
		return DefaultNextDelayCap
	}
	if next <= 0 {
		return DefaultNextDelayCap
	}
	return next
}

func (p PollStrategy) isZero() bool {
	return p.InitialDelay == 0 && p.MaxPollDuration == 0 && p.NextDelay == nil
}

func (p PollStrategy) validate() error {
	if p.InitialDelay <= 0 {
		return errInvalidConfig("PollStrategy.InitialDelay must be > 0")
	}
	if p.MaxPollDuration <= 0 {
		return errInvalidConfig("PollStrategy.MaxPollDuration must be > 0")
	}
	if p.NextDelay == nil {
		return errInvalidConfig("PollStrategy.NextDelay must not be nil")
	}
	return nil
}
