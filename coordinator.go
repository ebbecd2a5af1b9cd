package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type (
	// Config models the (mandatory, unless noted) configuration for a
	// Coordinator.
	Config[ID, ProcessorID any] struct {
		// ProcessorID namespaces this Coordinator's id-space within a
		// shared table, allowing multiple logical processors to use the
		// same underlying Store safely.
		ProcessorID ProcessorID

		// MaxProcessingTime is the duration after which a Started record is
		// considered abandoned, and eligible for reclaim. Must be > 0.
		MaxProcessingTime time.Duration

		// TTL is added to the completion time to produce ExpiresOn, the
		// instant after which the store may evict the record. Must be > 0.
		TTL time.Duration

		// PollStrategy governs how TryStart waits on an in-flight peer.
		// Defaults to DefaultPollStrategy() if zero.
		PollStrategy PollStrategy

		// Clock supplies "now". Defaults to SystemClock if nil.
		Clock Clock

		// Logger, if non-nil, receives structured events for each
		// suspension point (claim, classify, poll, commit). A nil Logger
		// disables logging entirely; this is a documented no-op, not an
		// error.
		Logger *zerolog.Logger
	}

	// Stats is a point-in-time snapshot of a Coordinator's counters. It is
	// plain instrumentation for a caller's own metrics pipeline; this
	// package does not ship a metrics exporter.
	Stats struct {
		Claims       int64 // Claim calls that succeeded (failures count under Errors)
		NotStarted   int64 // claims that found no prior record
		Reclaims     int64 // claims that found a Timeout'd record
		Seen         int64 // claims that found a Completed record
		Polls        int64 // polls performed while waiting on Started
		PollTimeouts int64 // TryStart calls that failed with ErrPollTimeout
		Completions  int64 // successful Commit calls
		Errors       int64 // Claim/Commit calls that returned an error
	}

	// Coordinator drives the claim/poll/complete state machine described
	// for the deduplication core. It holds no in-memory cache of record
	// state between calls; the Store row is the only shared mutable
	// resource. A Coordinator is safe for concurrent use by multiple
	// goroutines, on the same or different ids, provided its Store is.
	Coordinator[ID, ProcessorID any] struct {
		store Store[ID, ProcessorID]
		cfg   Config[ID, ProcessorID]
		stats statsCounters
	}
)

// New constructs a Coordinator. It panics if store is nil or cfg is
// invalid (MaxProcessingTime or TTL <= 0, or a non-zero PollStrategy that
// fails its own validation); unset optional fields (PollStrategy, Clock)
// are defaulted.
func New[ID, ProcessorID any](store Store[ID, ProcessorID], cfg Config[ID, ProcessorID]) *Coordinator[ID, ProcessorID] {
	if store == nil {
		panic(`dedupe: nil store`)
	}
	if cfg.MaxProcessingTime <= 0 {
		panic(`dedupe: MaxProcessingTime must be > 0`)
	}
	if cfg.TTL <= 0 {
		panic(`dedupe: TTL must be > 0`)
	}

	if cfg.PollStrategy.isZero() {
		cfg.PollStrategy = DefaultPollStrategy()
	} else if err := cfg.PollStrategy.validate(); err != nil {
		panic(`dedupe: ` + err.Error())
	}

	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}

	return &Coordinator[ID, ProcessorID]{
		store: store,
		cfg:   cfg,
	}
}

// TryStart attempts to claim id for this Coordinator's ProcessorID. It
// returns NotSeen if the caller must perform the work (either because no
// record existed, or because a prior record timed out and is being
// reclaimed), or Seen if the work has already been completed by another
// claimant.
//
// If a peer holds the record in the Started state for longer than
// PollStrategy.MaxPollDuration without timing out, TryStart returns
// ErrPollTimeout. Store errors are wrapped and returned as-is.
func (c *Coordinator[ID, ProcessorID]) TryStart(ctx context.Context, id ID) (Sample, error) {
	t0 := c.cfg.Clock.Now()
	delay := c.cfg.PollStrategy.InitialDelay
	pollNo := 0

	for {
		now := c.cfg.Clock.Now()

		prior, err := c.store.Claim(ctx, id, c.cfg.ProcessorID, now)
		if err != nil {
			c.stats.errors.Add(1)
			c.logEvent(id, "claim failed", err)
			return 0, fmt.Errorf("dedupe: claim: %w", err)
		}
		c.stats.claims.Add(1)

		var status Status
		if prior == nil {
			status = NotStarted
		} else {
			status = Classify(*prior, now, c.cfg.MaxProcessingTime)
		}
		c.logClassified(id, status)

		switch status {
		case NotStarted:
			c.stats.notStarted.Add(1)
			return NotSeen, nil

		case Timeout:
			// The conditional update did not reset StartedAt (it only ever
			// sets the attribute if absent); the prior, now-abandoned
			// owner's StartedAt is what was returned. We proceed anyway,
			// as the new owner: a deliberate consistency relaxation, see
			// the reclaim-after-timeout design note.
			c.stats.reclaims.Add(1)
			return NotSeen, nil

		case Completed:
			c.stats.seen.Add(1)
			return Seen, nil

		case Started:
			if now.Sub(t0) >= c.cfg.PollStrategy.MaxPollDuration {
				c.stats.pollTimeouts.Add(1)
				return 0, ErrPollTimeout
			}

			c.stats.polls.Add(1)
			c.logEvent(id, "polling", nil)
			if err := sleepContext(ctx, delay); err != nil {
				return 0, err
			}

			delay = c.cfg.PollStrategy.NextDelay(pollNo, delay)
			pollNo++
		}
	}
}

// Complete marks id as completed, stamping CompletedAt and ExpiresOn via
// an unconditional Store.Commit. Calling Complete more than once for the
// same id is safe; the last call's timestamps win.
func (c *Coordinator[ID, ProcessorID]) Complete(ctx context.Context, id ID) error {
	now := c.cfg.Clock.Now()
	if err := c.store.Commit(ctx, id, c.cfg.ProcessorID, now, c.cfg.TTL); err != nil {
		c.stats.errors.Add(1)
		c.logEvent(id, "commit failed", err)
		return fmt.Errorf("dedupe: commit: %w", err)
	}
	c.stats.completions.Add(1)
	c.logEvent(id, "committed", nil)
	return nil
}

// Stats returns a snapshot of this Coordinator's counters.
func (c *Coordinator[ID, ProcessorID]) Stats() Stats {
	return Stats{
		Claims:       c.stats.claims.Load(),
		NotStarted:   c.stats.notStarted.Load(),
		Reclaims:     c.stats.reclaims.Load(),
		Seen:         c.stats.seen.Load(),
		Polls:        c.stats.polls.Load(),
		PollTimeouts: c.stats.pollTimeouts.Load(),
		Completions:  c.stats.completions.Load(),
		Errors:       c.stats.errors.Load(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Coordinator[ID, ProcessorID]) logEvent(id ID, msg string, err error) {
	if c.cfg.Logger == nil {
		return
	}
	var ev *zerolog.Event
	if err != nil {
		ev = c.cfg.Logger.Warn().Err(err)
	} else {
		ev = c.cfg.Logger.Debug()
	}
	ev.Interface("id", id).Interface("processorId", c.cfg.ProcessorID).Msg("dedupe: " + msg)
}

func (c *Coordinator[ID, ProcessorID]) logClassified(id ID, status Status) {
	if c.cfg.Logger == nil {
		return
	}
	c.cfg.Logger.Debug().
		Interface("id", id).
		Interface("processorId", c.cfg.ProcessorID).
		Stringer("status", status).
		Msg("dedupe: classified")
}
