package dedupe

import "time"

type (
	// Process is the persisted record for a single deduplication slot,
	// identified by the composite key (ID, ProcessorID).
	Process[ID, ProcessorID any] struct {
		// ID is the caller-chosen key, unique within the ProcessorID
		// namespace.
		ID ID

		// ProcessorID namespaces the id-space, allowing multiple logical
		// processors to share one table safely.
		ProcessorID ProcessorID

		// StartedAt is the instant the first claimant inserted the record.
		// Set once, by the winning claim; never overwritten.
		StartedAt time.Time

		// CompletedAt is set by the claimant that reported success. Zero
		// until then.
		CompletedAt time.Time

		// ExpiresOn is the instant after which the store may evict the
		// record. Present iff CompletedAt is present.
		ExpiresOn time.Time
	}

	// Sample is the result of TryStart: whether the caller is the one that
	// must perform the work, or whether it has already been handled.
	Sample int

	// Status classifies a fetched Process record relative to "now". It has
	// no meaning independent of the (Process, now, maxProcessingTime) it was
	// derived from; Timeout in particular is a derived view, not a stored
	// state — the record on disk is indistinguishable from Started.
	Status int
)

const (
	// NotSeen indicates the caller won the claim (or reclaimed an abandoned
	// one) and must perform the work.
	NotSeen Sample = iota
	// Seen indicates the work has already been completed by another
	// claimant; the caller must not repeat it.
	Seen
)

func (s Sample) String() string {
	switch s {
	case NotSeen:
		return "NotSeen"
	case Seen:
		return "Seen"
	default:
		return "Sample(?)"
	}
}

const (
	// NotStarted means the store reported no prior record for this id.
	NotStarted Status = iota
	// Started means a prior record exists and is within maxProcessingTime
	// of its StartedAt; a caller observing this must poll.
	Started
	// Timeout means a prior Started record is older than maxProcessingTime
	// and is presumed abandoned; a caller observing this may reclaim.
	Timeout
	// Completed means CompletedAt is set; the work has already happened.
	Completed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Started:
		return "Started"
	case Timeout:
		return "Timeout"
	case Completed:
		return "Completed"
	default:
		return "Status(?)"
	}
}

// Completed reports whether p has a CompletedAt timestamp set.
func (p Process[ID, ProcessorID]) Completed() bool {
	return !p.CompletedAt.IsZero()
}

// Classify implements the status classifier described for the
// deduplication core: given a fetched record and the current time, it
// decides whether the record represents completed work, an abandoned
// (timed out) attempt, an in-flight attempt, or isn't consulted at all
// (NotStarted is returned by the coordinator itself, when the store has no
// prior record — there is no Process to classify in that case).
//
// Rules, evaluated in order:
//
//  1. CompletedAt set -> Completed.
//  2. StartedAt + maxProcessingTime < now -> Timeout.
//  3. otherwise -> Started.
func Classify[ID, ProcessorID any](p Process[ID, ProcessorID], now time.Time, maxProcessingTime time.Duration) Status {
	if p.Completed() {
		return Completed
	}
	if p.StartedAt.Add(maxProcessingTime).Before(now) {
		return Timeout
	}
	return Started
}
