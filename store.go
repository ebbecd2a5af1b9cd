package dedupe

import (
	"context"
	"time"
)

// Store is the external, strongly-consistent key-value collaborator the
// coordinator delegates persistence to. Implementations must provide
// "return old values" atomicity on Claim: the returned Process must be the
// item state the store used to evaluate the conditional update, not a
// subsequent read, or two concurrent claimants can both observe "no prior
// record".
//
// See the dynamostore subpackage for a DynamoDB-backed implementation, and
// memstore for an in-process fake suitable for tests and local development.
type Store[ID, ProcessorID any] interface {
	// Claim issues a conditional update that sets StartedAt := now if and
	// only if no record currently exists for (id, processorID), atomically
	// returning the prior item state. It returns (nil, nil) if no prior
	// item existed. Transport or decoding failures are returned as errors;
	// a decoding failure should be (or wrap) a *CorruptRecordError.
	Claim(ctx context.Context, id ID, processorID ProcessorID, now time.Time) (*Process[ID, ProcessorID], error)

	// Commit unconditionally sets CompletedAt := now and ExpiresOn :=
	// now+ttl on the item keyed by (id, processorID). It uses no
	// precondition: the last writer wins, and any completion time it
	// records is a valid one.
	Commit(ctx context.Context, id ID, processorID ProcessorID, now time.Time, ttl time.Duration) error
}
