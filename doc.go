// Package dedupe gives at-least-once-delivered, idempotent work exactly-once
// side-effect protection, backed by an external, strongly-consistent
// key-value store.
//
// A caller wraps a unit of work, identified by an opaque id, in a call to
// [Protect] or [ProtectEither]. Concurrent or retried calls for the same id
// either run the work exactly once and observe its completion, or observe
// that it has already been handled and skip it. Persistence is delegated to
// a [Store] implementation; this package owns only the state machine, the
// conditional-claim protocol, and the poll loop that waits on in-flight
// peers. See the dynamostore and memstore subpackages for concrete [Store]
// implementations.
//
// The package does not provide strict exactly-once delivery (impossible
// against an at-least-once source), cross-region coordination beyond what
// the store itself provides, or fairness between contending claimants.
package dedupe
