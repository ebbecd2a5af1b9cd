package dedupe

import "context"

// Protect runs process exactly once per id, modulo the reclaim-after-abandon
// relaxation documented on TryStart. It calls TryStart; on NotSeen it runs
// process and, if process succeeds, calls Complete and returns (value,
// true, nil). On Seen it returns the zero value, false, nil without running
// process.
//
// If process fails, Complete is NOT called; the record stays Started and
// becomes reclaimable after the Coordinator's MaxProcessingTime. The error
// from process (or from TryStart/Complete) propagates unchanged.
//
// Protect is a free function, not a method, because Go methods cannot
// introduce additional type parameters beyond those of their receiver.
func Protect[ID, ProcessorID, A any](ctx context.Context, c *Coordinator[ID, ProcessorID], id ID, process func(ctx context.Context) (A, error)) (value A, ok bool, err error) {
	sample, err := c.TryStart(ctx, id)
	if err != nil {
		return value, false, err
	}
	if sample == Seen {
		return value, false, nil
	}

	value, err = process(ctx)
	if err != nil {
		return value, false, err
	}

	if err := c.Complete(ctx, id); err != nil {
		return value, false, err
	}
	return value, true, nil
}

// ProtectEither runs exactly one of ifNotSeen or ifSeen, depending on
// TryStart's result, then calls Complete in both cases. This differs from
// Protect intentionally: the two-branch overload lets the caller state that
// both branches are safe to mark completed, so even the "already seen"
// branch consumes (refreshes) the dedup slot. Preserve this asymmetry; it
// is pinned by tests.
//
// If the chosen branch fails, Complete is NOT called and the error
// propagates, same as Protect.
func ProtectEither[ID, ProcessorID, A any](ctx context.Context, c *Coordinator[ID, ProcessorID], id ID, ifNotSeen, ifSeen func(ctx context.Context) (A, error)) (value A, err error) {
	sample, err := c.TryStart(ctx, id)
	if err != nil {
		return value, err
	}

	if sample == NotSeen {
		value, err = ifNotSeen(ctx)
	} else {
		value, err = ifSeen(ctx)
	}
	if err != nil {
		return value, err
	}

	if err := c.Complete(ctx, id); err != nil {
		return value, err
	}
	return value, nil
}
