// Package memstore provides an in-process, mutex-guarded dedupe.Store,
// suitable for tests and for local development without a provisioned
// DynamoDB table. It is not a substitute for a real external store in
// production: it offers no cross-process coordination at all.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/example/go-dedupe"
)

type key[ID, ProcessorID comparable] struct {
	id          ID
	processorID ProcessorID
}

// Store implements dedupe.Store over an in-memory map. The zero value is
// not usable; construct one with New.
type Store[ID, ProcessorID comparable] struct {
	mu    sync.Mutex
	items map[key[ID, ProcessorID]]dedupe.Process[ID, ProcessorID]
}

// New constructs an empty Store.
func New[ID, ProcessorID comparable]() *Store[ID, ProcessorID] {
	return &Store[ID, ProcessorID]{
		items: make(map[key[ID, ProcessorID]]dedupe.Process[ID, ProcessorID]),
	}
}

// Claim implements dedupe.Store.
func (s *Store[ID, ProcessorID]) Claim(_ context.Context, id ID, processorID ProcessorID, now time.Time) (*dedupe.Process[ID, ProcessorID], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key[ID, ProcessorID]{id: id, processorID: processorID}
	if prior, ok := s.items[k]; ok {
		cp := prior
		return &cp, nil
	}

	s.items[k] = dedupe.Process[ID, ProcessorID]{
		ID:          id,
		ProcessorID: processorID,
		StartedAt:   now,
	}
	return nil, nil
}

// Commit implements dedupe.Store.
func (s *Store[ID, ProcessorID]) Commit(_ context.Context, id ID, processorID ProcessorID, now time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key[ID, ProcessorID]{id: id, processorID: processorID}
	p := s.items[k] // zero value if absent: a Commit with no prior Claim still lands a (degenerate) record
	p.ID = id
	p.ProcessorID = processorID
	if p.StartedAt.IsZero() {
		p.StartedAt = now
	}
	p.CompletedAt = now
	p.ExpiresOn = now.Add(ttl)
	s.items[k] = p
	return nil
}

// Reset clears all records. Intended for test teardown/reuse.
func (s *Store[ID, ProcessorID]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[key[ID, ProcessorID]]dedupe.Process[ID, ProcessorID])
}

// Len reports the number of records currently held, including completed
// ones not yet evicted. memstore does not implement TTL eviction; callers
// relying on eviction behavior should test against dynamostore or a real
// table instead.
func (s *Store[ID, ProcessorID]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
