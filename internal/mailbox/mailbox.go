package mailbox

import (
	"context"
	"sync"
)

// Slot is a single-value mailbox with overwrite semantics.
//
// Put replaces any unconsumed value (the replaced value counts as a drop),
// Take drains the slot. Ready is signalled whenever a value is put, so a
// consumer can block in a select together with a context.
//
// Safe for concurrent use. Values are expected to be consumed by a single
// goroutine.
type Slot[T any] struct {
	mu    sync.Mutex
	value T
	full  bool
	drops uint64

	ready chan struct{}
}

func New[T any]() *Slot[T] {
	return &Slot[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, overwriting an unconsumed value, and reports whether one
// was overwritten. It never blocks.
func (s *Slot[T]) Put(v T) (replaced bool) {
	s.mu.Lock()
	if s.full {
		s.drops++
		replaced = true
	}
	s.value = v
	s.full = true
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
	return replaced
}

// Take returns the latest value and empties the slot.
func (s *Slot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.full {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.full = false
	return v, true
}

// Clear discards an unconsumed value without counting it as a drop.
func (s *Slot[T]) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.full
	var zero T
	s.value = zero
	s.full = false
	return had
}

// Ready is signalled after Put. A receive does not consume the value and
// may be spurious when the slot was cleared or drained in between.
func (s *Slot[T]) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until a value is available and takes it.
func (s *Slot[T]) Wait(ctx context.Context) (T, error) {
	for {
		if v, ok := s.Take(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-s.ready:
		}
	}
}

// Drops returns how many values were overwritten before being taken.
func (s *Slot[T]) Drops() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops
}
