// Package store provides an observable snapshot holder. Updates replace the
// whole value under a mutex, so subscribers and readers only ever observe a
// complete prior or complete next state.
package store

import "sync"

type Store[T any] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]func(T)
	next  int
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Get returns the current snapshot.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the snapshot and notifies subscribers.
func (s *Store[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	subs := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

// Update applies fn to the current snapshot and stores its result. The
// update runs to completion before any other update starts, so folds over
// an event stream stay strictly serial.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	s.value = fn(s.value)
	value := s.value
	subs := make([]func(T), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
	return value
}

// Subscribe registers fn, invokes it immediately with the current snapshot
// and returns an unsubscribe func. Unsubscribing twice is harmless.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	value := s.value
	s.mu.Unlock()

	fn(value)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
