// Package live delivers continuously updated snapshots of a collection.
//
// A [Feed] is owned by the writer of the collection. Each subscriber gets a
// [Subscription] whose first value is the snapshot current at subscribe time,
// followed by one value per [Feed.Publish] in publish order. Values are queued
// per subscriber, a slow reader never blocks the writer and never misses a
// value.
package live

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("subscription closed")

// A Stream yields values until it is closed.
type Stream[T any] interface {
	// Next blocks until the next value, ctx is done or the stream is closed.
	Next(ctx context.Context) (T, error)
	Close()
}

type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a subscriber whose first value is snapshot.
//
// The caller must hold whatever lock orders snapshot reads against publishes,
// otherwise a publish may land between the read and the registration.
func (f *Feed[T]) Subscribe(snapshot T) *Subscription[T] {
	s := &Subscription[T]{
		feed:   f,
		queue:  []T{snapshot},
		signal: make(chan struct{}, 1),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		s.closed = true
		return s
	}
	f.subs[s] = struct{}{}
	return s
}

// Publish queues v for every subscriber.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		s.push(v)
	}
}

// Len returns the number of active subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends every subscription. Values already queued are still delivered.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for s := range f.subs {
		s.finish(false)
		delete(f.subs, s)
	}
}

func (f *Feed[T]) remove(s *Subscription[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, s)
}

type Subscription[T any] struct {
	feed   *Feed[T]
	mu     sync.Mutex
	queue  []T
	signal chan struct{}
	closed bool
}

var _ Stream[int] = (*Subscription[int])(nil)

func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		if len(s.queue) != 0 {
			v := s.queue[0]
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return v, nil
		}
		if s.closed {
			s.mu.Unlock()
			return zero, ErrClosed
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-s.signal:
		}
	}
}

// Close cancels the subscription and drops queued values.
func (s *Subscription[T]) Close() {
	s.feed.remove(s)
	s.finish(true)
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) finish(drop bool) {
	s.mu.Lock()
	s.closed = true
	if drop {
		s.queue = nil
	}
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Map projects every value of src with fn.
func Map[T, U any](src Stream[T], fn func(T) U) Stream[U] {
	return mapped[T, U]{src: src, fn: fn}
}

type mapped[T, U any] struct {
	src Stream[T]
	fn  func(T) U
}

func (m mapped[T, U]) Next(ctx context.Context) (U, error) {
	v, err := m.src.Next(ctx)
	if err != nil {
		var zero U
		return zero, err
	}
	return m.fn(v), nil
}

func (m mapped[T, U]) Close() {
	m.src.Close()
}
