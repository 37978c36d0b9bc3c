// Package broadcast fans published values out to any number of independent
// receivers.
//
// Values live in a fixed-size ring tagged with a monotonically increasing
// sequence number. Each receiver keeps its own cursor into that sequence, so
// a slow receiver never blocks the publisher or other receivers. A receiver
// whose cursor falls behind the oldest retained value is told how many
// values it missed and resumes from the oldest one still held.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultCapacity is the number of values retained for lagging receivers.
const DefaultCapacity = 64

// ErrClosed is returned by Recv once the broadcaster is closed and the
// receiver has drained everything still retained.
var ErrClosed = errors.New("broadcast: closed")

// ErrLagged is matched by every *LaggedError.
var ErrLagged = errors.New("broadcast: receiver lagged")

// LaggedError reports values overwritten before a receiver read them.
type LaggedError struct {
	Missed uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("broadcast: receiver lagged, missed %d values", e.Missed)
}

func (e *LaggedError) Is(target error) bool {
	return target == ErrLagged
}

// Broadcaster is a multi-producer, multi-consumer fan-out.
// All methods are safe for concurrent use.
type Broadcaster[T any] struct {
	mu       sync.Mutex
	slots    []T
	capacity int
	// total is the number of values ever published. The ring holds the
	// values with sequence numbers [total-stored, total).
	total  uint64
	closed bool
	// notify is closed and replaced on every publish to wake waiters.
	notify chan struct{}
}

// New creates a broadcaster retaining up to capacity values.
func New[T any](capacity int) *Broadcaster[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broadcaster[T]{
		slots:    make([]T, capacity),
		capacity: capacity,
		notify:   make(chan struct{}),
	}
}

// Publish appends v, overwriting the oldest value when full. It never
// blocks on receivers. Publishing after Close is a no-op.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.slots[b.total%uint64(b.capacity)] = v
	b.total++

	close(b.notify)
	b.notify = make(chan struct{})
}

// Subscribe returns a receiver that sees only values published after this
// call returns.
func (b *Broadcaster[T]) Subscribe() *Receiver[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Receiver[T]{b: b, next: b.total}
}

// Close wakes all receivers. Values already retained can still be read.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}

// Published returns the total number of values ever published.
func (b *Broadcaster[T]) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *Broadcaster[T]) oldest() uint64 {
	if b.total > uint64(b.capacity) {
		return b.total - uint64(b.capacity)
	}
	return 0
}

// Receiver is one subscriber's cursor. A Receiver must not be shared
// between goroutines.
type Receiver[T any] struct {
	b    *Broadcaster[T]
	next uint64
}

// Recv blocks until the next value is available, ctx is done, or the
// broadcaster is closed. Values are returned in publish order.
// A *LaggedError means values were skipped; the following Recv returns the
// oldest value still retained.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		v, ok, wait, err := r.poll()
		if ok || err != nil {
			return v, err
		}

		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-wait:
		}
	}
}

// poll takes the next value if one is ready. Otherwise it returns the
// channel that is closed on the next publish, captured under the same lock.
func (r *Receiver[T]) poll() (v T, ok bool, wait <-chan struct{}, err error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	if oldest := r.b.oldest(); r.next < oldest {
		missed := oldest - r.next
		r.next = oldest
		return v, false, nil, &LaggedError{Missed: missed}
	}
	if r.next < r.b.total {
		v = r.b.slots[r.next%uint64(r.b.capacity)]
		r.next++
		return v, true, nil, nil
	}
	if r.b.closed {
		return v, false, nil, ErrClosed
	}
	return v, false, r.b.notify, nil
}
