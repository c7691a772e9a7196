package audio

import (
	"errors"
	"sync/atomic"
)

// DefaultBusCapacity is large enough that a human turning knobs never fills
// the bus between two audio buffers.
const DefaultBusCapacity = 1024

var (
	// ErrBusFull is returned by Send when the command could not be queued.
	// The command is dropped; the next one for the same parameter supersedes it.
	ErrBusFull = errors.New("parameter bus is full")
	// ErrBusClosed is returned by Send after Close.
	ErrBusClosed = errors.New("parameter bus is closed")
)

// ----- Parameter Bus ----- //

type bus struct {
	ring    *ring[Command]
	closed  atomic.Bool
	dropped atomic.Uint64
}

// NewBus creates a parameter bus and returns its two ends. The Sender may be
// copied freely and used from any goroutine. The Receiver belongs to the
// audio goroutine alone.
func NewBus(capacity int) (Sender, *Receiver) {
	if capacity <= 0 {
		capacity = DefaultBusCapacity
	}
	b := &bus{ring: newRing[Command](capacity)}
	return Sender{b: b}, &Receiver{b: b}
}

// Sender is the control side of a parameter bus.
type Sender struct {
	b *bus
}

// Send queues cmd without blocking.
func (s Sender) Send(cmd Command) error {
	if s.b == nil || s.b.closed.Load() {
		return ErrBusClosed
	}
	if !s.b.ring.push(cmd) {
		s.b.dropped.Add(1)
		return ErrBusFull
	}
	return nil
}

// Close rejects further sends. Commands already queued stay receivable.
func (s Sender) Close() {
	if s.b != nil {
		s.b.closed.Store(true)
	}
}

// Dropped counts the sends rejected with ErrBusFull.
func (s Sender) Dropped() uint64 {
	if s.b == nil {
		return 0
	}
	return s.b.dropped.Load()
}

// Cap is the number of commands the bus holds before Send fails.
func (s Sender) Cap() int {
	if s.b == nil {
		return 0
	}
	return s.b.ring.cap()
}

// Receiver is the audio side of a parameter bus.
type Receiver struct {
	b *bus
}

// TryReceive returns the oldest pending command, or false when none is
// pending. It never blocks.
func (r *Receiver) TryReceive() (Command, bool) {
	return r.b.ring.pop()
}

// Drain applies every pending command in arrival order and reports how
// many were applied.
func (r *Receiver) Drain(apply func(Command)) int {
	n := 0
	for {
		cmd, ok := r.b.ring.pop()
		if !ok {
			return n
		}
		apply(cmd)
		n++
	}
}

// Len is the number of pending commands. Only a hint while senders are active.
func (r *Receiver) Len() int {
	return r.b.ring.len()
}

// closed reports whether the sending side has been closed.
func (r *Receiver) closed() bool {
	return r.b.closed.Load()
}
