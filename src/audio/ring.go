package audio

import "sync/atomic"

// ----- Ring ----- //

// ring is a bounded lock-free queue. Any number of goroutines may push,
// exactly one goroutine may pop. Every slot carries a sequence number
// telling producers and the consumer whose turn the slot is, so neither
// side ever waits on the other.
type ring[T any] struct {
	slots []ringSlot[T]
	mask  uint64
	_     [8]uint64
	head  atomic.Uint64 // next position to reserve, shared by producers
	_     [8]uint64
	tail  atomic.Uint64 // next position to read, written by the consumer only
	_     [8]uint64
}

type ringSlot[T any] struct {
	seq   atomic.Uint64
	value T
}

// newRing creates a ring with its size rounded up to the next power of two.
func newRing[T any](minSize int) *ring[T] {
	if minSize <= 0 {
		panic("ring size must be positive")
	}
	size := 1
	for size < minSize {
		size <<= 1
		if size <= 0 {
			panic("ring size too large")
		}
	}
	r := &ring[T]{
		slots: make([]ringSlot[T], size),
		mask:  uint64(size - 1),
	}
	for i := range r.slots {
		r.slots[i].seq.Store(uint64(i))
	}
	return r
}

// push returns false when every slot is occupied.
func (r *ring[T]) push(v T) bool {
	pos := r.head.Load()
	for {
		slot := &r.slots[pos&r.mask]
		seq := slot.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if r.head.CompareAndSwap(pos, pos+1) {
				slot.value = v
				slot.seq.Store(pos + 1)
				return true
			}
			pos = r.head.Load()
		case diff < 0:
			return false
		default:
			pos = r.head.Load()
		}
	}
}

// pop must only be called from the consumer goroutine.
func (r *ring[T]) pop() (T, bool) {
	pos := r.tail.Load()
	slot := &r.slots[pos&r.mask]
	if int64(slot.seq.Load())-int64(pos+1) < 0 {
		var zero T
		return zero, false
	}
	v := slot.value
	slot.seq.Store(pos + r.mask + 1)
	r.tail.Store(pos + 1)
	return v, true
}

// len is approximate while producers or the consumer are active.
func (r *ring[T]) len() int {
	tail := r.tail.Load()
	head := r.head.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

func (r *ring[T]) cap() int {
	return len(r.slots)
}
