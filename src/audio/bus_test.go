package audio

import (
	"errors"
	"sync"
	"testing"
)

func TestBusFIFO(t *testing.T) {
	tx, rx := NewBus(16)
	cmds := []Command{
		NoteOn(),
		SetAmplitude(0.25),
		SetFrequency(0.5),
		SetAmplitude(0.75),
		NoteOff(),
	}
	sendAll(t, tx, cmds...)
	expectEqual(t, rx.Len(), len(cmds))
	for i, expected := range cmds {
		cmd, ok := rx.TryReceive()
		if !ok {
			t.Fatalf("command %d: bus drained early", i)
		}
		expectEqual(t, cmd, expected)
	}
	_, ok := rx.TryReceive()
	expectEqual(t, ok, false)
}

func TestBusEmpty(t *testing.T) {
	_, rx := NewBus(4)
	cmd, ok := rx.TryReceive()
	expectEqual(t, ok, false)
	expectEqual(t, cmd, Command{})
	expectEqual(t, rx.Len(), 0)
}

func TestBusCapacityRoundsUp(t *testing.T) {
	tx, _ := NewBus(1000)
	expectEqual(t, tx.Cap(), 1024)
	tx, _ = NewBus(0)
	expectEqual(t, tx.Cap(), DefaultBusCapacity)
}

func TestBusFull(t *testing.T) {
	tx, rx := NewBus(4)
	for i := 0; i < 4; i++ {
		expectNoError(t, tx.Send(SetAmplitude(float64(i)/4)))
	}
	err := tx.Send(NoteOn())
	if !errors.Is(err, ErrBusFull) {
		t.Fatalf("expected ErrBusFull, but got: %v", err)
	}
	expectEqual(t, tx.Dropped(), uint64(1))

	// the dropped command is gone, the accepted ones are intact
	cmd, _ := rx.TryReceive()
	expectEqual(t, cmd, SetAmplitude(0))
	expectNoError(t, tx.Send(NoteOff()))
	n := rx.Drain(func(Command) {})
	expectEqual(t, n, 4)
}

func TestBusWrapsAround(t *testing.T) {
	tx, rx := NewBus(2)
	for i := 0; i < 100; i++ {
		v := float64(i) / 100
		expectNoError(t, tx.Send(SetFrequency(v)))
		cmd, ok := rx.TryReceive()
		expectEqual(t, ok, true)
		expectEqual(t, cmd, SetFrequency(v))
	}
}

func TestBusClosed(t *testing.T) {
	tx, rx := NewBus(4)
	expectNoError(t, tx.Send(NoteOn()))
	clone := tx
	tx.Close()
	if err := clone.Send(NoteOff()); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, but got: %v", err)
	}
	expectEqual(t, rx.closed(), true)
	cmd, ok := rx.TryReceive()
	expectEqual(t, ok, true)
	expectEqual(t, cmd, NoteOn())

	var zero Sender
	if err := zero.Send(NoteOn()); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, but got: %v", err)
	}
}

func TestBusDrainOrder(t *testing.T) {
	tx, rx := NewBus(8)
	sendAll(t, tx, SetAmplitude(0.1), SetAmplitude(0.2), SetAmplitude(0.3))
	var got []float64
	rx.Drain(func(cmd Command) {
		got = append(got, cmd.Value)
	})
	expectEqual(t, len(got), 3)
	expectEqual(t, got[0], 0.1)
	expectEqual(t, got[2], 0.3)
}

func TestBusConcurrentSenders(t *testing.T) {
	const senders = 4
	const perSender = 5000
	tx, rx := NewBus(64)

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			sender := tx
			for i := 0; i < perSender; {
				// the value encodes sender and sequence so order can be checked per sender
				v := float64(s*perSender+i) / float64(senders*perSender)
				if err := sender.Send(SetAmplitude(v)); err != nil {
					if !errors.Is(err, ErrBusFull) {
						t.Error(err)
						return
					}
					continue
				}
				i++
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	last := make([]int, senders)
	for i := range last {
		last[i] = -1
	}
	received := 0
	finished := false
	for !finished || rx.Len() > 0 {
		select {
		case <-done:
			finished = true
		default:
		}
		cmd, ok := rx.TryReceive()
		if !ok {
			continue
		}
		received++
		id := int(cmd.Value*float64(senders*perSender) + 0.5)
		s, seq := id/perSender, id%perSender
		if seq <= last[s] {
			t.Fatalf("sender %d: got %d after %d", s, seq, last[s])
		}
		last[s] = seq
	}
	expectEqual(t, received, senders*perSender)
}
