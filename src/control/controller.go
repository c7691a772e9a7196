package control

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jinjor/knob-synth/src/audio"
	"golang.org/x/time/rate"
)

const (
	// TargetAmplitude and TargetFrequency name the two knobs.
	TargetAmplitude = "amplitude"
	TargetFrequency = "frequency"
	// DefaultNoteKey triggers the note.
	DefaultNoteKey = "z"
)

// ErrUnbound is returned by Dispatch for events nobody registered.
var ErrUnbound = errors.New("no binding for event")

// Binding maps an event to the command it produces.
type Binding func(Event) audio.Command

type bindingKey struct {
	kind   EventKind
	target string
}

// ----- Controller ----- //

// Controller routes events through an explicit table of bindings and sends
// the resulting commands on the parameter bus. Register everything before
// the first Dispatch; after that Dispatch is safe for concurrent use.
type Controller struct {
	sender   audio.Sender
	bindings map[bindingKey]Binding
	dropLog  *rate.Sometimes
}

// NewController ...
func NewController(sender audio.Sender) *Controller {
	return &Controller{
		sender:   sender,
		bindings: make(map[bindingKey]Binding),
		dropLog:  &rate.Sometimes{First: 1, Interval: time.Second},
	}
}

// NewSynthController binds noteKey to NoteOn/NoteOff and the amplitude and
// frequency knobs to their commands.
func NewSynthController(sender audio.Sender, noteKey string) *Controller {
	c := NewController(sender)
	c.Register(EventKeyDown, noteKey, func(Event) audio.Command { return audio.NoteOn() })
	c.Register(EventKeyUp, noteKey, func(Event) audio.Command { return audio.NoteOff() })
	c.Register(EventValueChanged, TargetAmplitude, func(e Event) audio.Command { return audio.SetAmplitude(e.Value) })
	c.Register(EventValueChanged, TargetFrequency, func(e Event) audio.Command { return audio.SetFrequency(e.Value) })
	return c
}

// Register replaces any binding for the same kind and target.
func (c *Controller) Register(kind EventKind, target string, b Binding) {
	c.bindings[bindingKey{kind: kind, target: target}] = b
}

// Bound reports whether an event would be dispatched.
func (c *Controller) Bound(e Event) bool {
	_, ok := c.bindings[bindingKey{kind: e.Kind, target: e.Target}]
	return ok
}

// Dispatch sends the command bound to e. A full bus is not fatal: the error
// is returned and logged at most once a second.
func (c *Controller) Dispatch(e Event) error {
	b, ok := c.bindings[bindingKey{kind: e.Kind, target: e.Target}]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnbound, e)
	}
	cmd := b(e)
	if err := c.sender.Send(cmd); err != nil {
		if errors.Is(err, audio.ErrBusFull) {
			c.dropLog.Do(func() {
				log.Printf("[WARN] dropped %v: %v (%d dropped so far)\n", cmd, err, c.sender.Dropped())
			})
		}
		return err
	}
	return nil
}

// Dropped counts commands lost to a full bus.
func (c *Controller) Dropped() uint64 {
	return c.sender.Dropped()
}
