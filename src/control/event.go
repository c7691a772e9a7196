// Package control turns user interface events into parameter commands for
// the audio side.
package control

import "fmt"

// ----- Event Kind ----- //

type EventKind int

const (
	eventNone EventKind = iota
	EventKeyDown
	EventKeyUp
	EventValueChanged
)

func (k EventKind) String() string {
	switch k {
	case EventKeyDown:
		return "key_down"
	case EventKeyUp:
		return "key_up"
	case EventValueChanged:
		return "set"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func eventKindFromString(s string) (EventKind, error) {
	switch s {
	case "key_down":
		return EventKeyDown, nil
	case "key_up":
		return EventKeyUp, nil
	case "set":
		return EventValueChanged, nil
	}
	return eventNone, fmt.Errorf("unknown event %q", s)
}

// ----- Event ----- //

// Event is something the user did. Target names the key or the control
// widget; Value is only used by EventValueChanged.
type Event struct {
	Kind   EventKind
	Target string
	Value  float64
}

// KeyDown ...
func KeyDown(key string) Event {
	return Event{Kind: EventKeyDown, Target: key}
}

// KeyUp ...
func KeyUp(key string) Event {
	return Event{Kind: EventKeyUp, Target: key}
}

// ValueChanged ...
func ValueChanged(target string, value float64) Event {
	return Event{Kind: EventValueChanged, Target: target, Value: value}
}

func (e Event) String() string {
	if e.Kind == EventValueChanged {
		return fmt.Sprintf("%s %s %.3f", e.Kind, e.Target, e.Value)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Target)
}
