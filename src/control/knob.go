package control

import "math"

// DefaultKnobStep is how far one key press turns a knob.
const DefaultKnobStep = 0.05

// Knob is a normalized control value as seen by the user interface. It is
// not safe for concurrent use.
type Knob struct {
	name  string
	value float64
	step  float64
}

// NewKnob ...
func NewKnob(name string, initial float64) *Knob {
	return &Knob{name: name, value: clamp01(initial), step: DefaultKnobStep}
}

// Name ...
func (k *Knob) Name() string { return k.name }

// Value ...
func (k *Knob) Value() float64 { return k.value }

// Set moves the knob and returns the event describing the change.
func (k *Knob) Set(v float64) Event {
	k.value = clamp01(v)
	return ValueChanged(k.name, k.value)
}

// Nudge moves the knob by steps and returns the event describing the change.
func (k *Knob) Nudge(steps int) Event {
	return k.Set(k.value + float64(steps)*k.step)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	// round away the drift that repeated nudges accumulate
	v = math.Round(v*1e9) / 1e9
	return math.Max(0, math.Min(1, v))
}
