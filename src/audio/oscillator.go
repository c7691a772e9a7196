package audio

import "math"

const (
	minFreq = 440.0
	maxFreq = 2000.0
)

func normalizedToFreq(v float64) float64 {
	return minFreq + (maxFreq-minFreq)*v
}

// ----- Oscillator ----- //

// Oscillator is a gated sine generator. It is owned by the goroutine that
// calls Render and picks up parameter changes from its Receiver before every
// frame, so the state below is never shared.
type Oscillator struct {
	rx         *Receiver
	sampleRate float64
	phase01    float64
	freq       float64
	amplitude  float64
	gate       float64
}

// NewOscillator starts silent at 440 Hz with full amplitude. rx may be nil,
// in which case only Apply changes the parameters.
func NewOscillator(sampleRate float64, rx *Receiver) *Oscillator {
	return &Oscillator{
		rx:         rx,
		sampleRate: sampleRate,
		freq:       minFreq,
		amplitude:  1.0,
	}
}

// Apply changes the state according to cmd. Unknown kinds are ignored.
func (o *Oscillator) Apply(cmd Command) {
	switch cmd.Kind {
	case CommandNoteOn:
		o.gate = 1
	case CommandNoteOff:
		o.gate = 0
	case CommandSetAmplitude:
		o.amplitude = cmd.Value
	case CommandSetFrequency:
		o.freq = normalizedToFreq(cmd.Value)
	}
}

func (o *Oscillator) drain() {
	if o.rx == nil {
		return
	}
	for {
		cmd, ok := o.rx.TryReceive()
		if !ok {
			return
		}
		o.Apply(cmd)
	}
}

// Step advances one frame and returns its sample.
func (o *Oscillator) Step() float64 {
	o.drain()
	o.phase01 += o.freq / o.sampleRate
	o.phase01 -= math.Floor(o.phase01)
	return o.gate * o.amplitude * math.Sin(2*math.Pi*o.phase01)
}

// Render fills out with interleaved frames of the given channel count, the
// same sample on every channel. A trailing partial frame is left untouched.
// It returns the number of frames rendered.
func (o *Oscillator) Render(out []float32, channels int) int {
	if channels <= 0 {
		return 0
	}
	frames := len(out) / channels
	for i := 0; i < frames; i++ {
		value := float32(o.Step())
		frame := out[i*channels : (i+1)*channels]
		for ch := range frame {
			frame[ch] = value
		}
	}
	return frames
}

// Phase is the position within the current cycle, in [0,1).
func (o *Oscillator) Phase() float64 { return o.phase01 }

// FrequencyHz is the current frequency.
func (o *Oscillator) FrequencyHz() float64 { return o.freq }

// Amplitude is the current output level in [0,1].
func (o *Oscillator) Amplitude() float64 { return o.amplitude }

// Gate is 1 while a note is held and 0 otherwise.
func (o *Oscillator) Gate() float64 { return o.gate }

// Sounding reports whether the gate is open.
func (o *Oscillator) Sounding() bool { return o.gate != 0 }
