package audio

import (
	"io"
	"sync/atomic"
)

const (
	framesPerChunk = 1024
	monitorSize    = 8192
)

// ----- Stream ----- //

// Stream renders the oscillator into encoded bytes for the output device.
// Read runs on the device's audio goroutine and never blocks, allocates or
// takes a lock.
type Stream struct {
	cfg     Config
	osc     *Oscillator
	scratch []float32 // length: framesPerChunk * channels
	monitor *Tap
	frames  atomic.Uint64
	stopped atomic.Bool
}

var _ io.Reader = (*Stream)(nil)

// NewStream ...
func NewStream(cfg Config, rx *Receiver) (*Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Stream{
		cfg:     cfg,
		osc:     NewOscillator(float64(cfg.SampleRate), rx),
		scratch: make([]float32, framesPerChunk*cfg.Channels),
		monitor: &Tap{ring: newRing[float32](monitorSize)},
	}, nil
}

// Read fills buf with whole frames and returns the number of bytes written.
// Once the stream is stopped it returns io.EOF.
func (s *Stream) Read(buf []byte) (int, error) {
	if s.stopped.Load() {
		return 0, io.EOF
	}
	channels := s.cfg.Channels
	bytesPerFrame := s.cfg.BytesPerFrame()
	bytesPerSample := s.cfg.Format.BytesPerSample()
	frames := len(buf) / bytesPerFrame
	written := 0
	for frames > 0 {
		n := min(frames, framesPerChunk)
		out := s.scratch[:n*channels]
		s.osc.Render(out, channels)
		s.cfg.Format.encode(out, buf[written:written+len(out)*bytesPerSample])
		for i := 0; i < len(out); i += channels {
			s.monitor.ring.push(out[i])
		}
		written += n * bytesPerFrame
		frames -= n
	}
	s.frames.Add(uint64(written / bytesPerFrame))
	return written, nil
}

// Stop makes subsequent reads return io.EOF.
func (s *Stream) Stop() {
	s.stopped.Store(true)
}

// Config ...
func (s *Stream) Config() Config {
	return s.cfg
}

// FramesRendered may be called from any goroutine.
func (s *Stream) FramesRendered() uint64 {
	return s.frames.Load()
}

// Monitor returns the tap carrying the first channel of every rendered frame.
// Every call returns the same tap, and only one goroutine may read from it.
func (s *Stream) Monitor() *Tap {
	return s.monitor
}

// ----- Tap ----- //

// Tap is the consumer side of the stream's monitor. Samples that the consumer
// does not collect in time are dropped by the audio side.
type Tap struct {
	ring *ring[float32]
}

// Read moves up to len(dst) samples into dst and returns how many were moved.
func (t *Tap) Read(dst []float64) int {
	for i := range dst {
		v, ok := t.ring.pop()
		if !ok {
			return i
		}
		dst[i] = float64(v)
	}
	return len(dst)
}

// Len is the number of samples waiting.
func (t *Tap) Len() int {
	return t.ring.len()
}
