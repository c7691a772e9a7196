package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

func newTestStream(t *testing.T, cfg Config) (Sender, *Stream) {
	t.Helper()
	tx, rx := NewBus(cfg.BusCapacity)
	s, err := NewStream(cfg, rx)
	if err != nil {
		t.Fatal(err)
	}
	return tx, s
}

func TestNewStreamRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels = 0
	_, rx := NewBus(4)
	if _, err := NewStream(cfg, rx); err == nil {
		t.Error("expected error")
	}
}

func TestStreamReadFloat32(t *testing.T) {
	cfg := DefaultConfig()
	tx, s := newTestStream(t, cfg)
	sendAll(t, tx, NoteOn(), SetAmplitude(0.5), SetFrequency(0))

	// larger than one chunk to cover the chunk loop
	frames := framesPerChunk*2 + 17
	buf := make([]byte, frames*cfg.BytesPerFrame())
	n, err := s.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, len(buf))
	expectEqual(t, s.FramesRendered(), uint64(frames))

	for i := 0; i < frames; i++ {
		l := math.Float32frombits(binary.LittleEndian.Uint32(buf[8*i:]))
		r := math.Float32frombits(binary.LittleEndian.Uint32(buf[8*i+4:]))
		expectEqual(t, l, r)
		expected := 0.5 * math.Sin(2*math.Pi*float64(i+1)*440/48000)
		expectNearlyEqual(t, float64(l), expected, 1e-5)
	}
}

func TestStreamReadWholeFramesOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatInt16LE
	cfg.Channels = 1
	_, s := newTestStream(t, cfg)
	buf := make([]byte, 11)
	n, err := s.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, 10)
}

func TestStreamReadUint8Silence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatUint8
	_, s := newTestStream(t, cfg)
	buf := make([]byte, 256)
	_, err := s.Read(buf)
	expectNoError(t, err)
	for i, b := range buf {
		if b != 128 {
			t.Fatalf("byte %d: expected 128, but got %d", i, b)
		}
	}
}

func TestStreamStop(t *testing.T) {
	_, s := newTestStream(t, DefaultConfig())
	buf := make([]byte, 64)
	_, err := s.Read(buf)
	expectNoError(t, err)
	s.Stop()
	n, err := s.Read(buf)
	expectEqual(t, n, 0)
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, but got: %v", err)
	}
}

func TestStreamMonitor(t *testing.T) {
	cfg := DefaultConfig()
	tx, s := newTestStream(t, cfg)
	sendAll(t, tx, NoteOn())
	tap := s.Monitor()
	expectEqual(t, s.Monitor(), tap)

	buf := make([]byte, 100*cfg.BytesPerFrame())
	_, err := s.Read(buf)
	expectNoError(t, err)
	expectEqual(t, tap.Len(), 100)

	samples := make([]float64, 150)
	n := tap.Read(samples)
	expectEqual(t, n, 100)
	expectNearlyEqual(t, samples[0], math.Sin(2*math.Pi*440/48000), 1e-6)

	// the tap drops rather than blocking the audio side
	big := make([]byte, (monitorSize+500)*cfg.BytesPerFrame())
	_, err = s.Read(big)
	expectNoError(t, err)
	expectEqual(t, tap.Len(), monitorSize)
}
