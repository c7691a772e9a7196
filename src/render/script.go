package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jinjor/knob-synth/src/audio"
	"github.com/jinjor/knob-synth/src/control"
)

const (
	bitDepth       = 16
	framesPerChunk = 1024
)

// step is one line of a script: either an event for the controller or a
// pause during which audio is rendered.
type step struct {
	line   int
	event  control.Event
	isWait bool
	wait   time.Duration
}

// parseScript reads lines of the front-end protocol plus "wait <ms>".
// Blank lines and lines starting with # are skipped.
func parseScript(r io.Reader) ([]step, error) {
	var steps []step
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "wait "); ok {
			ms, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil || ms < 0 {
				return nil, fmt.Errorf("line %d: invalid wait %q", n, rest)
			}
			steps = append(steps, step{line: n, isWait: true, wait: time.Duration(ms * float64(time.Millisecond))})
			continue
		}
		event, err := control.ParseEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		steps = append(steps, step{line: n, event: event})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

type rendered struct {
	sampleRate int
	channels   int
	data       []int     // interleaved, bitDepth wide
	mono       []float64 // first channel
	peak       float64
	held       bool // note still sounding when the script ended
}

func (r *rendered) duration() time.Duration {
	return time.Duration(float64(len(r.mono)) / float64(r.sampleRate) * float64(time.Second))
}

// renderSteps drives a fresh oscillator through the steps exactly as the
// live synth would: events go over the parameter bus, audio is pulled in
// chunks.
func renderSteps(ctx context.Context, steps []step, sampleRate, channels int) (*rendered, error) {
	tx, rx := audio.NewBus(audio.DefaultBusCapacity)
	ctl := control.NewSynthController(tx, control.DefaultNoteKey)
	osc := audio.NewOscillator(float64(sampleRate), rx)
	chunk := make([]float32, framesPerChunk*channels)
	out := &rendered{sampleRate: sampleRate, channels: channels}

	for _, s := range steps {
		if !s.isWait && !ctl.Bound(s.event) {
			return nil, fmt.Errorf("line %d: %q: %w", s.line, control.FormatEvent(s.event), control.ErrUnbound)
		}
	}

	const max = 1<<(bitDepth-1) - 1
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.isWait {
			if err := ctl.Dispatch(s.event); err != nil {
				return nil, fmt.Errorf("line %d: %w", s.line, err)
			}
			continue
		}
		frames := int(math.Round(s.wait.Seconds() * float64(sampleRate)))
		for frames > 0 {
			n := min(frames, framesPerChunk)
			buf := chunk[:n*channels]
			osc.Render(buf, channels)
			for i, v := range buf {
				out.data = append(out.data, int(v*max))
				if i%channels == 0 {
					out.mono = append(out.mono, float64(v))
					out.peak = math.Max(out.peak, math.Abs(float64(v)))
				}
			}
			frames -= n
		}
	}
	out.held = osc.Sounding()
	return out, nil
}

func writeWAV(path string, r *rendered) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, r.sampleRate, bitDepth, r.channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: r.channels,
			SampleRate:  r.sampleRate,
		},
		Data:           r.data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
