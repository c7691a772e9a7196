// Package speaker plays an audio.Stream on the default output device.
package speaker

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/jinjor/knob-synth/src/audio"
)

const errorPollInterval = 100 * time.Millisecond

// Device ...
type Device struct {
	otoContext *oto.Context
	cfg        audio.Config
}

// New opens the default output device. There is exactly one attempt; the
// caller decides whether a failure is fatal.
func New(cfg audio.Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := otoFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       format,
		BufferSize:   cfg.BufferSize,
	}
	otoContext, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to open output device: %w", err)
	}
	<-ready
	log.Printf("output device ready: %d Hz, %d ch, %v\n", cfg.SampleRate, cfg.Channels, cfg.Format)
	return &Device{
		otoContext: otoContext,
		cfg:        cfg,
	}, nil
}

func otoFormat(f audio.SampleFormat) (oto.Format, error) {
	switch f {
	case audio.FormatFloat32LE:
		return oto.FormatFloat32LE, nil
	case audio.FormatInt16LE:
		return oto.FormatSignedInt16LE, nil
	case audio.FormatUint8:
		return oto.FormatUnsignedInt8, nil
	}
	return 0, fmt.Errorf("unsupported sample format %v", f)
}

// Play blocks until ctx is done or the player fails. When it returns the
// stream has been told to stop rendering.
func (d *Device) Play(ctx context.Context, stream io.Reader) error {
	if s, ok := stream.(interface{ Stop() }); ok {
		defer s.Stop()
	}
	p := d.otoContext.NewPlayer(stream)
	defer func() {
		p.Pause()
		p.Close()
		runtime.KeepAlive(p)
	}()
	p.Play()

	t := time.NewTicker(errorPollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Play() interrupted")
			return nil
		case <-t.C:
			if err := p.Err(); err != nil {
				return fmt.Errorf("player failed: %w", err)
			}
			if err := d.otoContext.Err(); err != nil {
				return fmt.Errorf("output device failed: %w", err)
			}
			if !p.IsPlaying() {
				return fmt.Errorf("player stopped unexpectedly")
			}
		}
	}
}

// Close suspends the output device.
func (d *Device) Close() error {
	log.Println("Closing output device...")
	return d.otoContext.Suspend()
}
