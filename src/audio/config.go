package audio

import (
	"fmt"
	"time"
)

// Config describes the stream negotiated with the output device.
type Config struct {
	SampleRate  int
	Channels    int
	Format      SampleFormat
	BusCapacity int
	// BufferSize is passed to the device; zero lets the driver decide.
	BufferSize time.Duration
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		SampleRate:  48000,
		Channels:    2,
		Format:      FormatFloat32LE,
		BusCapacity: DefaultBusCapacity,
	}
}

// Validate ...
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", c.Channels)
	}
	if c.Format.BytesPerSample() == 0 {
		return fmt.Errorf("invalid sample format %v", c.Format)
	}
	if c.BusCapacity < 0 {
		return fmt.Errorf("invalid bus capacity %d", c.BusCapacity)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("invalid buffer size %v", c.BufferSize)
	}
	return nil
}

// BytesPerFrame is the size of one encoded frame.
func (c Config) BytesPerFrame() int {
	return c.Format.BytesPerSample() * c.Channels
}
