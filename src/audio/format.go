package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ----- Sample Format ----- //

// SampleFormat is the encoding negotiated with the output device.
type SampleFormat int

const (
	FormatFloat32LE SampleFormat = iota
	FormatInt16LE
	FormatUint8
)

// ParseSampleFormat accepts "f32", "s16" and "u8".
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "f32":
		return FormatFloat32LE, nil
	case "s16":
		return FormatInt16LE, nil
	case "u8":
		return FormatUint8, nil
	}
	return 0, fmt.Errorf("unknown sample format %q", s)
}

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32LE:
		return "f32"
	case FormatInt16LE:
		return "s16"
	case FormatUint8:
		return "u8"
	}
	return fmt.Sprintf("SampleFormat(%d)", int(f))
}

// BytesPerSample is the width of one encoded sample, 0 for unknown formats.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatFloat32LE:
		return 4
	case FormatInt16LE:
		return 2
	case FormatUint8:
		return 1
	}
	return 0
}

// encode writes samples into buf, which must hold
// len(samples)*BytesPerSample() bytes. Values outside [-1,1] are clipped.
func (f SampleFormat) encode(samples []float32, buf []byte) {
	switch f {
	case FormatFloat32LE:
		for i, v := range samples {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(clip(v)))
		}
	case FormatInt16LE:
		const max = 32767
		for i, v := range samples {
			b := int16(clip(v) * max)
			binary.LittleEndian.PutUint16(buf[2*i:], uint16(b))
		}
	case FormatUint8:
		const max = 127
		for i, v := range samples {
			b := int(clip(v) * max)
			buf[i] = byte(b + 128)
		}
	}
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
