package analysis

import "fmt"

// Analyzer computes magnitude spectra of fixed-size blocks.
type Analyzer struct {
	fft    *FFT
	window Window
	buf    []float64
}

// NewAnalyzer ...
func NewAnalyzer(size int, window Window) (*Analyzer, error) {
	fft, err := NewFFT(size)
	if err != nil {
		return nil, err
	}
	if window == nil {
		window = Han
	}
	return &Analyzer{
		fft:    fft,
		window: window,
		buf:    make([]float64, size),
	}, nil
}

// Size is the block length the analyzer expects.
func (a *Analyzer) Size() int {
	return len(a.buf)
}

// Spectrum returns the magnitudes of the first half of the bins. The result
// is overwritten by the next call.
func (a *Analyzer) Spectrum(samples []float64) ([]float64, error) {
	if len(samples) != len(a.buf) {
		return nil, fmt.Errorf("block should have %d samples, got %d", len(a.buf), len(samples))
	}
	copy(a.buf, samples)
	a.window(a.buf)
	if err := a.fft.CalcAbs(a.buf); err != nil {
		return nil, err
	}
	size := float64(len(a.buf))
	for i, value := range a.buf {
		a.buf[i] = value * 2 / size
	}
	return a.buf[:len(a.buf)/2], nil
}

// Peak finds the strongest bin above DC.
func (a *Analyzer) Peak(samples []float64, sampleRate float64) (freq float64, magnitude float64, err error) {
	spectrum, err := a.Spectrum(samples)
	if err != nil {
		return 0, 0, err
	}
	peak := 1
	for i := 2; i < len(spectrum); i++ {
		if spectrum[i] > spectrum[peak] {
			peak = i
		}
	}
	return float64(peak) * sampleRate / float64(len(a.buf)), spectrum[peak], nil
}

// PeakFrequency analyzes the last power-of-two block of samples with a Han window.
func PeakFrequency(samples []float64, sampleRate float64) (float64, error) {
	size := 2
	for size*2 <= len(samples) {
		size *= 2
	}
	if len(samples) < size {
		return 0, fmt.Errorf("need at least %d samples, got %d", size, len(samples))
	}
	a, err := NewAnalyzer(size, Han)
	if err != nil {
		return 0, err
	}
	freq, _, err := a.Peak(samples[len(samples)-size:], sampleRate)
	return freq, err
}
