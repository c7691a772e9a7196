// Package analysis looks at rendered audio: spectra and the dominant
// frequency of a block of samples.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform of a fixed length. It keeps its own scratch
// buffer, so one FFT must not be used from two goroutines at once.
type FFT struct {
	bitReverseTable []int
	wTable          []complex128
	scratch         []complex128
}

// NewFFT ...
func NewFFT(length int) (*FFT, error) {
	if length < 2 || length&(length-1) != 0 {
		return nil, fmt.Errorf("fft length should be a power of two, got %d", length)
	}
	return &FFT{
		bitReverseTable: makeBitReverseTable(length),
		wTable:          makeWTable(length),
		scratch:         make([]complex128, length),
	}, nil
}

// Len ...
func (fft *FFT) Len() int {
	return len(fft.bitReverseTable)
}

func makeBitReverseTable(n int) []int {
	array := make([]int, n)
	for i := 0; i < n; i++ {
		array[i] = bitReverse(i, n)
	}
	return array
}
func bitReverse(k, n int) int {
	m := 0
	for ; n > 1; n = n >> 1 {
		m = m<<1 + k&1
		k = k >> 1
	}
	return m
}
func makeWTable(n int) []complex128 {
	array := make([]complex128, n)
	w := -2.0 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		array[i] = cmplx.Exp(complex(0, w*float64(i)))
	}
	return array
}

// Calc transforms x in place.
func (fft *FFT) Calc(x []complex128) error {
	n := len(x)
	if n != len(fft.bitReverseTable) {
		return fmt.Errorf("length should be %v, got %v", len(fft.bitReverseTable), n)
	}
	for i := 0; i < n; i++ {
		rev := fft.bitReverseTable[i]
		if i < rev {
			x[i], x[rev] = x[rev], x[i]
		}
	}
	for m := 1; m < n; m = m << 1 {
		step := m << 1
		for k := 0; k < m; k++ {
			w := fft.wTable[n/step*k]
			for i := k; i < n; i += step {
				j := i + m
				tmp := x[j] * w
				x[j] = x[i] - tmp
				x[i] = x[i] + tmp
			}
		}
	}
	return nil
}

// CalcAbs replaces x with the magnitude of its transform.
func (fft *FFT) CalcAbs(x []float64) error {
	if len(x) != len(fft.scratch) {
		return fmt.Errorf("length should be %v, got %v", len(fft.scratch), len(x))
	}
	cx := fft.scratch
	for i := range x {
		cx[i] = complex(x[i], 0)
	}
	if err := fft.Calc(cx); err != nil {
		return err
	}
	for i := range x {
		x[i] = cmplx.Abs(cx[i])
	}
	return nil
}
