package analysis

import (
	"fmt"
	"math"
)

// Window multiplies a block of samples by a window function in place.
type Window func(data []float64)

// cosineSum builds w(x) = a0 - a1*cos(2*pi*x) + a2*cos(4*pi*x) over one
// period of the block.
func cosineSum(a0, a1, a2 float64) Window {
	return func(data []float64) {
		n := float64(len(data))
		for i := range data {
			x := 2 * math.Pi * float64(i) / n
			data[i] *= a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
		}
	}
}

// Windows understood by WindowFromString.
var (
	Han      = cosineSum(0.5, 0.5, 0)
	Hamming  = cosineSum(0.54, 0.46, 0)
	Blackman = cosineSum(0.42, 0.5, 0.08)
)

// WindowFromString accepts "han", "hamming", "blackman" and "none".
func WindowFromString(s string) (Window, error) {
	switch s {
	case "han":
		return Han, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "none":
		return func([]float64) {}, nil
	}
	return nil, fmt.Errorf("unknown window %q", s)
}
