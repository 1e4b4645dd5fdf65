package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var (
	// ErrTooShort is returned when a series has fewer than four samples.
	ErrTooShort = errors.New("analysis: series too short for spectrum")
	ErrBadRate  = errors.New("analysis: fps must be positive")
)

// PowerSpectrum returns the magnitudes of the first len(data)/2 bins of the
// transform of data, after removing its mean so bin 0 carries no offset.
// Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)
	window := make([]float64, n)
	for i, v := range data {
		window[i] = v - mean
	}

	spectrum := fft.FFTReal(window)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// Peak is the strongest non-zero frequency bin of a series.
type Peak struct {
	Bin       int
	Frequency float64 // Hz
	Period    float64 // seconds, 0 when the series has no oscillation
	Power     float64
}

// Dominant finds the strongest oscillation of a series sampled at fps.
func Dominant(data []float64, fps int) (Peak, error) {
	if fps <= 0 {
		return Peak{}, ErrBadRate
	}
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return Peak{}, ErrTooShort
	}

	p := Peak{}
	for i := 1; i < len(ps); i++ {
		if ps[i] > p.Power {
			p.Power = ps[i]
			p.Bin = i
		}
	}
	if p.Bin == 0 {
		return p, nil
	}
	p.Frequency = float64(p.Bin) * float64(fps) / float64(len(data))
	p.Period = 1 / p.Frequency
	return p, nil
}
