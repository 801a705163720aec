/*
NAME
  filters.go

DESCRIPTION
  filter.go contains functions for filtering PCM audio.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package pcm

import (
	"errors"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// AudioFilter applies a filter to a buffer of PCM samples.
type AudioFilter interface {
	Apply(b Buffer) ([]byte, error)
}

// SelectiveFrequencyFilter holds the FIR coefficients and cutoff(s) for
// a lowpass, highpass, or bandpass filter, built by windowed sinc
// design.
type SelectiveFrequencyFilter struct {
	coeffs     []float64
	cutoff     [2]float64
	sampleRate uint
	taps       int
	buffInfo   BufferFormat
}

// NewLowPass builds a lowpass filter with cutoff fc and the given
// tap count.
func NewLowPass(fc float64, info BufferFormat, length int) (*SelectiveFrequencyFilter, error) {
	return newLoHiFilter(fc, info, length, [2]float64{0, fc})
}

// NewHighPass builds a highpass filter with cutoff fc and the given
// tap count.
func NewHighPass(fc float64, info BufferFormat, length int) (*SelectiveFrequencyFilter, error) {
	return newLoHiFilter(fc, info, length, [2]float64{fc, 0})
}

// NewBandPass builds a bandpass filter passing [fc_lower, fc_upper] by
// convolving a highpass and a lowpass filter.
func NewBandPass(fc_lower, fc_upper float64, info BufferFormat, length int) (*SelectiveFrequencyFilter, error) {
	newFilter, lp, hp, err := newBandFilter([2]float64{fc_lower, fc_upper}, info, length)
	if err != nil {
		return nil, fmt.Errorf("could not create new band filter: %w", err)
	}

	newFilter.coeffs, err = fastConvolve(hp.coeffs, lp.coeffs)
	if err != nil {
		return nil, fmt.Errorf("could not compute fast convolution: %w", err)
	}
	return newFilter, nil
}

// NewUltrasonicBandPass builds the band-pass filter that the receive
// CLI command applies to captured audio, ahead of demodulation, when
// config.NoiseFilterEnabled is set, confining it to the configured
// ultrasonic range. The transmit path is not filtered: the OFDM
// modulator's IDFT does not band-limit its output. 256 taps is a practical compromise
// between roll-off sharpness and per-chunk filtering latency at 48kHz.
func NewUltrasonicBandPass(minFreq, maxFreq float64, info BufferFormat) (*SelectiveFrequencyFilter, error) {
	const taps = 256
	return NewBandPass(minFreq, maxFreq, info, taps)
}

// Apply convolves b's samples with the filter's FIR coefficients and
// returns the filtered buffer's bytes.
func (filter *SelectiveFrequencyFilter) Apply(b Buffer) ([]byte, error) {
	samples, err := ToFloat64(b)
	if err != nil {
		return nil, fmt.Errorf("pcm: filter: %w", err)
	}
	convolved, err := fastConvolve(samples, filter.coeffs)
	if err != nil {
		return nil, fmt.Errorf("could not compute fast convolution: %w", err)
	}
	out, err := FromFloat64(convolved, b.Format)
	if err != nil {
		return nil, fmt.Errorf("pcm: filter: %w", err)
	}
	return out.Data, nil
}

// Amplifier scales every sample by a fixed factor, clipping to avoid
// wraparound on overflow.
type Amplifier struct {
	factor float64
}

// NewAmplifier builds an Amplifier with the given gain factor; the
// factor's sign is normalized away since amplification is directionless.
func NewAmplifier(factor float64) *Amplifier {
	return &Amplifier{factor: math.Abs(factor)}
}

// Apply scales b's samples by the amplifier's factor, clipping to
// [-1, 1] before re-encoding.
func (amp *Amplifier) Apply(b Buffer) ([]byte, error) {
	samples, err := ToFloat64(b)
	if err != nil {
		return nil, fmt.Errorf("pcm: amplify: %w", err)
	}

	scaled := make([]float64, len(samples))
	for i, s := range samples {
		scaled[i] = clamp(s * amp.factor)
	}

	out, err := FromFloat64(scaled, b.Format)
	if err != nil {
		return nil, fmt.Errorf("pcm: amplify: %w", err)
	}
	return out.Data, nil
}

// newLoHiFilter validates fc/length and builds the windowed-sinc FIR
// coefficients for a lowpass (cutoff[0]==0) or highpass (cutoff[1]==0)
// filter.
func newLoHiFilter(fc float64, info BufferFormat, length int, cutoff [2]float64) (*SelectiveFrequencyFilter, error) {
	if fc <= 0 || fc >= float64(info.Rate)/2 {
		return nil, errors.New("cutoff frequency out of bounds")
	} else if length <= 0 {
		return nil, errors.New("cannot create filter with length <= 0")
	}

	var fd, factor1, factor2 float64
	switch {
	case cutoff[0] == 0: // lowpass: cutoff[0] = 0, cutoff[1] = fc.
		fd = cutoff[1] / float64(info.Rate)
		factor1 = 1
		factor2 = 2 * fd
	case cutoff[1] == 0: // highpass: cutoff[0] = fc, cutoff[1] = 0.
		fd = cutoff[0] / float64(info.Rate)
		factor1 = -1
		factor2 = 1 - 2*fd
	default:
		return nil, errors.New("tried to use newLoHiFilter to generate bandpass or bandstop filter")
	}

	newFilter := SelectiveFrequencyFilter{cutoff: cutoff, sampleRate: info.Rate, taps: length, buffInfo: info}

	size := newFilter.taps + 1
	newFilter.coeffs = make([]float64, size)
	b := 2 * math.Pi * fd
	winData := window.FlatTop(size)
	for n := 0; n < (newFilter.taps / 2); n++ {
		c := float64(n) - float64(newFilter.taps)/2
		y := math.Sin(c*b) / (math.Pi * c)
		newFilter.coeffs[n] = factor1 * y * winData[n]
		newFilter.coeffs[size-1-n] = newFilter.coeffs[n]
	}
	newFilter.coeffs[newFilter.taps/2] = factor2 * winData[newFilter.taps/2]

	return &newFilter, nil
}

// newBandFilter validates the cutoff pair and builds the lowpass and
// highpass filters a band filter is composed from.
func newBandFilter(cutoff [2]float64, info BufferFormat, length int) (new, lp, hp *SelectiveFrequencyFilter, err error) {
	if cutoff[0] <= 0 || cutoff[0] >= float64(info.Rate)/2 {
		return nil, nil, nil, errors.New("cutoff frequencies out of bounds")
	} else if cutoff[1] <= 0 || cutoff[1] >= float64(info.Rate)/2 {
		return nil, nil, nil, errors.New("cutoff frequencies out of bounds")
	} else if length <= 0 {
		return nil, nil, nil, errors.New("cannot create filter with length <= 0")
	}
	newFilter := SelectiveFrequencyFilter{cutoff: cutoff, sampleRate: info.Rate, taps: length, buffInfo: info}

	hp, err = NewHighPass(newFilter.cutoff[0], newFilter.buffInfo, newFilter.taps)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create new highpass filter: %w", err)
	}
	lp, err = NewLowPass(newFilter.cutoff[1], newFilter.buffInfo, newFilter.taps)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create new lowpass filter: %w", err)
	}

	return &newFilter, lp, hp, nil
}

// fastConvolve computes the linear convolution of x and h via zero-padded
// FFT multiplication, in O(n log n) time.
func fastConvolve(x, h []float64) ([]float64, error) {
	if len(x) == 0 || len(h) == 0 {
		return nil, errors.New("convolution requires slice of length > 0")
	}

	convLen := len(x) + len(h) - 1
	padLen := int(math.Pow(2, math.Ceil(math.Log2(float64(convLen)))))

	xPadded := make([]float64, padLen)
	copy(xPadded, x)
	hPadded := make([]float64, padLen)
	copy(hPadded, h)

	xFFT, hFFT := fft.FFTReal(xPadded), fft.FFTReal(hPadded)

	yFFT := make([]complex128, padLen)
	for i := range xFFT {
		yFFT[i] = xFFT[i] * hFFT[i]
	}

	iy := fft.IFFT(yFFT)
	y := make([]float64, padLen)
	for i := range iy {
		y[i] = real(iy[i])
	}

	return y[0:convLen], nil
}
