package ofdm

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
)

// Demodulator is the receive-side counterpart to Modulator, implementing
// spec.md §4.5's frame-detect / symbol-extraction / demap / bit-assembly
// pipeline. Demodulate never retries on the same recording: a single
// call runs the full Idle->Detecting->Extracting->Decoding transition
// and returns a terminal State.
type Demodulator struct {
	SampleRate       int
	SamplesPerSymbol int
}

// NewDemodulator builds a Demodulator matching the given sample rate.
func NewDemodulator(sampleRate int) *Demodulator {
	return &Demodulator{
		SampleRate:       sampleRate,
		SamplesPerSymbol: int(float64(sampleRate) * SymbolDuration),
	}
}

// Result carries both the recovered (still FEC-encoded) bytes and the
// terminal state the receiver reached, for logging/diagnostics.
type Result struct {
	Data  []byte
	State State
}

// Demodulate runs frame detection, symbol extraction, and bit assembly
// over a recording, returning the FEC-encoded byte stream for the
// caller to hand to fec.Decode. On any failure it returns a *Error and
// a Result with State == Failed.
func (d *Demodulator) Demodulate(samples []float64) (Result, error) {
	dataRegion, err := d.detectFrame(samples)
	if err != nil {
		return Result{State: Failed}, err
	}

	bits := d.extractBits(dataRegion)
	nBytes := len(bits) / 8
	if nBytes == 0 {
		return Result{State: Failed}, &Error{Kind: MalformedBits, Err: fmt.Errorf("zero whole bytes recovered from %d bits", len(bits))}
	}
	data := bitsToBytes(bits)
	return Result{Data: data, State: Delivered}, nil
}

// detectFrame cross-correlates samples against the start and (negated)
// end marker tones and returns the data region between them. Mirrors
// numpy.correlate(..., mode='valid') index semantics exactly, including
// the sign-invariant end-marker search (spec.md §9.2).
func (d *Demodulator) detectFrame(samples []float64) ([]float64, error) {
	marker := startMarker(d.SampleRate)
	if len(samples) < len(marker) {
		return nil, &Error{Kind: NoFrame, Err: fmt.Errorf("recording shorter than the start marker")}
	}

	startIdx := argmaxAbsCorrelation(samples, marker)
	dataStart := startIdx + len(marker)
	if dataStart > len(samples) {
		return nil, &Error{Kind: NoFrame, Err: fmt.Errorf("start marker detected past end of recording")}
	}

	endMarker := make([]float64, len(marker))
	for i, v := range marker {
		endMarker[i] = -v
	}
	tail := samples[dataStart:]
	if len(tail) < len(endMarker) {
		return nil, &Error{Kind: NoFrame, Err: fmt.Errorf("no room for an end marker")}
	}
	endIdx := argmaxAbsCorrelation(tail, endMarker)
	dataEnd := dataStart + endIdx

	if dataEnd <= dataStart || dataEnd > len(samples) {
		return nil, &Error{Kind: NoFrame, Err: fmt.Errorf("invalid data region [%d,%d)", dataStart, dataEnd)}
	}
	return samples[dataStart:dataEnd], nil
}

// argmaxAbsCorrelation returns the index (within signal) of the
// 'valid'-mode cross-correlation peak against kernel, matching
// numpy.correlate(signal, kernel, mode='valid').
func argmaxAbsCorrelation(signal, kernel []float64) int {
	n := len(signal) - len(kernel) + 1
	best := 0
	bestAbs := -1.0
	for k := 0; k < n; k++ {
		var sum float64
		for i, kv := range kernel {
			sum += signal[k+i] * kv
		}
		abs := sum
		if abs < 0 {
			abs = -abs
		}
		if abs > bestAbs {
			bestAbs = abs
			best = k
		}
	}
	return best
}

// extractBits walks the data region in full-stride steps of
// SamplesPerSymbol, demodulating each stride per spec.md §4.5 step 3-4.
// Partial trailing strides are dropped.
func (d *Demodulator) extractBits(dataRegion []float64) []byte {
	var bits []byte
	for i := 0; i+d.SamplesPerSymbol <= len(dataRegion); i += d.SamplesPerSymbol {
		stride := dataRegion[i : i+d.SamplesPerSymbol]
		bits = append(bits, d.demodulateSymbol(stride)...)
	}
	return bits
}

// demodulateSymbol strips the first CyclicPrefix samples from a full
// stride and DFTs the remainder, taking the first Carriers bins as the
// received constellation points. Per spec.md §4.5/§9: the stride is not
// reverse-resampled before the DFT, which is the intended reference
// behavior, not an oversight.
func (d *Demodulator) demodulateSymbol(stride []float64) []byte {
	withoutPrefix := stride[CyclicPrefix:]
	in := make([]complex128, len(withoutPrefix))
	for i, v := range withoutPrefix {
		in[i] = complex(v, 0)
	}
	freqDomain := fft.FFT(in)

	n := Carriers
	if n > len(freqDomain) {
		n = len(freqDomain)
	}
	bits := make([]byte, 0, n*BitsPerSymbol)
	for c := 0; c < n; c++ {
		index := demapPoint(freqDomain[c])
		symbolBits := indexToBits(index)
		bits = append(bits, symbolBits[:]...)
	}
	return bits
}
