package ofdm

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Modulator turns an already FEC-encoded byte stream into a real-valued
// marker-delimited waveform, per spec.md §4.4. FEC lives one layer up
// the pipeline (§4.3); Modulator's "input" is the wire format's
// bits(FEC(...)) stage.
type Modulator struct {
	SampleRate       int
	SamplesPerSymbol int
}

// NewModulator builds a Modulator for the given sample rate, deriving
// samples-per-symbol as floor(Fs * SymbolDuration).
func NewModulator(sampleRate int) *Modulator {
	return &Modulator{
		SampleRate:       sampleRate,
		SamplesPerSymbol: int(float64(sampleRate) * SymbolDuration),
	}
}

// Modulate runs the full §4.4 procedure: bit expansion, 6-bit grouping,
// 64-QAM mapping, per-symbol IDFT+cyclic-prefix+resample, marker
// framing.
func (m *Modulator) Modulate(data []byte) []float64 {
	bits := bytesToBits(data)
	bitsPerOFDMSymbol := Carriers * BitsPerSymbol
	if pad := (bitsPerOFDMSymbol - len(bits)%bitsPerOFDMSymbol) % bitsPerOFDMSymbol; pad > 0 {
		bits = append(bits, make([]byte, pad)...)
	}

	var dataWave []float64
	for i := 0; i < len(bits); i += bitsPerOFDMSymbol {
		group := bits[i : i+bitsPerOFDMSymbol]
		symbol := m.modulateSymbol(group)
		dataWave = append(dataWave, symbol...)
	}

	start := startMarker(m.SampleRate)
	end := make([]float64, len(start))
	for i, v := range start {
		end[i] = -v
	}

	out := make([]float64, 0, len(start)+len(dataWave)+len(end))
	out = append(out, start...)
	out = append(out, dataWave...)
	out = append(out, end...)
	return out
}

// modulateSymbol maps one group of Carriers*BitsPerSymbol bits to a
// single resampled, cyclic-prefixed time-domain OFDM symbol.
func (m *Modulator) modulateSymbol(groupBits []byte) []float64 {
	freqDomain := make([]complex128, Carriers)
	for c := 0; c < Carriers; c++ {
		bits := groupBits[c*BitsPerSymbol : (c+1)*BitsPerSymbol]
		index := bitsToIndex(bits)
		freqDomain[c] = mapIndex(index)
	}

	timeDomain := fft.IFFT(freqDomain)

	withPrefix := make([]float64, CyclicPrefix+Carriers)
	for i := 0; i < CyclicPrefix; i++ {
		withPrefix[i] = real(timeDomain[Carriers-CyclicPrefix+i])
	}
	for i := 0; i < Carriers; i++ {
		withPrefix[CyclicPrefix+i] = real(timeDomain[i])
	}

	return resample(withPrefix, m.SamplesPerSymbol)
}

// startMarker is a 0.1s tone at 17.5kHz; endMarker is its negation.
func startMarker(sampleRate int) []float64 {
	n := int(markerDuration * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * markerFreq * float64(i) / float64(sampleRate))
	}
	return out
}
