package ofdm

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestConstellationRowMajorOrdering(t *testing.T) {
	// index 0 must be (-7,-7)/sqrt(42), index 63 must be (7,7)/sqrt(42).
	first := constellation[0]
	last := constellation[63]
	if real(first) >= 0 || imag(first) >= 0 {
		t.Errorf("index 0 should be the most-negative point, got %v", first)
	}
	if real(last) <= 0 || imag(last) <= 0 {
		t.Errorf("index 63 should be the most-positive point, got %v", last)
	}
}

func TestBitsIndexRoundTrip(t *testing.T) {
	for index := 0; index < 64; index++ {
		bits := indexToBits(index)
		got := bitsToIndex(bits[:])
		if got != index {
			t.Errorf("index %d round trip got %d", index, got)
		}
	}
}

func TestDemapFindsExactPoint(t *testing.T) {
	for index := 0; index < 64; index++ {
		got := demapPoint(constellation[index])
		if got != index {
			t.Errorf("demap of exact constellation point %d returned %d", index, got)
		}
	}
}

func TestModulateDemodulateRoundTrip(t *testing.T) {
	mod := NewModulator(48000)
	demod := NewDemodulator(48000)

	data := []byte("the quick brown fox jumps over the lazy dog 0123456789")
	waveform := mod.Modulate(data)

	result, err := demod.Demodulate(waveform)
	if err != nil {
		t.Fatalf("Demodulate: %v", err)
	}
	if result.State != Delivered {
		t.Fatalf("expected Delivered, got %v", result.State)
	}
	if !bytes.HasPrefix(result.Data, data) {
		t.Errorf("recovered data does not start with the original payload:\nwant prefix %q\ngot %q", data, result.Data)
	}
}

func TestModulateDemodulateWithNoise(t *testing.T) {
	mod := NewModulator(48000)
	demod := NewDemodulator(48000)

	data := bytes.Repeat([]byte{0x5A}, 64)
	waveform := mod.Modulate(data)

	rng := rand.New(rand.NewSource(1))
	noisy := make([]float64, len(waveform))
	for i, v := range waveform {
		noisy[i] = v + rng.NormFloat64()*0.02
	}

	result, err := demod.Demodulate(noisy)
	if err != nil {
		t.Fatalf("Demodulate under noise: %v", err)
	}
	if result.State != Delivered {
		t.Fatalf("expected Delivered, got %v", result.State)
	}
	if !bytes.HasPrefix(result.Data, data) {
		t.Errorf("noisy round trip diverged from original payload")
	}
}

func TestDemodulateNoMarkerFails(t *testing.T) {
	demod := NewDemodulator(48000)
	silence := make([]float64, 48000/10)
	_, err := demod.Demodulate(silence)
	if err == nil {
		t.Fatal("expected NoFrame on a recording with no marker")
	}
	var ofdmErr *Error
	if !asOFDMError(err, &ofdmErr) {
		t.Fatalf("expected *ofdm.Error, got %T", err)
	}
	if ofdmErr.Kind != NoFrame {
		t.Errorf("expected NoFrame, got %v", ofdmErr.Kind)
	}
}

func TestDemodulateEmptyPayloadYieldsNoFrame(t *testing.T) {
	mod := NewModulator(48000)
	demod := NewDemodulator(48000)

	// An empty payload expands to zero bits, which pads to zero OFDM
	// symbols: the modulated waveform is markers back-to-back with a
	// zero-length data region, which spec.md calls out as NoFrame
	// rather than an empty-bytes round trip.
	waveform := mod.Modulate(nil)
	_, err := demod.Demodulate(waveform)
	if err == nil {
		t.Fatal("expected NoFrame for a marker-only, zero-length data region")
	}
	var ofdmErr *Error
	if !asOFDMError(err, &ofdmErr) || ofdmErr.Kind != NoFrame {
		t.Fatalf("expected NoFrame, got %v", err)
	}
}

func asOFDMError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}
