/*
NAME
  pcm_test.go

DESCRIPTION
  pcm_test.go contains functions for testing the pcm package.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"encoding/binary"
	"math"
	"testing"
)

// sineS16LE synthesizes n samples of a sine tone at freq Hz, sampled at
// rate Hz, packed as mono S16_LE.
func sineS16LE(freq float64, rate, n int) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(0.5 * fullScale16 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(v))
	}
	return out
}

// TestResample checks that downsampling 48kHz to 8kHz produces the
// expected output length and output rate.
func TestResample(t *testing.T) {
	const rate, n = 48000, 4800
	buf := Buffer{
		Format: BufferFormat{Channels: 1, Rate: rate, SFormat: S16_LE},
		Data:   sineS16LE(400, rate, n),
	}

	resampled, err := Resample(buf, 8000)
	if err != nil {
		t.Fatal(err)
	}
	wantLen := n / (rate / 8000) * 2
	if len(resampled.Data) != wantLen {
		t.Errorf("resampled length = %d, want %d", len(resampled.Data), wantLen)
	}
	if resampled.Format.Rate != 8000 {
		t.Errorf("resampled rate = %d, want 8000", resampled.Format.Rate)
	}
}

func TestResampleSameRateIsNoop(t *testing.T) {
	buf := Buffer{
		Format: BufferFormat{Channels: 1, Rate: 48000, SFormat: S16_LE},
		Data:   sineS16LE(1000, 48000, 100),
	}
	out, err := Resample(buf, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Data) != len(buf.Data) {
		t.Errorf("same-rate resample changed length: %d vs %d", len(out.Data), len(buf.Data))
	}
}

// TestStereoToMono checks that interleaving two distinct tones and
// extracting the left channel recovers the left-channel tone.
func TestStereoToMono(t *testing.T) {
	const rate, n = 44100, 1000
	left := sineS16LE(440, rate, n)
	right := sineS16LE(880, rate, n)

	interleaved := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		interleaved = append(interleaved, left[i*2:i*2+2]...)
		interleaved = append(interleaved, right[i*2:i*2+2]...)
	}

	buf := Buffer{
		Format: BufferFormat{Channels: 2, Rate: rate, SFormat: S16_LE},
		Data:   interleaved,
	}
	mono, err := StereoToMono(buf)
	if err != nil {
		t.Fatal(err)
	}
	if mono.Format.Channels != 1 {
		t.Errorf("expected mono output, got %d channels", mono.Format.Channels)
	}
	if len(mono.Data) != len(left) {
		t.Fatalf("mono length = %d, want %d", len(mono.Data), len(left))
	}
	for i := range mono.Data {
		if mono.Data[i] != left[i] {
			t.Fatalf("mono data diverges from left channel at byte %d", i)
		}
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	format := BufferFormat{Channels: 1, Rate: 48000, SFormat: S16_LE}
	buf := Buffer{Format: format, Data: sineS16LE(1000, 48000, 480)}

	samples, err := ToFloat64(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 480 {
		t.Fatalf("got %d samples, want 480", len(samples))
	}
	for _, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %v outside [-1,1]", s)
		}
	}

	back, err := FromFloat64(samples, format)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Data) != len(buf.Data) {
		t.Fatalf("FromFloat64 produced %d bytes, want %d", len(back.Data), len(buf.Data))
	}
	// Integer round trip should be lossless to within 1 LSB.
	for i := 0; i < len(buf.Data); i += 2 {
		orig := int16(binary.LittleEndian.Uint16(buf.Data[i : i+2]))
		got := int16(binary.LittleEndian.Uint16(back.Data[i : i+2]))
		diff := int(orig) - int(got)
		if diff < -1 || diff > 1 {
			t.Fatalf("sample at byte %d: want ~%d got %d", i, orig, got)
		}
	}
}

func TestToFloat64RejectsStereo(t *testing.T) {
	buf := Buffer{
		Format: BufferFormat{Channels: 2, Rate: 48000, SFormat: S16_LE},
		Data:   make([]byte, 8),
	}
	if _, err := ToFloat64(buf); err == nil {
		t.Fatal("expected an error converting stereo audio directly to float64")
	}
}
