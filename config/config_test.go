package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewPassesValidate(t *testing.T) {
	if err := New().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"bad channel count", func(c *Config) { c.Channels = 3 }},
		{"inverted freq range", func(c *Config) { c.DefaultFreqRange = FreqRange{MinFreq: 22000, MaxFreq: 18000} }},
		{"rs_n not greater than rs_k", func(c *Config) { c.RSN, c.RSK = 223, 223 }},
		{"cyclic prefix equals carriers", func(c *Config) { c.OFDMCyclicPrefix = c.OFDMCarriers }},
		{"zero max gain", func(c *Config) { c.MaxGain = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected Validate to reject %s", tt.name)
			}
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soniclink.json")

	want := New()
	want.LogLevel = "debug"
	want.NoiseFilterEnabled = true

	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(got, want) {
		t.Errorf("config round trip mismatch\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.json")
	if err := os.WriteFile(path, []byte(`{"log_level": "warning"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.LogLevel != "warning" {
		t.Errorf("log_level = %q, want warning", got.LogLevel)
	}
	if got.SampleRate != defaultSampleRate {
		t.Errorf("sample_rate = %d, want default %d", got.SampleRate, defaultSampleRate)
	}
}
