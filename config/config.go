/*
Package config provides the JSON configuration file for the modem,
grounded on revid/config's Config struct and its default-constant
naming convention, generalized from revid's string-keyed reflection
update model to typed JSON (de)serialization since spec.md mandates a
JSON wire format rather than query-string key/value pairs.
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// FreqRange is the default transmit/receive carrier band.
type FreqRange struct {
	MinFreq float64 `json:"min_freq"`
	MaxFreq float64 `json:"max_freq"`
}

// Config holds every field spec.md §6 names for the modem's JSON
// config file.
type Config struct {
	SampleRate         uint      `json:"sample_rate"`
	ChunkSize          uint      `json:"chunk_size"`
	Channels           uint      `json:"channels"`
	DefaultBitrate     uint      `json:"default_bitrate"`
	DefaultFreqRange   FreqRange `json:"default_freq_range"`
	EncryptionEnabled  bool      `json:"encryption_enabled"`
	CompressionEnabled bool      `json:"compression_enabled"`
	ReedSolomonEnabled bool      `json:"reed_solomon_enabled"`
	RSN                int       `json:"rs_n"`
	RSK                int       `json:"rs_k"`
	OFDMCarriers       int       `json:"ofdm_carriers"`
	OFDMCyclicPrefix   int       `json:"ofdm_cyclic_prefix"`
	OFDMSymbolDuration float64   `json:"ofdm_symbol_duration"`
	NoiseFilterEnabled bool      `json:"noise_filter_enabled"`
	AdaptiveGain       bool      `json:"adaptive_gain"`
	MaxGain            float64   `json:"max_gain"`
	LogLevel           string    `json:"log_level"`
	LogFile            string    `json:"log_file"`
}

// Defaults per spec.md's fixed OFDM/audio parameters (§4.4-§4.6) and
// the (255,223) FEC codec (§4.3).
const (
	defaultSampleRate         = 48000
	defaultChunkSize          = 1024
	defaultChannels           = 1
	defaultBitrate            = 8000
	defaultMinFreq            = 18000.0
	defaultMaxFreq            = 22000.0
	defaultEncryptionEnabled  = true
	defaultCompressionEnabled = true
	defaultReedSolomonEnabled = true
	defaultRSN                = 255
	defaultRSK                = 223
	defaultOFDMCarriers       = 64
	defaultOFDMCyclicPrefix   = 16
	defaultOFDMSymbolDuration = 0.01
	defaultNoiseFilterEnabled = false
	defaultAdaptiveGain       = false
	defaultMaxGain            = 1.0
	defaultLogLevel           = "info"
	defaultLogFile            = ""
)

// New returns a Config populated with spec.md's fixed defaults.
func New() Config {
	return Config{
		SampleRate:         defaultSampleRate,
		ChunkSize:          defaultChunkSize,
		Channels:           defaultChannels,
		DefaultBitrate:     defaultBitrate,
		DefaultFreqRange:   FreqRange{MinFreq: defaultMinFreq, MaxFreq: defaultMaxFreq},
		EncryptionEnabled:  defaultEncryptionEnabled,
		CompressionEnabled: defaultCompressionEnabled,
		ReedSolomonEnabled: defaultReedSolomonEnabled,
		RSN:                defaultRSN,
		RSK:                defaultRSK,
		OFDMCarriers:       defaultOFDMCarriers,
		OFDMCyclicPrefix:   defaultOFDMCyclicPrefix,
		OFDMSymbolDuration: defaultOFDMSymbolDuration,
		NoiseFilterEnabled: defaultNoiseFilterEnabled,
		AdaptiveGain:       defaultAdaptiveGain,
		MaxGain:            defaultMaxGain,
		LogLevel:           defaultLogLevel,
		LogFile:            defaultLogFile,
	}
}

// Validate checks field invariants the rest of the modem relies on:
// positive rates/sizes, a sane frequency range, and an RS (n,k) pair
// with n > k (so at least one parity byte exists per block).
func (c Config) Validate() error {
	if c.SampleRate == 0 {
		return fmt.Errorf("config: sample_rate must be positive")
	}
	if c.ChunkSize == 0 {
		return fmt.Errorf("config: chunk_size must be positive")
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("config: channels must be 1 or 2, got %d", c.Channels)
	}
	if c.DefaultFreqRange.MinFreq <= 0 || c.DefaultFreqRange.MaxFreq <= c.DefaultFreqRange.MinFreq {
		return fmt.Errorf("config: default_freq_range is invalid: [%v, %v]", c.DefaultFreqRange.MinFreq, c.DefaultFreqRange.MaxFreq)
	}
	if c.ReedSolomonEnabled && c.RSN <= c.RSK {
		return fmt.Errorf("config: rs_n (%d) must be greater than rs_k (%d)", c.RSN, c.RSK)
	}
	if c.OFDMCarriers <= 0 || c.OFDMCyclicPrefix < 0 || c.OFDMCyclicPrefix >= c.OFDMCarriers {
		return fmt.Errorf("config: invalid ofdm_carriers/ofdm_cyclic_prefix: %d/%d", c.OFDMCarriers, c.OFDMCyclicPrefix)
	}
	if c.OFDMSymbolDuration <= 0 {
		return fmt.Errorf("config: ofdm_symbol_duration must be positive")
	}
	if c.MaxGain <= 0 {
		return fmt.Errorf("config: max_gain must be positive")
	}
	return nil
}

// Load reads and parses a JSON config file, starting from New()'s
// defaults so a partial file only overrides the fields it names.
func Load(path string) (Config, error) {
	c := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save serializes c as indented JSON to path.
func Save(path string, c Config) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
