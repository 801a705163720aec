// Package audio implements the modem's boundary adapter (spec.md §4.6):
// the Transmit/Receive/Listen procedures that move normalized float64
// PCM between the ofdm layer and real or file-backed audio hardware.
package audio

import "github.com/makalin/soniclink/config"

// Source is a readable audio input device yielding normalized float64
// PCM samples at a fixed mono rate. Shaped like device.AVDevice
// (device/device.go: io.Reader plus Name/Set/Start/Stop/IsRunning),
// generalized from a raw io.Reader of bytes to a chunked reader of
// already-normalized float64 samples, since every stage above the
// hardware boundary in this modem operates in the float64 domain.
type Source interface {
	// Name returns a human-readable identifier for the device.
	Name() string

	// Set configures the device from c; fields outside this device's
	// concern are ignored.
	Set(c config.Config) error

	// Start begins capture; ReadChunk only succeeds after Start.
	Start() error

	// Stop ends capture. A stopped Source cannot be restarted.
	Stop() error

	// IsRunning reports whether Start has been called without a
	// matching Stop.
	IsRunning() bool

	// ReadChunk blocks until one chunk of samples is available and
	// returns it as normalized float64 PCM in [-1, 1].
	ReadChunk() ([]float64, error)
}

// Sink is a writable audio output device, the playback counterpart to
// Source.
type Sink interface {
	Name() string
	Set(c config.Config) error
	Start() error
	Stop() error
	IsRunning() bool

	// WriteChunk writes one chunk of normalized float64 samples.
	WriteChunk(samples []float64) error
}

// DeviceInfo describes one audio device for the `devices` CLI
// subcommand's listing, recovered from soniclink/cli.py's devices
// command (backed there by PyAudio's device enumeration).
type DeviceInfo struct {
	Name   string
	Input  bool
	Output bool
}
