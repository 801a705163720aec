//go:build linux

package audio

import (
	"fmt"
	"sync"

	yalsa "github.com/yobert/alsa"

	"github.com/makalin/soniclink/config"
	"github.com/makalin/soniclink/pcm"
)

// ALSADevice is a real-time audio.Source or audio.Sink backed by ALSA,
// adapted from device/alsa/alsa.go: simplified to this modem's fixed
// mono/S16_LE/48kHz format and, unlike the teacher's capture-only ALSA
// device, usable for playback too.
type ALSADevice struct {
	mu         sync.Mutex
	dev        *yalsa.Device
	playback   bool
	running    bool
	chunkSize  uint
	sampleRate uint
}

// NewALSACapture opens the first ALSA device able to record.
func NewALSACapture() (*ALSADevice, error) { return openALSA(false) }

// NewALSAPlayback opens the first ALSA device able to play.
func NewALSAPlayback() (*ALSADevice, error) { return openALSA(true) }

func openALSA(playback bool) (*ALSADevice, error) {
	cards, err := yalsa.OpenCards()
	if err != nil {
		return nil, fmt.Errorf("audio: open sound cards: %w", err)
	}
	defer yalsa.CloseCards(cards)

	var found *yalsa.Device
	for _, card := range cards {
		devices, err := card.Devices()
		if err != nil {
			continue
		}
		for _, dev := range devices {
			if dev.Type != yalsa.PCM {
				continue
			}
			if playback && dev.Play {
				found = dev
			}
			if !playback && dev.Record {
				found = dev
			}
			if found != nil {
				break
			}
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("audio: no suitable ALSA device found")
	}
	return &ALSADevice{dev: found, playback: playback}, nil
}

// Name returns a label identifying the device's direction.
func (d *ALSADevice) Name() string {
	if d.playback {
		return "ALSA playback"
	}
	return "ALSA capture"
}

// Set negotiates the device into spec.md §4.6's fixed format: mono,
// 16-bit signed little-endian, 48 kHz, chunked at ChunkSize frames.
func (d *ALSADevice) Set(c config.Config) error {
	if err := d.dev.Open(); err != nil {
		return fmt.Errorf("audio: open device: %w", err)
	}
	if _, err := d.dev.NegotiateChannels(int(c.Channels)); err != nil {
		return fmt.Errorf("audio: negotiate channels: %w", err)
	}
	rate, err := d.dev.NegotiateRate(int(c.SampleRate))
	if err != nil {
		return fmt.Errorf("audio: negotiate rate: %w", err)
	}
	if _, err := d.dev.NegotiateFormat(yalsa.S16_LE); err != nil {
		return fmt.Errorf("audio: negotiate format: %w", err)
	}
	if _, err := d.dev.NegotiatePeriodSize(int(c.ChunkSize)); err != nil {
		return fmt.Errorf("audio: negotiate period size: %w", err)
	}
	if err := d.dev.Prepare(); err != nil {
		return fmt.Errorf("audio: prepare device: %w", err)
	}
	d.sampleRate = uint(rate)
	d.chunkSize = c.ChunkSize
	return nil
}

// Start marks the device ready for reads or writes.
func (d *ALSADevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
	return nil
}

// Stop closes the underlying ALSA device. A stopped device cannot be
// restarted.
func (d *ALSADevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	if d.dev != nil {
		d.dev.Close()
	}
	return nil
}

// IsRunning reports whether Start has been called without a matching
// Stop.
func (d *ALSADevice) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// ReadChunk reads one ChunkSize-frame period and returns it as
// normalized float64 samples.
func (d *ALSADevice) ReadChunk() ([]float64, error) {
	if !d.IsRunning() {
		return nil, fmt.Errorf("audio: device not started")
	}
	buf := make([]byte, d.chunkSize*2)
	if err := d.dev.Read(buf); err != nil {
		return nil, fmt.Errorf("audio: alsa read: %w", err)
	}
	return pcm.ToFloat64(pcm.Buffer{
		Format: pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: d.sampleRate, Channels: 1},
		Data:   buf,
	})
}

// WriteChunk packs samples to S16_LE and writes them to the device.
func (d *ALSADevice) WriteChunk(samples []float64) error {
	if !d.IsRunning() {
		return fmt.Errorf("audio: device not started")
	}
	buf, err := pcm.FromFloat64(samples, pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: d.sampleRate, Channels: 1})
	if err != nil {
		return err
	}
	if err := d.dev.Write(buf.Data); err != nil {
		return fmt.Errorf("audio: alsa write: %w", err)
	}
	return nil
}

// ListDevices enumerates ALSA PCM devices for the `devices` CLI
// subcommand, recovered from soniclink/cli.py's devices listing
// (backed there by PyAudio's device enumeration).
func ListDevices() ([]DeviceInfo, error) {
	cards, err := yalsa.OpenCards()
	if err != nil {
		return nil, fmt.Errorf("audio: open sound cards: %w", err)
	}
	defer yalsa.CloseCards(cards)

	var out []DeviceInfo
	for _, card := range cards {
		devices, err := card.Devices()
		if err != nil {
			continue
		}
		for _, dev := range devices {
			if dev.Type != yalsa.PCM {
				continue
			}
			out = append(out, DeviceInfo{
				Name:   dev.Title,
				Input:  dev.Record,
				Output: dev.Play,
			})
		}
	}
	return out, nil
}
