//go:build linux && arm

package audio

import (
	"fmt"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/rpi"

	"github.com/makalin/soniclink/config"
)

// I2C gain-control parameters for an external ultrasonic amplifier,
// adapted from cmd/speaker/main.go's AmpVolume handling (same
// embd.NewI2CBus/WriteByte idiom, same digital-pot address).
const (
	i2cPort    = 1
	gainAddr   = 0x4B
	minGainRaw = 0
	maxGainRaw = 63
)

// GainController drives an I2C-addressed digital potentiometer sitting
// between the modem's audio output and an external ultrasonic
// amplifier, wired to config.AdaptiveGain/MaxGain (spec.md §6) instead
// of (or in addition to) software-only normalization in Transmit.
type GainController struct {
	bus embd.I2CBus
}

// NewGainController opens the I2C bus the amplifier's digital pot is
// attached to.
func NewGainController() *GainController {
	return &GainController{bus: embd.NewI2CBus(i2cPort)}
}

// SetGain writes a gain fraction in [0, 1] (scaled against
// config.MaxGain) to the amplifier's digital pot.
func (g *GainController) SetGain(c config.Config, fraction float64) error {
	if fraction < 0 {
		fraction = 0
	}
	if max := 1.0; fraction > max {
		fraction = max
	}
	raw := minGainRaw + int(fraction*c.MaxGain*float64(maxGainRaw-minGainRaw))
	if raw > maxGainRaw {
		raw = maxGainRaw
	}
	if raw < minGainRaw {
		raw = minGainRaw
	}
	if err := g.bus.WriteByte(gainAddr, byte(raw)); err != nil {
		return fmt.Errorf("audio: write amplifier gain: %w", err)
	}
	return nil
}
