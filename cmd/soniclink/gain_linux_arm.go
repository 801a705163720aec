//go:build linux && arm

package main

import (
	"fmt"

	"github.com/makalin/soniclink/audio"
	"github.com/makalin/soniclink/config"
)

// applyAdaptiveGain drives the amplifier's digital pot to cfg.MaxGain
// before a transmission, the Raspberry Pi + I2C amp setup spec.md §6's
// adaptive_gain field describes.
func applyAdaptiveGain(cfg config.Config) error {
	if !cfg.AdaptiveGain {
		return nil
	}
	if err := audio.NewGainController().SetGain(cfg, 1.0); err != nil {
		return fmt.Errorf("adaptive gain: %w", err)
	}
	return nil
}
