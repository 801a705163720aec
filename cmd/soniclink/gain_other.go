//go:build !(linux && arm)

package main

import "github.com/makalin/soniclink/config"

// applyAdaptiveGain is a no-op off the Raspberry Pi + I2C amp hardware
// this feature targets.
func applyAdaptiveGain(cfg config.Config) error { return nil }
