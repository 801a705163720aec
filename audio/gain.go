package audio

import (
	"fmt"

	"github.com/makalin/soniclink/pcm"
)

// ApplyGain scales waveform by factor using pcm.Amplifier, the
// software counterpart to GainController's I2C-driven hardware gain:
// config.AdaptiveGain/MaxGain (spec.md §6) can drive either path, or
// both, per gain_rpi.go's GainController doc comment. The round trip
// through a pcm.Buffer keeps the clipping behavior identical to the
// one the noise filter in cmd/soniclink/receive.go already applies to
// received audio.
func ApplyGain(waveform []float64, sampleRate uint, factor float64) ([]float64, error) {
	format := pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: sampleRate, Channels: 1}

	buf, err := pcm.FromFloat64(waveform, format)
	if err != nil {
		return nil, &Error{Kind: DeviceFailure, Err: fmt.Errorf("apply gain: %w", err)}
	}

	amplified, err := pcm.NewAmplifier(factor).Apply(buf)
	if err != nil {
		return nil, &Error{Kind: DeviceFailure, Err: fmt.Errorf("apply gain: %w", err)}
	}

	out, err := pcm.ToFloat64(pcm.Buffer{Format: format, Data: amplified})
	if err != nil {
		return nil, &Error{Kind: DeviceFailure, Err: fmt.Errorf("apply gain: %w", err)}
	}
	return out, nil
}
