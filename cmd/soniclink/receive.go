package main

import (
	"crypto/rsa"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/makalin/soniclink/audio"
	"github.com/makalin/soniclink/config"
	"github.com/makalin/soniclink/internal/keystore"
	"github.com/makalin/soniclink/pcm"
	"github.com/makalin/soniclink/pipeline"
)

func runReceive(cfg config.Config, log pipeline.Logger, args []string) error {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	output := fs.String("output", "", "write the recovered payload here instead of stdout")
	privKeyPath := fs.String("private-key", "private_key.pem", "our private key")
	fs.Float64Var(&cfg.DefaultFreqRange.MinFreq, "freq-min", cfg.DefaultFreqRange.MinFreq, "lower carrier band edge (Hz)")
	fs.Float64Var(&cfg.DefaultFreqRange.MaxFreq, "freq-max", cfg.DefaultFreqRange.MaxFreq, "upper carrier band edge (Hz)")
	timeoutSecs := fs.Float64("timeout", 30, "how long to listen before giving up (seconds)")
	noDecrypt := fs.Bool("no-decrypt", false, "skip the hybrid envelope stage")
	noDecompress := fs.Bool("no-decompress", false, "skip the Huffman decompression stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *noDecrypt {
		cfg.EncryptionEnabled = false
	}
	if *noDecompress {
		cfg.CompressionEnabled = false
	}

	var private *rsa.PrivateKey
	if cfg.EncryptionEnabled {
		key, err := keystore.LoadPrivateKey(*privKeyPath)
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		private = key
	}

	source, err := openSource()
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	if err := source.Set(cfg); err != nil {
		return fmt.Errorf("receive: %w", err)
	}

	waveform, err := audio.Receive(source, time.Duration(*timeoutSecs*float64(time.Second)))
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}

	if cfg.NoiseFilterEnabled {
		waveform, err = filterUltrasonicBand(waveform, cfg)
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
	}

	p := pipeline.New(cfg, log)
	result := p.Receive(waveform, private)
	if result.Err != nil {
		return fmt.Errorf("receive: %w", result.Err)
	}
	if result.Bytes == nil {
		fmt.Fprintln(os.Stderr, "receive: no signal detected")
		return nil
	}

	if *output != "" {
		return os.WriteFile(*output, result.Bytes, 0o644)
	}
	_, err = os.Stdout.Write(result.Bytes)
	return err
}

// filterUltrasonicBand runs the captured waveform through the ultrasonic
// band-pass filter described in cfg's carrier range, matching the
// optional noise-filter stage spec.md §6 allows receivers to enable.
func filterUltrasonicBand(waveform []float64, cfg config.Config) ([]float64, error) {
	format := pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: cfg.SampleRate, Channels: cfg.Channels}
	filter, err := pcm.NewUltrasonicBandPass(cfg.DefaultFreqRange.MinFreq, cfg.DefaultFreqRange.MaxFreq, format)
	if err != nil {
		return nil, err
	}
	buf, err := pcm.FromFloat64(waveform, format)
	if err != nil {
		return nil, err
	}
	filtered, err := filter.Apply(buf)
	if err != nil {
		return nil, err
	}
	out, err := pcm.ToFloat64(pcm.Buffer{Format: format, Data: filtered})
	if err != nil {
		return nil, err
	}
	return out, nil
}
