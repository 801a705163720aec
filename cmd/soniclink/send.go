package main

import (
	"crypto/rsa"
	"flag"
	"fmt"

	"github.com/makalin/soniclink/audio"
	"github.com/makalin/soniclink/config"
	"github.com/makalin/soniclink/internal/keystore"
	"github.com/makalin/soniclink/pipeline"
)

func runSend(cfg config.Config, log pipeline.Logger, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	pubKeyPath := fs.String("public-key", "public_key.pem", "recipient's public key")
	fs.Float64Var(&cfg.DefaultFreqRange.MinFreq, "freq-min", cfg.DefaultFreqRange.MinFreq, "lower carrier band edge (Hz)")
	fs.Float64Var(&cfg.DefaultFreqRange.MaxFreq, "freq-max", cfg.DefaultFreqRange.MaxFreq, "upper carrier band edge (Hz)")
	fs.UintVar(&cfg.DefaultBitrate, "bitrate", cfg.DefaultBitrate, "target bitrate (bits/sec)")
	noEncrypt := fs.Bool("no-encrypt", false, "skip the hybrid envelope stage")
	noCompress := fs.Bool("no-compress", false, "skip the Huffman compression stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("send: missing DATA argument")
	}
	data := fs.Arg(0)
	// Flags may also follow DATA, as the usage line shows.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}
	if *noEncrypt {
		cfg.EncryptionEnabled = false
	}
	if *noCompress {
		cfg.CompressionEnabled = false
	}

	var recipient *rsa.PublicKey
	if cfg.EncryptionEnabled {
		key, err := keystore.LoadPublicKey(*pubKeyPath)
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		recipient = key
	}

	return sendPayload(cfg, log, []byte(data), recipient)
}

// sendPayload runs the modem pipeline and transmits the resulting
// waveform through the default audio sink; shared by send and sendfile.
func sendPayload(cfg config.Config, log pipeline.Logger, payload []byte, recipient *rsa.PublicKey) error {
	if err := applyAdaptiveGain(cfg); err != nil {
		log.Warning(err.Error())
	}

	sink, err := openSink()
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := sink.Set(cfg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	p := pipeline.New(cfg, log)
	waveform, err := p.Send(payload, recipient)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	if cfg.AdaptiveGain {
		gained, err := audio.ApplyGain(waveform, cfg.SampleRate, cfg.MaxGain)
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		waveform = gained
	}

	if err := audio.Transmit(sink, waveform, int(cfg.ChunkSize)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
