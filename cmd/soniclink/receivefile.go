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
	"github.com/makalin/soniclink/pipeline"
)

func runReceiveFile(cfg config.Config, log pipeline.Logger, args []string) error {
	fs := flag.NewFlagSet("receivefile", flag.ExitOnError)
	output := fs.String("output", "received.bin", "where to write the recovered file")
	privKeyPath := fs.String("private-key", "private_key.pem", "our private key")
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
			return fmt.Errorf("receivefile: %w", err)
		}
		private = key
	}

	source, err := openSource()
	if err != nil {
		return fmt.Errorf("receivefile: %w", err)
	}
	if err := source.Set(cfg); err != nil {
		return fmt.Errorf("receivefile: %w", err)
	}

	waveform, err := audio.Receive(source, time.Duration(*timeoutSecs*float64(time.Second)))
	if err != nil {
		return fmt.Errorf("receivefile: %w", err)
	}

	p := pipeline.New(cfg, log)
	result := p.Receive(waveform, private)
	if result.Err != nil {
		return fmt.Errorf("receivefile: %w", result.Err)
	}
	if result.Bytes == nil {
		return fmt.Errorf("receivefile: no signal detected")
	}

	if err := os.WriteFile(*output, result.Bytes, 0o644); err != nil {
		return fmt.Errorf("receivefile: %w", err)
	}
	log.Info("wrote file", "path", *output, "bytes", len(result.Bytes))
	return nil
}
