package main

import (
	"crypto/rsa"
	"flag"
	"fmt"
	"os"

	"github.com/makalin/soniclink/config"
	"github.com/makalin/soniclink/internal/keystore"
	"github.com/makalin/soniclink/pipeline"
)

func runSendFile(cfg config.Config, log pipeline.Logger, args []string) error {
	fs := flag.NewFlagSet("sendfile", flag.ExitOnError)
	pubKeyPath := fs.String("public-key", "public_key.pem", "recipient's public key")
	noEncrypt := fs.Bool("no-encrypt", false, "skip the hybrid envelope stage")
	noCompress := fs.Bool("no-compress", false, "skip the Huffman compression stage")
	// Flags may appear before, between or after the PATH arguments.
	var paths []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		paths = append(paths, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(paths) < 1 {
		return fmt.Errorf("sendfile: at least one PATH is required")
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
			return fmt.Errorf("sendfile: %w", err)
		}
		recipient = key
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("sendfile: read %s: %w", path, err)
		}
		if err := sendPayload(cfg, log, data, recipient); err != nil {
			return fmt.Errorf("sendfile: %s: %w", path, err)
		}
		log.Info("sent file", "path", path, "bytes", len(data))
	}
	return nil
}
