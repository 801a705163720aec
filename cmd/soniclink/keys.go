package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/makalin/soniclink/internal/keystore"
)

func runGenerateKeys(args []string) error {
	fs := flag.NewFlagSet("generate-keys", flag.ExitOnError)
	privPath := fs.String("private-key", "private_key.pem", "output path for the private key")
	pubPath := fs.String("public-key", "public_key.pem", "output path for the public key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, _, err := keystore.GenerateAndSave(*privPath, *pubPath); err != nil {
		return fmt.Errorf("generate-keys: %w", err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s and %s\n", *privPath, *pubPath)
	return nil
}
