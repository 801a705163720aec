// Package keystore provides thin PEM file load/save helpers for the
// CLI's key lifecycle subcommands (generate-keys, --private-key,
// --public-key). Key storage itself is an external collaborator per
// spec.md §1; this package owns no file handles or long-lived state
// beyond a single read or write call.
package keystore

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/makalin/soniclink/envelope"
)

// GenerateAndSave creates a fresh RSA keypair and writes it as two PEM
// files: privPath (mode 0600) and pubPath (mode 0644).
func GenerateAndSave(privPath, pubPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	priv, pub, err := envelope.GenerateKeypair()
	if err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(privPath, envelope.EncodePrivateKeyPEM(priv), 0o600); err != nil {
		return nil, nil, fmt.Errorf("keystore: write private key: %w", err)
	}
	pubPEM, err := envelope.EncodePublicKeyPEM(pub)
	if err != nil {
		return nil, nil, fmt.Errorf("keystore: encode public key: %w", err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return nil, nil, fmt.Errorf("keystore: write public key: %w", err)
	}
	return priv, pub, nil
}

// LoadPrivateKey reads and parses a PEM-encoded RSA private key file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: read private key %s: %w", path, err)
	}
	return envelope.DecodePrivateKeyPEM(data)
}

// LoadPublicKey reads and parses a PEM-encoded RSA public key file.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: read public key %s: %w", path, err)
	}
	return envelope.DecodePublicKeyPEM(data)
}
