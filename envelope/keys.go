package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// GenerateKeypair returns a fresh RSA-2048 keypair.
func GenerateKeypair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSABits)
	if err != nil {
		return nil, nil, fmt.Errorf("envelope: generate keypair: %w", err)
	}
	return priv, &priv.PublicKey, nil
}

// EncodePrivateKeyPEM serializes a private key as PKCS#1 PEM.
func EncodePrivateKeyPEM(key *rsa.PrivateKey) []byte {
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return pem.EncodeToMemory(block)
}

// EncodePublicKeyPEM serializes a public key as PKIX PEM.
func EncodePublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// DecodePrivateKeyPEM parses a PKCS#1 (or PKCS#8) PEM-encoded RSA
// private key.
func DecodePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("envelope: no PEM block found in private key")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	generic, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("envelope: parse private key: %w", err)
	}
	key, ok := generic.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("envelope: PEM block does not contain an RSA private key")
	}
	return key, nil
}

// DecodePublicKeyPEM parses a PKIX PEM-encoded RSA public key.
func DecodePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("envelope: no PEM block found in public key")
	}
	generic, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("envelope: parse public key: %w", err)
	}
	key, ok := generic.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("envelope: PEM block does not contain an RSA public key")
	}
	return key, nil
}
