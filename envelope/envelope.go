// Package envelope implements SonicLink's hybrid confidentiality layer:
// a fresh symmetric key per message, bulk-encrypting the payload under
// AES-256-CBC, itself wrapped under the recipient's RSA-OAEP public key.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// Wire-format sizes per spec.md §3.
const (
	KeySize   = 32 // AES-256.
	IVSize    = 16 // AES block size.
	RSABits   = 2048
	lenPrefix = 2
)

// Seal draws a fresh symmetric key and IV, encrypts plaintext under
// AES-256-CBC with PKCS#7 padding, wraps the symmetric key under the
// recipient's RSA-OAEP public key, and returns
// [wrapped_key_len:2 BE][wrapped_key][iv:16][ciphertext].
func Seal(plaintext []byte, recipient *rsa.PublicKey) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("envelope: generate symmetric key: %w", err)
	}
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("envelope: generate iv: %w", err)
	}

	ciphertext, err := encryptCBC(plaintext, key, iv)
	if err != nil {
		return nil, err
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, recipient, key, nil)
	if err != nil {
		return nil, &Error{Kind: AuthFailure, Err: fmt.Errorf("wrap symmetric key: %w", err)}
	}
	if len(wrapped) > 1<<16-1 {
		return nil, &Error{Kind: BadCiphertext, Err: fmt.Errorf("wrapped key too large: %d bytes", len(wrapped))}
	}

	out := make([]byte, 0, lenPrefix+len(wrapped)+IVSize+len(ciphertext))
	var lenBuf [lenPrefix]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(wrapped)))
	out = append(out, lenBuf[:]...)
	out = append(out, wrapped...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open is the inverse of Seal. It fails with BadCiphertext on
// length/padding errors and AuthFailure when the asymmetric unwrap
// itself fails. The envelope carries no integrity tag; per spec.md §9.3
// callers should treat downstream decode failure as probable tampering.
func Open(sealed []byte, private *rsa.PrivateKey) ([]byte, error) {
	if len(sealed) < lenPrefix {
		return nil, &Error{Kind: BadCiphertext, Err: fmt.Errorf("truncated envelope header")}
	}
	wrappedLen := int(binary.BigEndian.Uint16(sealed[:lenPrefix]))
	rest := sealed[lenPrefix:]
	if len(rest) < wrappedLen+IVSize {
		return nil, &Error{Kind: BadCiphertext, Err: fmt.Errorf("truncated envelope body")}
	}
	wrapped := rest[:wrappedLen]
	iv := rest[wrappedLen : wrappedLen+IVSize]
	ciphertext := rest[wrappedLen+IVSize:]

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, private, wrapped, nil)
	if err != nil {
		return nil, &Error{Kind: AuthFailure, Err: fmt.Errorf("unwrap symmetric key: %w", err)}
	}

	plaintext, err := decryptCBC(ciphertext, key, iv)
	if err != nil {
		return nil, &Error{Kind: BadCiphertext, Err: err}
	}
	return plaintext, nil
}

// SealSymmetric is a debug/utility mode: encrypt with a caller-supplied
// key (or a freshly generated one if key is nil), wire form [IV][ct].
// Returns the ciphertext and the key actually used.
func SealSymmetric(plaintext, key []byte) ([]byte, []byte, error) {
	if key == nil {
		key = make([]byte, KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, fmt.Errorf("envelope: generate symmetric key: %w", err)
		}
	}
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("envelope: generate iv: %w", err)
	}
	ciphertext, err := encryptCBC(plaintext, key, iv)
	if err != nil {
		return nil, nil, err
	}
	out := make([]byte, 0, IVSize+len(ciphertext))
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return out, key, nil
}

// OpenSymmetric is the inverse of SealSymmetric.
func OpenSymmetric(sealed, key []byte) ([]byte, error) {
	if len(sealed) < IVSize {
		return nil, &Error{Kind: BadCiphertext, Err: fmt.Errorf("truncated symmetric envelope")}
	}
	iv := sealed[:IVSize]
	ciphertext := sealed[IVSize:]
	plaintext, err := decryptCBC(ciphertext, key, iv)
	if err != nil {
		return nil, &Error{Kind: BadCiphertext, Err: err}
	}
	return plaintext, nil
}

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func encryptCBC(plaintext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: new cipher: %w", err)
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func decryptCBC(ciphertext, key, iv []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("envelope: ciphertext length %d is not a positive multiple of %d", len(ciphertext), aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: new cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext)
}

// pkcs7Pad pads data to a multiple of blockSize, always adding at least
// one byte (a full block of padding if len(data) is already aligned).
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

// pkcs7Unpad removes PKCS#7 padding, validating it in constant time so
// padding-oracle-style timing leaks aren't introduced at this layer.
func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("envelope: empty plaintext block")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, fmt.Errorf("envelope: invalid padding length %d", padLen)
	}

	expected := make([]byte, padLen)
	for i := range expected {
		expected[i] = byte(padLen)
	}
	got := data[len(data)-padLen:]
	if subtle.ConstantTimeCompare(expected, got) != 1 {
		return nil, fmt.Errorf("envelope: padding mismatch")
	}
	return data[:len(data)-padLen], nil
}
