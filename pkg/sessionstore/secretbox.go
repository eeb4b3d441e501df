package sessionstore

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// secretBox seals and opens archive payloads with XChaCha20-Poly1305.
// Output format: [24-byte nonce][ciphertext][16-byte auth tag].
type secretBox struct {
	aead cipher.AEAD
}

func newSecretBox(key []byte) (*secretBox, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: failed to create cipher: %w", err)
	}
	return &secretBox{aead: aead}, nil
}

func (b *secretBox) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("sessionstore: failed to generate nonce: %w", err)
	}

	return b.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (b *secretBox) open(sealed []byte) ([]byte, error) {
	nonceSize := b.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, errors.New("sessionstore: sealed payload too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: failed to open payload: %w", err)
	}

	return plaintext, nil
}
