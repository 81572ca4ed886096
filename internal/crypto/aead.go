package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the size of every symmetric key in the engine.
	KeySize = 32
	// TagSize is the authentication tag size of both AEADs.
	TagSize = 16
	// NonceSize is the nonce size of both AEADs.
	NonceSize = 12
	// IVSize is the AES-CTR initialisation vector size.
	IVSize = aes.BlockSize
)

// NewAESGCM returns AES-256-GCM keyed with key.
func NewAESGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aes-gcm: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// NewChaCha20Poly1305 returns ChaCha20-Poly1305 keyed with key.
func NewChaCha20Poly1305(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("chacha20poly1305: key must be %d bytes, got %d", KeySize, len(key))
	}
	return chacha20poly1305.New(key)
}

// CounterNonce encodes seq as a 96-bit nonce: four zero bytes followed by
// seq in big-endian order.
func CounterNonce(seq uint64) []byte {
	nonce := make([]byte, NonceSize)
	binary.BigEndian.PutUint64(nonce[NonceSize-8:], seq)
	return nonce
}

// XORKeyStream runs AES-256-CTR over in. Output length equals input length
// and carries no integrity protection.
func XORKeyStream(key, iv, in []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aes-ctr: key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("aes-ctr: iv must be %d bytes, got %d", IVSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}
