package crypto

import (
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// SaltSize is the salt length used for passphrase stretching.
const SaltSize = 16

// ScryptParams are the scrypt cost parameters.
type ScryptParams struct {
	N, R, P int
}

// DefaultScrypt returns interactive-login scrypt costs.
func DefaultScrypt() ScryptParams { return ScryptParams{N: 1 << 15, R: 8, P: 1} }

// ScryptKey stretches passphrase into a KeySize key.
func ScryptKey(passphrase, salt []byte, p ScryptParams) ([]byte, error) {
	return scrypt.Key(passphrase, salt, p.N, p.R, p.P, KeySize)
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2 returns the RFC 9106 second recommended argon2id profile.
func DefaultArgon2() Argon2Params { return Argon2Params{Time: 3, Memory: 64 * 1024, Threads: 4} }

// DeriveKEK stretches passphrase into a KeySize key-encryption key with
// argon2id.
func DeriveKEK(passphrase, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Threads, KeySize)
}
