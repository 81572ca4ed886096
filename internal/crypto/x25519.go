package crypto

import (
	"golang.org/x/crypto/curve25519"
)

// X25519Size is the size of X25519 scalars, points and shared secrets.
const X25519Size = curve25519.PointSize

// X25519Private is a Curve25519 private scalar.
type X25519Private [X25519Size]byte

// Slice returns the key as a []byte.
func (k *X25519Private) Slice() []byte { return k[:] }

// X25519Public is a Curve25519 public point.
type X25519Public [X25519Size]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv X25519Private, pub X25519Public, err error) {
	if err = RandomInto(priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// DH computes X25519 Diffie–Hellman. It fails when pub is a low-order point
// and the shared secret would be all zeros.
func DH(priv *X25519Private, pub X25519Public) (out [X25519Size]byte, err error) {
	secret, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return out, err
	}
	copy(out[:], secret)
	for i := range secret {
		secret[i] = 0
	}
	return out, nil
}

func clamp(k *X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
