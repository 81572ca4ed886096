package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"themis"
)

const (
	// DefaultRSABits is the modulus size used by Generate for RSA.
	DefaultRSABits = 2048
	minRSABits     = 2048
)

// Generate returns a fresh key pair of the given family.
func Generate(alg Algorithm) (*KeyPair, error) {
	switch alg {
	case EC:
		return GenerateEC()
	case RSA:
		return GenerateRSA(DefaultRSABits)
	case MLDSA:
		return GenerateMLDSA()
	}
	return nil, themis.NewError("keys.Generate", themis.ErrInvalidArgument,
		fmt.Errorf("unknown key algorithm %v", alg))
}

// GenerateEC returns a fresh P-256 key pair.
func GenerateEC() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, themis.NewError("keys.GenerateEC", themis.ErrInternal, err)
	}
	dh, err := priv.PublicKey.ECDH()
	if err != nil {
		return nil, themis.NewError("keys.GenerateEC", themis.ErrInternal, err)
	}
	pub, err := ecPublicKey(dh.Bytes())
	if err != nil {
		return nil, themis.NewError("keys.GenerateEC", themis.ErrInternal, err)
	}
	k := &PrivateKey{alg: EC, ec: priv, pub: pub}
	return &KeyPair{Private: k, Public: pub}, nil
}

// GenerateRSA returns a fresh RSA key pair with a modulus of bits bits.
func GenerateRSA(bits int) (*KeyPair, error) {
	if bits < minRSABits {
		return nil, themis.NewError("keys.GenerateRSA", themis.ErrInvalidArgument,
			fmt.Errorf("rsa modulus must be at least %d bits", minRSABits))
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, themis.NewError("keys.GenerateRSA", themis.ErrInternal, err)
	}
	k := &PrivateKey{alg: RSA, rsa: priv, pub: newRSAPublic(&priv.PublicKey)}
	return &KeyPair{Private: k, Public: k.pub}, nil
}

// GenerateMLDSA returns a fresh ML-DSA-65 key pair.
func GenerateMLDSA() (*KeyPair, error) {
	pk, sk, err := mldsa65.GenerateKey(rand.Reader)
	if err != nil {
		return nil, themis.NewError("keys.GenerateMLDSA", themis.ErrInternal, err)
	}
	pub, err := newMLDSAPublic(pk)
	if err != nil {
		return nil, themis.NewError("keys.GenerateMLDSA", themis.ErrInternal, err)
	}
	k := &PrivateKey{alg: MLDSA, ml: sk, pub: pub}
	return &KeyPair{Private: k, Public: pub}, nil
}
