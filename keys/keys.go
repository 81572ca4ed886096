package keys

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
)

// Algorithm is the key family of a key pair.
type Algorithm byte

const (
	EC Algorithm = iota + 1
	RSA
	MLDSA
)

func (a Algorithm) String() string {
	switch a {
	case EC:
		return "ec"
	case RSA:
		return "rsa"
	case MLDSA:
		return "mldsa65"
	}
	return fmt.Sprintf("algorithm(%d)", byte(a))
}

// ParseAlgorithm maps "ec", "rsa" or "mldsa65" to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "ec", "EC":
		return EC, nil
	case "rsa", "RSA":
		return RSA, nil
	case "mldsa65", "mldsa", "ML-DSA-65":
		return MLDSA, nil
	}
	return 0, themis.NewError("keys.ParseAlgorithm", themis.ErrInvalidArgument,
		fmt.Errorf("unknown key algorithm %q", s))
}

const ecScalarSize = 32

var (
	// ErrDestroyed is the cause reported when a destroyed key is used.
	ErrDestroyed = errors.New("key has been destroyed")
	// ErrWrongAlgorithm is the cause reported when a key family does not
	// support the requested operation.
	ErrWrongAlgorithm = errors.New("operation not supported by key algorithm")
)

// PrivateKey is the secret half of a key pair.
type PrivateKey struct {
	alg Algorithm
	ec  *ecdsa.PrivateKey
	rsa *rsa.PrivateKey
	ml  *mldsa65.PrivateKey
	pub *PublicKey
}

// PublicKey is the public half of a key pair.
type PublicKey struct {
	alg     Algorithm
	encoded []byte
	ec      *ecdsa.PublicKey
	rsa     *rsa.PublicKey
	ml      *mldsa65.PublicKey
}

// KeyPair bundles a private key with its public key.
type KeyPair struct {
	Private *PrivateKey
	Public  *PublicKey
}

// Destroy wipes the private half of the pair.
func (kp *KeyPair) Destroy() {
	if kp != nil {
		kp.Private.Destroy()
	}
}

// Algorithm returns the key family.
func (k *PrivateKey) Algorithm() Algorithm { return k.alg }

// Public returns the matching public key.
func (k *PrivateKey) Public() *PublicKey { return k.pub }

// Destroyed reports whether Destroy has been called.
func (k *PrivateKey) Destroyed() bool {
	return k.ec == nil && k.rsa == nil && k.ml == nil
}

// Sign signs msg with the algorithm implied by the key family.
func (k *PrivateKey) Sign(msg []byte) ([]byte, error) {
	const op = "keys.Sign"
	var (
		sig []byte
		err error
	)
	switch {
	case k.ec != nil:
		sig, err = crypto.SignECDSA(k.ec, msg)
	case k.rsa != nil:
		sig, err = crypto.SignRSA(k.rsa, msg)
	case k.ml != nil:
		sig = crypto.SignMLDSA(k.ml, msg)
	default:
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrDestroyed)
	}
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	return sig, nil
}

// SharedSecret computes static P-256 ECDH between k and peer.
func (k *PrivateKey) SharedSecret(peer *PublicKey) ([]byte, error) {
	const op = "keys.SharedSecret"
	if k.Destroyed() {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrDestroyed)
	}
	if k.alg != EC || peer.alg != EC {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrWrongAlgorithm)
	}
	priv, err := k.ec.ECDH()
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	pub, err := peer.ec.ECDH()
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	secret, err := crypto.ECDH(priv, pub)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	return secret, nil
}

// DecryptKey recovers a secret encrypted to the public key with EncryptKey.
func (k *PrivateKey) DecryptKey(ciphertext, label []byte) ([]byte, error) {
	const op = "keys.DecryptKey"
	if k.Destroyed() {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrDestroyed)
	}
	if k.alg != RSA {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrWrongAlgorithm)
	}
	secret, err := crypto.DecryptOAEP(k.rsa, ciphertext, label)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, err)
	}
	return secret, nil
}

// Marshal encodes the private key into its container.
func (k *PrivateKey) Marshal() ([]byte, error) {
	const op = "keys.PrivateKey.Marshal"
	switch {
	case k.ec != nil:
		body := k.ec.D.FillBytes(make([]byte, ecScalarSize))
		defer memzero.Zero(body)
		return seal(tagECPrivate, body), nil
	case k.rsa != nil:
		body := x509.MarshalPKCS1PrivateKey(k.rsa)
		defer memzero.Zero(body)
		return seal(tagRSAPrivate, body), nil
	case k.ml != nil:
		body, err := k.ml.MarshalBinary()
		if err != nil {
			return nil, themis.NewError(op, themis.ErrInternal, err)
		}
		defer memzero.Zero(body)
		return seal(tagMLDSAPrivate, body), nil
	}
	return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrDestroyed)
}

// Destroy wipes the secret material held by k. The key is unusable
// afterwards. Wiping of big integers is best-effort: their backing words are
// overwritten in place. On Go 1.24 and later crypto/rsa also keeps a copy of
// the RSA key in unexported precomputed state, which is out of reach here.
func (k *PrivateKey) Destroy() {
	if k == nil {
		return
	}
	if k.ec != nil {
		wipeInt(k.ec.D)
		k.ec = nil
	}
	if k.rsa != nil {
		wipeInt(k.rsa.D)
		for _, p := range k.rsa.Primes {
			wipeInt(p)
		}
		wipeInt(k.rsa.Precomputed.Dp)
		wipeInt(k.rsa.Precomputed.Dq)
		wipeInt(k.rsa.Precomputed.Qinv)
		k.rsa = nil
	}
	if k.ml != nil {
		*k.ml = mldsa65.PrivateKey{}
		k.ml = nil
	}
}

func wipeInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}

// Algorithm returns the key family.
func (p *PublicKey) Algorithm() Algorithm { return p.alg }

// Verify reports whether sig is a valid signature over msg by p.
func (p *PublicKey) Verify(msg, sig []byte) bool {
	switch p.alg {
	case EC:
		return crypto.VerifyECDSA(p.ec, msg, sig)
	case RSA:
		return crypto.VerifyRSA(p.rsa, msg, sig)
	case MLDSA:
		return crypto.VerifyMLDSA(p.ml, msg, sig)
	}
	return false
}

// EncryptKey encrypts a short secret so that only the RSA private key can
// recover it.
func (p *PublicKey) EncryptKey(secret, label []byte) ([]byte, error) {
	const op = "keys.EncryptKey"
	if p.alg != RSA {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrWrongAlgorithm)
	}
	ct, err := crypto.EncryptOAEP(p.rsa, secret, label)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	return ct, nil
}

// EncryptedKeySize returns the size of EncryptKey output, or 0 for non-RSA
// keys.
func (p *PublicKey) EncryptedKeySize() int {
	if p.alg != RSA {
		return 0
	}
	return p.rsa.Size()
}

// Marshal returns the container encoding of p. The result must not be
// modified.
func (p *PublicKey) Marshal() []byte { return p.encoded }

// Equal reports whether p and q are the same key.
func (p *PublicKey) Equal(q *PublicKey) bool {
	if p == nil || q == nil {
		return p == q
	}
	return subtle.ConstantTimeCompare(p.encoded, q.encoded) == 1
}

// Fingerprint returns a short human-comparable digest of p.
func (p *PublicKey) Fingerprint() string { return crypto.Fingerprint(p.encoded) }

// ParsePrivateKey decodes a private key container. The returned key owns its
// memory; b can be wiped afterwards.
func ParsePrivateKey(b []byte) (*PrivateKey, error) {
	const op = "keys.ParsePrivateKey"
	tag, body, err := open(b)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	alg, private, err := algorithmForTag(tag)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if !private {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errors.New("container holds a public key"))
	}
	var k *PrivateKey
	switch alg {
	case EC:
		k, err = ecPrivateKey(body)
	case RSA:
		k, err = rsaPrivateKey(body)
	case MLDSA:
		k, err = mldsaPrivateKey(body)
	}
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	return k, nil
}

// ParsePublicKey decodes a public key container.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	const op = "keys.ParsePublicKey"
	tag, body, err := open(b)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	alg, private, err := algorithmForTag(tag)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if private {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errors.New("container holds a private key"))
	}
	var p *PublicKey
	switch alg {
	case EC:
		p, err = ecPublicKey(body)
	case RSA:
		p, err = rsaPublicKey(body)
	case MLDSA:
		p, err = mldsaPublicKey(body)
	}
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	return p, nil
}

func ecPrivateKey(body []byte) (*PrivateKey, error) {
	if len(body) != ecScalarSize {
		return nil, fmt.Errorf("ec private key must be %d bytes, got %d", ecScalarSize, len(body))
	}
	// NewPrivateKey rejects zero and out-of-range scalars.
	dh, err := ecdh.P256().NewPrivateKey(body)
	if err != nil {
		return nil, err
	}
	pub, err := ecPublicKey(dh.PublicKey().Bytes())
	if err != nil {
		return nil, err
	}
	priv := &ecdsa.PrivateKey{PublicKey: *pub.ec, D: new(big.Int).SetBytes(body)}
	return &PrivateKey{alg: EC, ec: priv, pub: pub}, nil
}

func ecPublicKey(body []byte) (*PublicKey, error) {
	// NewPublicKey checks the point is uncompressed and on the curve.
	dh, err := ecdh.P256().NewPublicKey(body)
	if err != nil {
		return nil, err
	}
	raw := dh.Bytes()
	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[1:33]),
		Y:     new(big.Int).SetBytes(raw[33:65]),
	}
	return &PublicKey{alg: EC, ec: pub, encoded: seal(tagECPublic, raw)}, nil
}

func rsaPrivateKey(body []byte) (*PrivateKey, error) {
	priv, err := x509.ParsePKCS1PrivateKey(body)
	if err != nil {
		return nil, err
	}
	if priv.N.BitLen() < minRSABits {
		return nil, fmt.Errorf("rsa key of %d bits is below minimum %d", priv.N.BitLen(), minRSABits)
	}
	return &PrivateKey{alg: RSA, rsa: priv, pub: newRSAPublic(&priv.PublicKey)}, nil
}

func rsaPublicKey(body []byte) (*PublicKey, error) {
	pub, err := x509.ParsePKCS1PublicKey(body)
	if err != nil {
		return nil, err
	}
	if pub.N.BitLen() < minRSABits {
		return nil, fmt.Errorf("rsa key of %d bits is below minimum %d", pub.N.BitLen(), minRSABits)
	}
	return newRSAPublic(pub), nil
}

func newRSAPublic(pub *rsa.PublicKey) *PublicKey {
	return &PublicKey{alg: RSA, rsa: pub, encoded: seal(tagRSAPublic, x509.MarshalPKCS1PublicKey(pub))}
}

func mldsaPrivateKey(body []byte) (*PrivateKey, error) {
	sk, err := mldsa65.Scheme().UnmarshalBinaryPrivateKey(body)
	if err != nil {
		return nil, err
	}
	priv, ok := sk.(*mldsa65.PrivateKey)
	if !ok {
		return nil, errors.New("unexpected ml-dsa private key type")
	}
	pk, ok := priv.Public().(*mldsa65.PublicKey)
	if !ok {
		return nil, errors.New("unexpected ml-dsa public key type")
	}
	pub, err := newMLDSAPublic(pk)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{alg: MLDSA, ml: priv, pub: pub}, nil
}

func mldsaPublicKey(body []byte) (*PublicKey, error) {
	pk := new(mldsa65.PublicKey)
	if err := pk.UnmarshalBinary(body); err != nil {
		return nil, err
	}
	return newMLDSAPublic(pk)
}

func newMLDSAPublic(pk *mldsa65.PublicKey) (*PublicKey, error) {
	raw, err := pk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &PublicKey{alg: MLDSA, ml: pk, encoded: seal(tagMLDSAPublic, raw)}, nil
}
