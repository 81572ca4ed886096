package crypto

import (
	stdcrypto "crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

var pssOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: stdcrypto.SHA256}

// SignECDSA signs SHA-256(msg) with priv and returns an ASN.1 signature.
func SignECDSA(priv *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	return ecdsa.SignASN1(rand.Reader, priv, digest[:])
}

// VerifyECDSA verifies an ASN.1 ECDSA signature over SHA-256(msg).
func VerifyECDSA(pub *ecdsa.PublicKey, msg, sig []byte) bool {
	digest := sha256.Sum256(msg)
	return ecdsa.VerifyASN1(pub, digest[:], sig)
}

// SignRSA signs SHA-256(msg) with RSA-PSS.
func SignRSA(priv *rsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	return rsa.SignPSS(rand.Reader, priv, stdcrypto.SHA256, digest[:], pssOptions)
}

// VerifyRSA verifies an RSA-PSS signature over SHA-256(msg).
func VerifyRSA(pub *rsa.PublicKey, msg, sig []byte) bool {
	digest := sha256.Sum256(msg)
	return rsa.VerifyPSS(pub, stdcrypto.SHA256, digest[:], sig, pssOptions) == nil
}

// SignMLDSA signs msg with ML-DSA-65 (deterministic variant).
func SignMLDSA(priv *mldsa65.PrivateKey, msg []byte) []byte {
	return mldsa65.Scheme().Sign(priv, msg, nil)
}

// VerifyMLDSA verifies an ML-DSA-65 signature over msg.
func VerifyMLDSA(pub *mldsa65.PublicKey, msg, sig []byte) bool {
	if len(sig) != mldsa65.SignatureSize {
		return false
	}
	return mldsa65.Verify(pub, msg, nil, sig)
}

// EncryptOAEP encrypts a short secret for pub with RSA-OAEP(SHA-256).
func EncryptOAEP(pub *rsa.PublicKey, secret, label []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, secret, label)
}

// DecryptOAEP is the inverse of EncryptOAEP.
func DecryptOAEP(priv *rsa.PrivateKey, ciphertext, label []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, label)
}

// ECDH computes a static P-256 Diffie–Hellman shared secret.
func ECDH(priv *ecdh.PrivateKey, pub *ecdh.PublicKey) ([]byte, error) {
	if priv.Curve() != pub.Curve() {
		return nil, errors.New("ecdh: curve mismatch")
	}
	return priv.ECDH(pub)
}
