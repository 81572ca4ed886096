// Package crypto exposes the primitive layer the protocols are built on.
//
// Contents
//
//   - Secure random generation (Random, RandomInto)
//   - AEAD constructions: AES-256-GCM and ChaCha20-Poly1305 (NewAESGCM,
//     NewChaCha20Poly1305, CounterNonce) and the unauthenticated AES-256-CTR
//     transform (XORKeyStream)
//   - HKDF-SHA256 key derivation with unambiguous length-prefixed labels
//     (HKDF, Label, TranscriptHash, MAC)
//   - Passphrase stretching with scrypt and argon2id
//   - X25519 ephemeral key generation and Diffie–Hellman (GenerateX25519, DH)
//     and static P-256 ECDH (ECDH)
//   - Signatures: ECDSA P-256, RSA-PSS and ML-DSA-65; RSA-OAEP key transport
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Functions here operate on standard library and circl key types; the keys
// package owns the conversion from the serialized container format. Callers
// own every secret returned and are expected to wipe it with memzero when
// done.
package crypto
