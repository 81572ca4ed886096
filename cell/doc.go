// Package cell implements Secure Cell, stateless protection of data at rest.
//
// A cell is built from a master key and used in one of three modes:
//
//   - Seal: AES-256-GCM. Encrypt returns one opaque blob holding the header,
//     the ciphertext and the tag.
//   - TokenProtect: the same protection, but the ciphertext keeps the length
//     of the plaintext and the header and tag travel separately as a token.
//   - ContextImprint: AES-256-CTR with no tag. Output length equals input
//     length; a non-empty context is mandatory and integrity is left to the
//     caller.
//
// PassphraseSeal is Seal keyed by a passphrase stretched with scrypt.
//
// Every mode derives a fresh per-call key with HKDF-SHA256 from the master
// key, the message length and the optional context, so outputs produced under
// different contexts are unlinkable. Decryption fails closed: any tampering
// with a sealed blob or token is reported as themis.ErrAuthenticationFailure
// and no plaintext is returned.
//
// Cells hold no per-call state and are safe for concurrent use.
package cell
