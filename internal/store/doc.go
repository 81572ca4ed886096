// Package store provides file-based persistence for the CLI's keys.
//
// KeyStore keeps the local identity. The private key is sealed in three
// layers: the passphrase is stretched with argon2id into a key-encryption
// key, which wraps a random data key with AES-KWP (RFC 5649), and the data
// key seals the private key container in a Secure Cell bound to the identity
// id. Changing the passphrase therefore only rewraps the data key.
//
// Directory keeps peer public keys, one file per peer, behind an in-memory
// LRU cache, and serves as the session key lookup.
//
// Every write goes through a temporary file and an atomic rename. All
// methods are safe for concurrent use.
package store
