// Package message signs, verifies, encrypts and decrypts Secure Messages
// with the stored identity and the keys of known peers.
package message
