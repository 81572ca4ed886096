// Package identity manages creation, encryption and loading of the local identity.
//
// It enforces passphrase policy, generates the long-term key pair, and
// persists it via the domain.KeyStore.
package identity
