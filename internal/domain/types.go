package domain

import (
	"time"

	"themis/keys"
)

// PeerID names a party: the local identity or a known peer.
type PeerID string

func (p PeerID) String() string { return string(p) }

// Bytes returns the identifier as announced during session negotiation.
func (p PeerID) Bytes() []byte { return []byte(p) }

// Fingerprint is a short human-comparable digest of a public key.
type Fingerprint string

// Identity is the local long-term key pair and the id it is known by.
type Identity struct {
	ID   PeerID
	Keys *keys.KeyPair
}

// Destroy wipes the private key.
func (id Identity) Destroy() {
	if id.Keys != nil {
		id.Keys.Destroy()
	}
}

// Envelope is one opaque protocol message queued by the relay.
type Envelope struct {
	ID       string    `json:"id"`
	From     PeerID    `json:"from"`
	To       PeerID    `json:"to"`
	Data     []byte    `json:"data"`
	Received time.Time `json:"received"`
}
