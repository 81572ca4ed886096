package domain

import (
	"context"

	"themis/keys"
	"themis/session"
)

// KeyStore persists the local identity, private half sealed under a
// passphrase.
type KeyStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
	LoadPublic() (PeerID, *keys.PublicKey, error)
}

// PeerDirectory records the public keys of known peers. It resolves peer ids
// for session negotiation.
type PeerDirectory interface {
	session.KeyLookup
	AddPeer(id PeerID, pub *keys.PublicKey) error
	Peer(id PeerID) (*keys.PublicKey, error)
	Peers() ([]PeerID, error)
}

// RelayClient is how we talk to the relay server.
type RelayClient interface {
	PublishKey(ctx context.Context, id PeerID, pub *keys.PublicKey) error
	FetchKey(ctx context.Context, id PeerID) (*keys.PublicKey, error)

	SendMessage(ctx context.Context, env Envelope) error
	// FetchMessages returns up to limit queued envelopes addressed to id,
	// oldest first. A non-empty from restricts them to one sender.
	FetchMessages(ctx context.Context, id, from PeerID, limit int) ([]Envelope, error)
	AckMessages(ctx context.Context, id, from PeerID, count int) error
}

// IdentityService creates, retrieves and inspects the local identity.
type IdentityService interface {
	GenerateIdentity(passphrase string, id PeerID, alg keys.Algorithm) (Identity, Fingerprint, error)
	LoadIdentity(passphrase string) (Identity, error)
	FingerprintIdentity() (PeerID, Fingerprint, error)
}

// Channel is an established Secure Session with a peer. Close wipes the
// session keys and the identity it was opened with.
type Channel interface {
	Send(ctx context.Context, payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Peer() PeerID
	Close() error
}

// SessionService opens Secure Sessions carried over the relay.
type SessionService interface {
	Connect(ctx context.Context, passphrase string, peer PeerID) (Channel, error)
	Accept(ctx context.Context, passphrase string, peer PeerID) (Channel, error)
}

// PeerService publishes our public key and pins the keys of others.
type PeerService interface {
	Publish(ctx context.Context) (PeerID, Fingerprint, error)
	Fetch(ctx context.Context, peer PeerID) (Fingerprint, error)
	Import(peer PeerID, encoded []byte) (Fingerprint, error)
	Export() (PeerID, []byte, error)
	List() ([]PeerID, error)
}

// MessageService signs, verifies, encrypts and decrypts Secure Messages
// using the stored identity and known peers.
type MessageService interface {
	Sign(passphrase string, msg []byte) ([]byte, error)
	Verify(peer PeerID, signed []byte) ([]byte, error)
	Encrypt(passphrase string, peer PeerID, msg []byte) ([]byte, error)
	Decrypt(passphrase string, peer PeerID, wrapped []byte) ([]byte, error)
}
