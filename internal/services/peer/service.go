package peer

import (
	"context"
	"errors"
	"fmt"

	"themis/internal/domain"
	"themis/internal/store"
	"themis/keys"
)

var (
	// ErrKeyChanged is returned when the relay serves a key for a peer that
	// differs from the one already pinned.
	ErrKeyChanged = errors.New("peer key differs from the pinned key")
)

// Service distributes public keys.
//
// Our own key is published to the relay under our id. A peer's key is either
// fetched from the relay or imported from a file, and then pinned in the
// directory. Later fetches never replace a pinned key; Import does, since it
// is an explicit decision by the user.
type Service struct {
	keyStore    domain.KeyStore
	peers       domain.PeerDirectory
	relayClient domain.RelayClient
}

// New constructs a Peer Service.
func New(keyStore domain.KeyStore, peers domain.PeerDirectory, relayClient domain.RelayClient) *Service {
	return &Service{keyStore: keyStore, peers: peers, relayClient: relayClient}
}

// Publish uploads our public key to the relay.
func (s *Service) Publish(ctx context.Context) (domain.PeerID, domain.Fingerprint, error) {
	id, pub, err := s.keyStore.LoadPublic()
	if err != nil {
		return "", "", err
	}
	if err := s.relayClient.PublishKey(ctx, id, pub); err != nil {
		return "", "", err
	}
	return id, domain.Fingerprint(pub.Fingerprint()), nil
}

// Fetch downloads the key of peer from the relay and pins it.
func (s *Service) Fetch(ctx context.Context, peer domain.PeerID) (domain.Fingerprint, error) {
	if !store.ValidPeerID(peer) {
		return "", store.ErrBadPeerID
	}
	pub, err := s.relayClient.FetchKey(ctx, peer)
	if err != nil {
		return "", err
	}
	pinned, err := s.peers.Peer(peer)
	switch {
	case err == nil:
		if !pinned.Equal(pub) {
			return "", fmt.Errorf("%w: %s is pinned as %s, relay has %s",
				ErrKeyChanged, peer, pinned.Fingerprint(), pub.Fingerprint())
		}
		return domain.Fingerprint(pub.Fingerprint()), nil
	case errors.Is(err, store.ErrUnknownPeer):
	default:
		return "", err
	}
	if err := s.peers.AddPeer(peer, pub); err != nil {
		return "", err
	}
	return domain.Fingerprint(pub.Fingerprint()), nil
}

// Import pins an encoded public key for peer.
func (s *Service) Import(peer domain.PeerID, encoded []byte) (domain.Fingerprint, error) {
	pub, err := keys.ParsePublicKey(encoded)
	if err != nil {
		return "", err
	}
	if err := s.peers.AddPeer(peer, pub); err != nil {
		return "", err
	}
	return domain.Fingerprint(pub.Fingerprint()), nil
}

// Export returns our id and encoded public key.
func (s *Service) Export() (domain.PeerID, []byte, error) {
	id, pub, err := s.keyStore.LoadPublic()
	if err != nil {
		return "", nil, err
	}
	return id, pub.Marshal(), nil
}

// List returns the ids of pinned peers.
func (s *Service) List() ([]domain.PeerID, error) {
	return s.peers.Peers()
}

// Compile-time assertion that Service implements domain.PeerService.
var _ domain.PeerService = (*Service)(nil)
