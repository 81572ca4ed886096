package message

import (
	"themis/internal/domain"
	"themis/message"
)

// Service builds and opens Secure Messages between the local identity and
// the peers pinned in the directory.
//
// The key family of the identity picks the algorithm:
//   - EC and RSA identities can sign and encrypt.
//   - ML-DSA identities can only sign.
//
// Encrypting or decrypting requires the peer to hold a key of the same
// family as ours.
type Service struct {
	keyStore domain.KeyStore
	peers    domain.PeerDirectory
}

// New constructs a Message Service.
func New(keyStore domain.KeyStore, peers domain.PeerDirectory) *Service {
	return &Service{keyStore: keyStore, peers: peers}
}

// Sign returns a signed-only envelope carrying msg.
func (s *Service) Sign(passphrase string, msg []byte) ([]byte, error) {
	id, err := s.keyStore.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	defer id.Destroy()

	signer, err := message.NewSigner(id.Keys.Private)
	if err != nil {
		return nil, err
	}
	return signer.Sign(msg)
}

// Verify checks an envelope signed by peer and returns its message.
func (s *Service) Verify(peer domain.PeerID, signed []byte) ([]byte, error) {
	pub, err := s.peers.Peer(peer)
	if err != nil {
		return nil, err
	}
	verifier, err := message.NewVerifier(pub)
	if err != nil {
		return nil, err
	}
	return verifier.Verify(signed)
}

// Encrypt seals msg so only peer can read it and can tell it came from us.
func (s *Service) Encrypt(passphrase string, peer domain.PeerID, msg []byte) ([]byte, error) {
	sm, id, err := s.secureMessage(passphrase, peer)
	if err != nil {
		return nil, err
	}
	defer id.Destroy()
	return sm.Wrap(msg)
}

// Decrypt opens an envelope that peer encrypted for us.
func (s *Service) Decrypt(passphrase string, peer domain.PeerID, wrapped []byte) ([]byte, error) {
	sm, id, err := s.secureMessage(passphrase, peer)
	if err != nil {
		return nil, err
	}
	defer id.Destroy()
	return sm.Unwrap(wrapped)
}

func (s *Service) secureMessage(passphrase string, peer domain.PeerID) (*message.SecureMessage, domain.Identity, error) {
	pub, err := s.peers.Peer(peer)
	if err != nil {
		return nil, domain.Identity{}, err
	}
	id, err := s.keyStore.LoadIdentity(passphrase)
	if err != nil {
		return nil, domain.Identity{}, err
	}
	sm, err := message.New(id.Keys.Private, pub)
	if err != nil {
		id.Destroy()
		return nil, domain.Identity{}, err
	}
	return sm, id, nil
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
