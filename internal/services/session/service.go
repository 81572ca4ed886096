package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"themis/internal/domain"
	"themis/internal/logger"
	"themis/internal/relay"
	"themis/session"
)

var (
	// ErrPeerMismatch is returned when the party that completed negotiation
	// is not the peer the caller asked for.
	ErrPeerMismatch = errors.New("negotiated with an unexpected peer")
)

// Service opens Secure Sessions with known peers, carrying the envelopes
// through the relay mailbox.
//
// Opening a session:
//   - Checks that the peer's public key is pinned in the directory.
//   - Loads and decrypts our own identity.
//   - Builds a relay mailbox between us and the peer.
//   - Negotiates as initiator (Connect) or responder (Accept).
//   - Confirms the authenticated remote id is the requested peer.
//
// Nothing is persisted: a session lives only as long as the Channel.
type Service struct {
	keyStore    domain.KeyStore
	peers       domain.PeerDirectory
	relayClient domain.RelayClient
	log         logger.Logger
	poll        time.Duration
}

// New constructs a Session Service. poll is how often the mailbox asks the
// relay for new envelopes; zero means relay.DefaultPollInterval.
func New(
	keyStore domain.KeyStore,
	peers domain.PeerDirectory,
	relayClient domain.RelayClient,
	log logger.Logger,
	poll time.Duration,
) *Service {
	return &Service{
		keyStore:    keyStore,
		peers:       peers,
		relayClient: relayClient,
		log:         log,
		poll:        poll,
	}
}

// Connect negotiates a session with peer as the initiator.
func (s *Service) Connect(ctx context.Context, passphrase string, peer domain.PeerID) (domain.Channel, error) {
	return s.open(ctx, passphrase, peer, (*session.Session).Connect)
}

// Accept waits for peer to connect and negotiates as the responder.
func (s *Service) Accept(ctx context.Context, passphrase string, peer domain.PeerID) (domain.Channel, error) {
	return s.open(ctx, passphrase, peer, (*session.Session).Accept)
}

func (s *Service) open(
	ctx context.Context,
	passphrase string,
	peer domain.PeerID,
	negotiate func(*session.Session, context.Context) error,
) (domain.Channel, error) {
	if _, err := s.peers.Peer(peer); err != nil {
		return nil, err
	}
	id, err := s.keyStore.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}

	mailbox := relay.NewMailbox(s.relayClient, id.ID, peer, s.poll)
	sess, err := session.New(id.ID.Bytes(), id.Keys.Private, s.peers,
		session.WithTransport(mailbox),
		session.WithLogger(s.log),
	)
	if err != nil {
		id.Destroy()
		return nil, err
	}
	ch := &Channel{sess: sess, identity: id, peer: peer}

	if err := negotiate(sess, ctx); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if remote := domain.PeerID(sess.RemoteID()); remote != peer {
		_ = ch.Close()
		return nil, fmt.Errorf("%w: %q", ErrPeerMismatch, remote)
	}
	s.log.Infof("session with %s established", peer)
	return ch, nil
}

// Channel is an established session together with the identity that
// authenticated it.
type Channel struct {
	sess     *session.Session
	identity domain.Identity
	peer     domain.PeerID
}

// Send wraps payload and posts it to the peer.
func (c *Channel) Send(ctx context.Context, payload []byte) error {
	return c.sess.Send(ctx, payload)
}

// Receive returns the next payload from the peer.
func (c *Channel) Receive(ctx context.Context) ([]byte, error) {
	return c.sess.Receive(ctx)
}

// Peer returns the authenticated remote id.
func (c *Channel) Peer() domain.PeerID { return c.peer }

// State reports the underlying session state.
func (c *Channel) State() session.State { return c.sess.State() }

// Close wipes the session keys and the private identity key.
func (c *Channel) Close() error {
	err := c.sess.Close()
	c.identity.Destroy()
	return err
}

// Compile-time assertions.
var (
	_ domain.SessionService = (*Service)(nil)
	_ domain.Channel        = (*Channel)(nil)
)
