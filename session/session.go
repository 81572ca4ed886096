package session

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
	"themis/keys"
)

// MaxIDLen bounds the identifier a party announces during negotiation.
const MaxIDLen = 1024

// maxSeq is the last usable sequence number in either direction.
const maxSeq = uint64(math.MaxUint64) - 1

var (
	// ErrEmptyID is returned by New when the local identifier is empty.
	ErrEmptyID = errors.New("session id is empty")
	// ErrIDTooLong is returned when an identifier exceeds MaxIDLen.
	ErrIDTooLong = fmt.Errorf("session id exceeds %d bytes", MaxIDLen)
	// ErrNoKeyLookup is returned by New without a KeyLookup.
	ErrNoKeyLookup = errors.New("key lookup is nil")
	// ErrUnknownPeer means the KeyLookup has no key for the announced id.
	ErrUnknownPeer = errors.New("peer id is not known")
	// ErrBadSignature means the peer's negotiation signature is invalid.
	ErrBadSignature = errors.New("peer signature does not verify")
	// ErrBadConfirm means the peer's key confirmation MAC is invalid.
	ErrBadConfirm = errors.New("key confirmation does not verify")
	// ErrSeqExhausted is returned once a direction has used every sequence number.
	ErrSeqExhausted = errors.New("sequence numbers exhausted")
	// ErrNoTransport is returned by the transport helpers when none is attached.
	ErrNoTransport = errors.New("session has no transport")

	errUnexpected    = errors.New("unexpected negotiation envelope")
	errEmptyPayload  = errors.New("payload is empty")
	errShortEnvelope = errors.New("session envelope shorter than its sequence number")
)

// Session is one end of a Secure Session.
type Session struct {
	id        []byte
	priv      *keys.PrivateKey
	lookup    KeyLookup
	transport Transport
	log       Logger
	onState   func(State)

	state     State
	initiator bool

	remoteID  []byte
	remoteKey *keys.PublicKey

	ephPriv    crypto.X25519Private
	ephPub     crypto.X25519Public
	peerEph    crypto.X25519Public
	transcript []byte

	sendKey []byte
	recvKey []byte
	macKey  []byte
	sendSeq uint64
	recvSeq uint64
}

// New returns an idle session for the party identified by id holding priv.
// lookup resolves the peer's id to its public key during negotiation. The
// session keeps references to priv and lookup but never destroys priv.
func New(id []byte, priv *keys.PrivateKey, lookup KeyLookup, opts ...Option) (*Session, error) {
	const op = "session.New"
	switch {
	case len(id) == 0:
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyID)
	case len(id) > MaxIDLen:
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrIDTooLong)
	case priv == nil || priv.Destroyed():
		return nil, themis.NewError(op, themis.ErrInvalidArgument, keys.ErrDestroyed)
	case lookup == nil:
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrNoKeyLookup)
	}
	s := &Session{
		id:     bytes.Clone(id),
		priv:   priv,
		lookup: lookup,
		log:    nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State { return s.state }

// IsEstablished reports whether Wrap and Unwrap may be used.
func (s *Session) IsEstablished() bool { return s.state == StateEstablished }

// ID returns our own identifier.
func (s *Session) ID() []byte { return bytes.Clone(s.id) }

// RemoteID returns the peer identifier learned during negotiation, or nil
// before the peer has announced itself.
func (s *Session) RemoteID() []byte { return bytes.Clone(s.remoteID) }

// RemoteKey returns the peer's long-term public key, or nil before it has
// been resolved.
func (s *Session) RemoteKey() *keys.PublicKey { return s.remoteKey }

// Close ends the session and wipes all key material. Closing a closed or
// failed session is a no-op.
func (s *Session) Close() error {
	if s.state.terminal() {
		return nil
	}
	s.wipe()
	s.setState(StateClosed)
	return nil
}

func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	s.log.Debugf("session %x: %v -> %v", s.id, s.state, st)
	s.state = st
	if s.onState != nil {
		s.onState(st)
	}
}

// fail moves a negotiating session to StateFailed and returns err.
func (s *Session) fail(err error) error {
	s.log.Warnf("session %x: negotiation failed: %v", s.id, err)
	s.wipe()
	s.setState(StateFailed)
	return err
}

func (s *Session) wipe() {
	memzero.ZeroAll(s.ephPriv[:], s.transcript, s.sendKey, s.recvKey, s.macKey)
	s.transcript, s.sendKey, s.recvKey, s.macKey = nil, nil, nil, nil
}

// checkState returns a protocol state error unless the session is in want.
func (s *Session) checkState(op string, want State) error {
	if s.state == want {
		return nil
	}
	return themis.NewError(op, themis.ErrProtocolState,
		fmt.Errorf("session is %v, want %v", s.state, want))
}
