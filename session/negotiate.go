package session

import (
	"bytes"
	"fmt"

	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
	"themis/internal/wire"
	"themis/keys"
)

// maxSigLen bounds signature fields; ML-DSA-65 signatures are the largest.
const maxSigLen = 8192

var (
	connectLabel    = []byte("themis session connect v1")
	replyLabel      = []byte("themis session reply v1")
	proposalLabel   = []byte("themis session proposal v1")
	transcriptLabel = []byte("themis session transcript v1")
	keysLabel       = []byte("themis session keys v1")
	initiatorLabel  = []byte("initiator")
	responderLabel  = []byte("responder")
)

// ConnectRequest starts negotiation as the initiator and returns the first
// envelope to deliver to the peer.
func (s *Session) ConnectRequest() ([]byte, error) {
	const op = "session.ConnectRequest"
	if err := s.checkState(op, StateIdle); err != nil {
		return nil, err
	}
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	sig, err := s.priv.Sign(crypto.Label(connectLabel, s.id, pub[:]))
	if err != nil {
		memzero.Zero(priv[:])
		return nil, err
	}
	out, err := envelope(wire.KindConnectRequest, wire.NewWriter(0).
		Bytes(s.id).Fixed(pub[:]).Bytes(sig).Payload())
	if err != nil {
		memzero.Zero(priv[:])
		return nil, err
	}
	s.ephPriv, s.ephPub = priv, pub
	s.initiator = true
	s.setState(StateNegotiating)
	return out, nil
}

// Negotiate processes one negotiation envelope from the peer and returns the
// envelope to send back, or nil when there is nothing to send. An idle
// session that receives a ConnectRequest becomes the responder.
//
// Once negotiating, any malformed, unexpected or unverifiable envelope moves
// the session to StateFailed.
func (s *Session) Negotiate(data []byte) ([]byte, error) {
	const op = "session.Negotiate"
	switch s.state {
	case StateIdle:
		env, err := wire.Parse(data)
		if err != nil {
			return nil, err
		}
		if env.Kind != wire.KindConnectRequest {
			return nil, themis.NewError(op, themis.ErrProtocolState,
				fmt.Errorf("%w: %v while idle", errUnexpected, env.Kind))
		}
		s.setState(StateNegotiating)
		if env.Tag != nil {
			return nil, s.fail(themis.NewError(op, themis.ErrInvalidArgument, errUnexpected))
		}
		out, err := s.onConnectRequest(op, env.Payload)
		if err != nil {
			return nil, s.fail(err)
		}
		return out, nil

	case StateNegotiating:
		env, err := wire.Parse(data)
		if err != nil {
			return nil, s.fail(err)
		}
		if env.Tag != nil || env.Kind != s.expected() {
			return nil, s.fail(themis.NewError(op, themis.ErrProtocolState,
				fmt.Errorf("%w: got %v, want %v", errUnexpected, env.Kind, s.expected())))
		}
		var out []byte
		switch env.Kind {
		case wire.KindConnectReply:
			out, err = s.onConnectReply(op, env.Payload)
		case wire.KindKeyProposal:
			out, err = s.onKeyProposal(op, env.Payload)
		case wire.KindKeyAccept:
			err = s.onKeyAccept(op, env.Payload)
		}
		if err != nil {
			return nil, s.fail(err)
		}
		return out, nil
	}
	return nil, themis.NewError(op, themis.ErrProtocolState,
		fmt.Errorf("negotiation envelope while %v", s.state))
}

// expected returns the next envelope kind a negotiating session accepts.
func (s *Session) expected() wire.Kind {
	switch {
	case s.initiator && s.sendKey == nil:
		return wire.KindConnectReply
	case s.initiator:
		return wire.KindKeyAccept
	default:
		return wire.KindKeyProposal
	}
}

func (s *Session) onConnectRequest(op string, payload []byte) ([]byte, error) {
	r := wire.NewReader(payload)
	peerID := r.Bytes(MaxIDLen)
	peerEph := r.Fixed(crypto.X25519Size)
	sig := r.Bytes(maxSigLen)
	if err := r.Done(); err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if err := s.resolvePeer(op, peerID); err != nil {
		return nil, err
	}
	if !s.remoteKey.Verify(crypto.Label(connectLabel, peerID, peerEph), sig) {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, ErrBadSignature)
	}
	copy(s.peerEph[:], peerEph)

	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	s.ephPriv, s.ephPub = priv, pub
	s.transcript = s.transcriptHash()
	if err := s.deriveKeys(op); err != nil {
		return nil, err
	}
	sig, err = s.priv.Sign(crypto.Label(replyLabel, s.transcript))
	if err != nil {
		return nil, err
	}
	return envelope(wire.KindConnectReply, wire.NewWriter(0).
		Bytes(s.id).Fixed(s.ephPub[:]).Bytes(sig).Payload())
}

func (s *Session) onConnectReply(op string, payload []byte) ([]byte, error) {
	r := wire.NewReader(payload)
	peerID := r.Bytes(MaxIDLen)
	peerEph := r.Fixed(crypto.X25519Size)
	sig := r.Bytes(maxSigLen)
	if err := r.Done(); err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if err := s.resolvePeer(op, peerID); err != nil {
		return nil, err
	}
	copy(s.peerEph[:], peerEph)
	s.transcript = s.transcriptHash()
	if !s.remoteKey.Verify(crypto.Label(replyLabel, s.transcript), sig) {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, ErrBadSignature)
	}
	if err := s.deriveKeys(op); err != nil {
		return nil, err
	}
	sig, err := s.priv.Sign(crypto.Label(proposalLabel, s.transcript))
	if err != nil {
		return nil, err
	}
	mac := crypto.MAC(s.macKey, initiatorLabel, s.transcript)
	return envelope(wire.KindKeyProposal, wire.NewWriter(0).
		Bytes(sig).Fixed(mac).Payload())
}

func (s *Session) onKeyProposal(op string, payload []byte) ([]byte, error) {
	r := wire.NewReader(payload)
	sig := r.Bytes(maxSigLen)
	mac := r.Fixed(macSize)
	if err := r.Done(); err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if !s.remoteKey.Verify(crypto.Label(proposalLabel, s.transcript), sig) {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, ErrBadSignature)
	}
	if !crypto.MACEqual(mac, crypto.MAC(s.macKey, initiatorLabel, s.transcript)) {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, ErrBadConfirm)
	}
	out, err := envelope(wire.KindKeyAccept,
		crypto.MAC(s.macKey, responderLabel, s.transcript))
	if err != nil {
		return nil, err
	}
	s.establish()
	return out, nil
}

func (s *Session) onKeyAccept(op string, payload []byte) error {
	if len(payload) != macSize {
		return themis.NewError(op, themis.ErrInvalidArgument, wire.ErrShortPayload)
	}
	if !crypto.MACEqual(payload, crypto.MAC(s.macKey, responderLabel, s.transcript)) {
		return themis.NewError(op, themis.ErrAuthenticationFailure, ErrBadConfirm)
	}
	s.establish()
	return nil
}

const macSize = 32

// resolvePeer looks up the long-term key claimed by peerID.
func (s *Session) resolvePeer(op string, peerID []byte) error {
	if len(peerID) == 0 {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyID)
	}
	key, err := s.lookup.PublicKeyForID(peerID)
	if err != nil {
		return themis.NewError(op, themis.ErrAuthenticationFailure, fmt.Errorf("%w: %v", ErrUnknownPeer, err))
	}
	if key == nil {
		return themis.NewError(op, themis.ErrAuthenticationFailure, ErrUnknownPeer)
	}
	s.remoteID = bytes.Clone(peerID)
	s.remoteKey = key
	return nil
}

// roles returns (initiator id, initiator key, initiator ephemeral) followed
// by the same for the responder.
func (s *Session) roles() (idA []byte, pubA *keys.PublicKey, ephA []byte, idB []byte, pubB *keys.PublicKey, ephB []byte) {
	if s.initiator {
		return s.id, s.priv.Public(), s.ephPub[:], s.remoteID, s.remoteKey, s.peerEph[:]
	}
	return s.remoteID, s.remoteKey, s.peerEph[:], s.id, s.priv.Public(), s.ephPub[:]
}

func (s *Session) transcriptHash() []byte {
	idA, pubA, ephA, idB, pubB, ephB := s.roles()
	return crypto.TranscriptHash(transcriptLabel,
		idA, pubA.Marshal(), ephA,
		idB, pubB.Marshal(), ephB)
}

// deriveKeys expands the ephemeral X25519 secret into the per-direction
// transport keys and the confirmation MAC key.
func (s *Session) deriveKeys(op string) error {
	shared, err := crypto.DH(&s.ephPriv, s.peerEph)
	if err != nil {
		return themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	defer memzero.Zero(shared[:])

	idA, _, _, idB, _, _ := s.roles()
	ab := make([]byte, crypto.KeySize)
	ba := make([]byte, crypto.KeySize)
	s.macKey = make([]byte, crypto.KeySize)
	if err := crypto.HKDF(shared[:], s.transcript, crypto.Label(keysLabel, idA, idB), ab, ba, s.macKey); err != nil {
		memzero.ZeroAll(ab, ba)
		return themis.NewError(op, themis.ErrInternal, err)
	}
	if s.initiator {
		s.sendKey, s.recvKey = ab, ba
	} else {
		s.sendKey, s.recvKey = ba, ab
	}
	return nil
}

func (s *Session) establish() {
	memzero.Zero(s.ephPriv[:])
	s.sendSeq, s.recvSeq = 0, 0
	s.setState(StateEstablished)
	s.log.Debugf("session %x: established with %x", s.id, s.remoteID)
}

func envelope(kind wire.Kind, payload []byte) ([]byte, error) {
	env := &wire.Envelope{Kind: kind, Payload: payload}
	return env.Marshal()
}
