package session

import (
	"fmt"

	"themis"
	"themis/internal/crypto"
	"themis/internal/wire"
)

const seqLen = 8

// Wrap encrypts payload under the next send sequence number.
func (s *Session) Wrap(payload []byte) ([]byte, error) {
	const op = "session.Wrap"
	if err := s.checkState(op, StateEstablished); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errEmptyPayload)
	}
	if len(payload) > wire.MaxPayloadLen-seqLen {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, wire.ErrTooLarge)
	}
	if s.sendSeq > maxSeq {
		return nil, themis.NewError(op, themis.ErrProtocolState, ErrSeqExhausted)
	}
	aead, err := crypto.NewChaCha20Poly1305(s.sendKey)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}

	seq := s.sendSeq
	env := &wire.Envelope{Kind: wire.KindSessionData}
	env.Payload = make([]byte, seqLen, seqLen+len(payload)+crypto.TagSize)
	wire.Encoding.PutUint64(env.Payload, seq)
	// Header depends only on the final payload length, so fix it up front.
	env.Payload = env.Payload[:seqLen+len(payload)]
	ad := dataAD(env.Header(true), seq)

	sealed := aead.Seal(env.Payload[:seqLen], crypto.CounterNonce(seq), payload, ad)
	env.Payload = sealed[:seqLen+len(payload)]
	env.Tag = sealed[seqLen+len(payload):]

	out, err := env.Marshal()
	if err != nil {
		return nil, err
	}
	s.sendSeq++
	return out, nil
}

// Unwrap authenticates and decrypts an envelope from the peer. The embedded
// sequence number must equal the next expected one exactly. On any failure
// the session is left unchanged.
func (s *Session) Unwrap(data []byte) ([]byte, error) {
	const op = "session.Unwrap"
	if err := s.checkState(op, StateEstablished); err != nil {
		return nil, err
	}
	env, err := wire.Parse(data)
	if err != nil {
		return nil, err
	}
	if env.Kind != wire.KindSessionData {
		return nil, themis.NewError(op, themis.ErrProtocolState,
			fmt.Errorf("%w: %v while established", errUnexpected, env.Kind))
	}
	if env.Tag == nil || len(env.Payload) < seqLen {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errShortEnvelope)
	}
	if s.recvSeq > maxSeq {
		return nil, themis.NewError(op, themis.ErrProtocolState, ErrSeqExhausted)
	}
	aead, err := crypto.NewChaCha20Poly1305(s.recvKey)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}

	seq := wire.Encoding.Uint64(env.Payload)
	ct := make([]byte, 0, len(env.Payload)-seqLen+len(env.Tag))
	ct = append(ct, env.Payload[seqLen:]...)
	ct = append(ct, env.Tag...)
	plain, err := aead.Open(nil, crypto.CounterNonce(seq), ct, dataAD(env.Header(true), seq))
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, err)
	}
	if seq != s.recvSeq {
		return nil, themis.NewError(op, themis.ErrReplayOrOrdering,
			fmt.Errorf("sequence %d, expected %d", seq, s.recvSeq))
	}
	s.recvSeq++
	return plain, nil
}

// Sequence returns the next send and receive sequence numbers.
func (s *Session) Sequence() (send, recv uint64) { return s.sendSeq, s.recvSeq }

func dataAD(header []byte, seq uint64) []byte {
	ad := make([]byte, len(header)+seqLen)
	copy(ad, header)
	wire.Encoding.PutUint64(ad[len(header):], seq)
	return ad
}
