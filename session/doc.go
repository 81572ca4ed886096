// Package session implements Secure Session, a stateful authenticated key
// agreement followed by an ordered encrypted transport between two parties
// identified by long-term keys.
//
// Negotiation takes four envelopes:
//
//	initiator                                   responder
//	ConnectRequest  id_A, e_A, sig_A(id_A, e_A)  -->
//	                <--  ConnectReply  id_B, e_B, sig_B(T)
//	KeyProposal     sig_A(T), mac_A              -->
//	                <--  KeyAccept  mac_B
//
// e_A and e_B are ephemeral X25519 keys and T hashes both identities, both
// long-term public keys and both ephemeral keys. Each side verifies the
// peer's signature before it accepts the peer's ephemeral key. The X25519
// secret is expanded with HKDF-SHA256 into one ChaCha20-Poly1305 key per
// direction and a confirmation MAC key, so an envelope reflected back at its
// sender never authenticates.
//
// Once established, Wrap seals a payload under the next send sequence
// number and Unwrap accepts only the exact next receive sequence number.
// Replays and reordered envelopes fail with themis.ErrReplayOrOrdering and
// are never buffered. A failed Unwrap leaves the session untouched.
//
// Any failure during negotiation moves the session to StateFailed, which is
// terminal. StateFailed is only reached from negotiation: once established,
// a failing Wrap or Unwrap returns an error and leaves the state unchanged.
// Close wipes all key material.
//
// A Session is not safe for concurrent use.
package session
