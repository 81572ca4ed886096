package message

import (
	"errors"
	"fmt"

	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
	"themis/internal/wire"
	"themis/keys"
)

var (
	// ErrEmptyMessage is returned when asked to protect an empty message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrKeyMismatch is returned when the two keys of an encrypter differ in family.
	ErrKeyMismatch = errors.New("sender and recipient keys belong to different families")
	// ErrUnsupportedKey is returned for key families without encryption, such as ML-DSA.
	ErrUnsupportedKey = errors.New("key family cannot encrypt messages")

	errAlgorithm       = errors.New("envelope algorithm does not match key")
	errAuthentication  = errors.New("message authentication failed")
	messageLabel       = []byte("themis message v1")
	dataKeyLabel       = []byte("themis message data key")
	signedMessageLabel = []byte("themis signed message v1")
)

// SecureMessage encrypts messages from the holder of a private key to one
// peer, and decrypts messages from that peer.
type SecureMessage struct {
	priv *keys.PrivateKey
	peer *keys.PublicKey
}

// New returns a SecureMessage between priv (ours) and peer. Both keys must be
// EC or both RSA.
func New(priv *keys.PrivateKey, peer *keys.PublicKey) (*SecureMessage, error) {
	const op = "message.New"
	if priv == nil || peer == nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errors.New("nil key"))
	}
	if priv.Algorithm() != peer.Algorithm() {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrKeyMismatch)
	}
	if a := priv.Algorithm(); a != keys.EC && a != keys.RSA {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrUnsupportedKey)
	}
	return &SecureMessage{priv: priv, peer: peer}, nil
}

// Wrap encrypts and authenticates msg for the peer.
func (m *SecureMessage) Wrap(msg []byte) ([]byte, error) {
	const op = "message.Wrap"
	if len(msg) == 0 {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyMessage)
	}
	var (
		env *wire.Envelope
		err error
	)
	if m.priv.Algorithm() == keys.EC {
		env, err = m.wrapEC(op, msg)
	} else {
		env, err = m.wrapRSA(op, msg)
	}
	if err != nil {
		return nil, err
	}
	out, err := env.Marshal()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Unwrap verifies and decrypts an envelope produced by the peer's Wrap.
func (m *SecureMessage) Unwrap(data []byte) ([]byte, error) {
	const op = "message.Unwrap"
	env, err := wire.Expect(data, wire.KindMessageEncrypted)
	if err != nil {
		return nil, err
	}
	if env.Tag == nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errors.New("encrypted message without tag"))
	}
	if m.priv.Algorithm() == keys.EC {
		return m.unwrapEC(op, env)
	}
	return m.unwrapRSA(op, env)
}

// EC layout: alg | salt | nonce | ciphertext, tag in the envelope.
func (m *SecureMessage) wrapEC(op string, msg []byte) (*wire.Envelope, error) {
	salt, err := crypto.Random(crypto.SaltSize)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	nonce, err := crypto.Random(crypto.NonceSize)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	key, err := m.ecKey(salt, m.priv.Public(), m.peer)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := crypto.NewAESGCM(key)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	prefix := wire.NewWriter(1+len(salt)+len(nonce)).Byte(byte(keys.EC)).Fixed(salt).Fixed(nonce).Payload()
	sealed := aead.Seal(nil, nonce, msg, prefix)
	ctEnd := len(sealed) - crypto.TagSize
	payload := append(prefix, sealed[:ctEnd]...)
	return &wire.Envelope{Kind: wire.KindMessageEncrypted, Payload: payload, Tag: sealed[ctEnd:]}, nil
}

func (m *SecureMessage) unwrapEC(op string, env *wire.Envelope) ([]byte, error) {
	r := wire.NewReader(env.Payload)
	alg := r.Byte()
	salt := r.Fixed(crypto.SaltSize)
	nonce := r.Fixed(crypto.NonceSize)
	ct := r.Rest()
	if err := r.Done(); err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if keys.Algorithm(alg) != keys.EC {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errAlgorithm)
	}
	key, err := m.ecKey(salt, m.peer, m.priv.Public())
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := crypto.NewAESGCM(key)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	prefixLen := 1 + crypto.SaltSize + crypto.NonceSize
	sealed := make([]byte, 0, len(ct)+len(env.Tag))
	sealed = append(append(sealed, ct...), env.Tag...)
	pt, err := aead.Open(nil, nonce, sealed, env.Payload[:prefixLen])
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errAuthentication)
	}
	return pt, nil
}

// ecKey derives the message key for the sender → recipient direction.
func (m *SecureMessage) ecKey(salt []byte, sender, recipient *keys.PublicKey) ([]byte, error) {
	shared, err := m.priv.SharedSecret(m.peer)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(shared)
	key := make([]byte, crypto.KeySize)
	info := crypto.Label(messageLabel, sender.Marshal(), recipient.Marshal())
	if err := crypto.HKDF(shared, salt, info, key); err != nil {
		return nil, themis.NewError("message.deriveKey", themis.ErrInternal, err)
	}
	return key, nil
}

// RSA layout: alg | wrapped key | nonce | ciphertext | signature, tag in the
// envelope. The signature covers every other field and is checked first.
func (m *SecureMessage) wrapRSA(op string, msg []byte) (*wire.Envelope, error) {
	dataKey, err := crypto.Random(crypto.KeySize)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	defer memzero.Zero(dataKey)
	nonce, err := crypto.Random(crypto.NonceSize)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	wrapped, err := m.peer.EncryptKey(dataKey, dataKeyLabel)
	if err != nil {
		return nil, err
	}
	aead, err := crypto.NewAESGCM(dataKey)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	sender, recipient := m.priv.Public(), m.peer
	ad := crypto.Label([]byte{byte(keys.RSA)}, wrapped, nonce, sender.Marshal(), recipient.Marshal())
	sealed := aead.Seal(nil, nonce, msg, ad)
	ctEnd := len(sealed) - crypto.TagSize
	ct, tag := sealed[:ctEnd], sealed[ctEnd:]

	sig, err := m.priv.Sign(rsaSignedPart(wrapped, nonce, ct, tag, sender, recipient))
	if err != nil {
		return nil, err
	}
	payload := wire.NewWriter(len(wrapped)+len(ct)+len(sig)+32).
		Byte(byte(keys.RSA)).
		Bytes(wrapped).
		Fixed(nonce).
		Bytes(ct).
		Bytes(sig).
		Payload()
	return &wire.Envelope{Kind: wire.KindMessageEncrypted, Payload: payload, Tag: tag}, nil
}

func (m *SecureMessage) unwrapRSA(op string, env *wire.Envelope) ([]byte, error) {
	r := wire.NewReader(env.Payload)
	alg := r.Byte()
	wrapped := r.Bytes(wire.MaxPayloadLen)
	nonce := r.Fixed(crypto.NonceSize)
	ct := r.Bytes(wire.MaxPayloadLen)
	sig := r.Bytes(wire.MaxPayloadLen)
	if err := r.Done(); err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if keys.Algorithm(alg) != keys.RSA {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errAlgorithm)
	}
	sender, recipient := m.peer, m.priv.Public()
	if !sender.Verify(rsaSignedPart(wrapped, nonce, ct, env.Tag, sender, recipient), sig) {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errAuthentication)
	}
	dataKey, err := m.priv.DecryptKey(wrapped, dataKeyLabel)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, err)
	}
	defer memzero.Zero(dataKey)

	aead, err := crypto.NewAESGCM(dataKey)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, err)
	}
	ad := crypto.Label([]byte{byte(keys.RSA)}, wrapped, nonce, sender.Marshal(), recipient.Marshal())
	sealed := make([]byte, 0, len(ct)+len(env.Tag))
	sealed = append(append(sealed, ct...), env.Tag...)
	pt, err := aead.Open(nil, nonce, sealed, ad)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errAuthentication)
	}
	return pt, nil
}

func rsaSignedPart(wrapped, nonce, ct, tag []byte, sender, recipient *keys.PublicKey) []byte {
	return crypto.Label(messageLabel, []byte{byte(wire.KindMessageEncrypted)}, wrapped, nonce, ct, tag,
		sender.Marshal(), recipient.Marshal())
}

// Signer produces signed-only envelopes.
type Signer struct {
	priv *keys.PrivateKey
}

// NewSigner returns a Signer for priv.
func NewSigner(priv *keys.PrivateKey) (*Signer, error) {
	if priv == nil {
		return nil, themis.NewError("message.NewSigner", themis.ErrInvalidArgument, errors.New("nil key"))
	}
	return &Signer{priv: priv}, nil
}

// Sign returns an envelope carrying msg in the clear and a signature over it.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	const op = "message.Sign"
	if len(msg) == 0 {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyMessage)
	}
	alg := byte(s.priv.Algorithm())
	sig, err := s.priv.Sign(signedPart(alg, msg))
	if err != nil {
		return nil, err
	}
	payload := wire.NewWriter(len(msg)+len(sig)+9).Byte(alg).Bytes(msg).Bytes(sig).Payload()
	return (&wire.Envelope{Kind: wire.KindMessageSigned, Payload: payload}).Marshal()
}

// Verifier checks signed-only envelopes.
type Verifier struct {
	pub *keys.PublicKey
}

// NewVerifier returns a Verifier for the sender's public key.
func NewVerifier(pub *keys.PublicKey) (*Verifier, error) {
	if pub == nil {
		return nil, themis.NewError("message.NewVerifier", themis.ErrInvalidArgument, errors.New("nil key"))
	}
	return &Verifier{pub: pub}, nil
}

// Verify checks the signature and returns the signed message.
func (v *Verifier) Verify(data []byte) ([]byte, error) {
	const op = "message.Verify"
	env, err := wire.Expect(data, wire.KindMessageSigned)
	if err != nil {
		return nil, err
	}
	r := wire.NewReader(env.Payload)
	alg := r.Byte()
	msg := r.Bytes(wire.MaxPayloadLen)
	sig := r.Bytes(wire.MaxPayloadLen)
	if err := r.Done(); err != nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, err)
	}
	if keys.Algorithm(alg) != v.pub.Algorithm() {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure,
			fmt.Errorf("%w: signed with %v, verifying with %v", errAlgorithm, keys.Algorithm(alg), v.pub.Algorithm()))
	}
	if !v.pub.Verify(signedPart(alg, msg), sig) {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errAuthentication)
	}
	return append([]byte(nil), msg...), nil
}

func signedPart(alg byte, msg []byte) []byte {
	return crypto.Label(signedMessageLabel, []byte{alg}, msg)
}
