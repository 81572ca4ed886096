package cell

import (
	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
)

// Seal is a Secure Cell in Seal mode.
type Seal struct {
	key []byte
}

// NewSeal returns a Seal cell keyed with a copy of masterKey.
func NewSeal(masterKey []byte) (*Seal, error) {
	if err := checkKey("cell.NewSeal", masterKey); err != nil {
		return nil, err
	}
	return &Seal{key: cloneKey(masterKey)}, nil
}

// Encrypt protects plaintext, binding the optional context.
func (s *Seal) Encrypt(plaintext, context []byte) ([]byte, error) {
	const op = "cell.Seal.Encrypt"
	if err := checkMessage(op, plaintext); err != nil {
		return nil, err
	}
	h, err := newHeader(modeSeal, len(plaintext))
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	hdr, ct, tag, err := sealParts(op, s.key, h, plaintext, context)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(hdr)+len(ct)+len(tag))
	out = append(out, hdr...)
	out = append(out, ct...)
	return append(out, tag...), nil
}

// Decrypt verifies and opens a blob produced by Encrypt with the same
// context.
func (s *Seal) Decrypt(sealed, context []byte) ([]byte, error) {
	const op = "cell.Seal.Decrypt"
	if len(sealed) <= Overhead {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyMessage)
	}
	ctEnd := len(sealed) - crypto.TagSize
	h, err := parseHeader(sealed[:headerLen], modeSeal, ctEnd-headerLen)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, err)
	}
	return openParts(op, s.key, h, sealed[headerLen:ctEnd], sealed[ctEnd:], context)
}

// Destroy wipes the master key.
func (s *Seal) Destroy() { memzero.Zero(s.key) }
