package cell

import (
	"themis"
	"themis/internal/util/memzero"
)

// TokenProtect is a Secure Cell in Token Protect mode.
type TokenProtect struct {
	key []byte
}

// NewTokenProtect returns a Token Protect cell keyed with a copy of
// masterKey.
func NewTokenProtect(masterKey []byte) (*TokenProtect, error) {
	if err := checkKey("cell.NewTokenProtect", masterKey); err != nil {
		return nil, err
	}
	return &TokenProtect{key: cloneKey(masterKey)}, nil
}

// Encrypt returns a ciphertext as long as plaintext and a TokenLen-byte
// authentication token.
func (c *TokenProtect) Encrypt(plaintext, context []byte) (ciphertext, token []byte, err error) {
	const op = "cell.TokenProtect.Encrypt"
	if err := checkMessage(op, plaintext); err != nil {
		return nil, nil, err
	}
	h, err := newHeader(modeToken, len(plaintext))
	if err != nil {
		return nil, nil, themis.NewError(op, themis.ErrInternal, err)
	}
	hdr, ct, tag, err := sealParts(op, c.key, h, plaintext, context)
	if err != nil {
		return nil, nil, err
	}
	token = make([]byte, 0, TokenLen)
	token = append(token, hdr...)
	token = append(token, tag...)
	return ct, token, nil
}

// Decrypt verifies token against ciphertext and returns the plaintext.
func (c *TokenProtect) Decrypt(ciphertext, token, context []byte) ([]byte, error) {
	const op = "cell.TokenProtect.Decrypt"
	if err := checkMessage(op, ciphertext); err != nil {
		return nil, err
	}
	if len(token) != TokenLen {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errCorrupt)
	}
	h, err := parseHeader(token[:headerLen], modeToken, len(ciphertext))
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, err)
	}
	return openParts(op, c.key, h, ciphertext, token[headerLen:TokenLen:TokenLen], context)
}

// Destroy wipes the master key.
func (c *TokenProtect) Destroy() { memzero.Zero(c.key) }

