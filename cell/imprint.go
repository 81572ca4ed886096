package cell

import (
	"encoding/binary"

	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
)

// ContextImprint is a Secure Cell in Context Imprint mode. It preserves
// length exactly and provides no integrity.
type ContextImprint struct {
	key []byte
}

// NewContextImprint returns a Context Imprint cell keyed with a copy of
// masterKey.
func NewContextImprint(masterKey []byte) (*ContextImprint, error) {
	if err := checkKey("cell.NewContextImprint", masterKey); err != nil {
		return nil, err
	}
	return &ContextImprint{key: cloneKey(masterKey)}, nil
}

// Encrypt transforms plaintext under context. Equal inputs give equal
// outputs; different contexts give unrelated outputs.
func (c *ContextImprint) Encrypt(plaintext, context []byte) ([]byte, error) {
	return c.transform("cell.ContextImprint.Encrypt", plaintext, context)
}

// Decrypt inverts Encrypt. A wrong key or context yields garbage, not an
// error.
func (c *ContextImprint) Decrypt(ciphertext, context []byte) ([]byte, error) {
	return c.transform("cell.ContextImprint.Decrypt", ciphertext, context)
}

func (c *ContextImprint) transform(op string, in, context []byte) ([]byte, error) {
	if err := checkMessage(op, in); err != nil {
		return nil, err
	}
	if len(context) == 0 {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyContext)
	}
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(in)))
	key := make([]byte, crypto.KeySize)
	iv := make([]byte, crypto.IVSize)
	defer memzero.ZeroAll(key, iv)

	info := crypto.Label(cellLabel, []byte(modeName(modeImprint)), l[:], context)
	if err := crypto.HKDF(c.key, nil, info, key, iv); err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	out, err := crypto.XORKeyStream(key, iv, in)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	return out, nil
}

// Destroy wipes the master key.
func (c *ContextImprint) Destroy() { memzero.Zero(c.key) }
