package cell

import (
	"encoding/binary"
	"errors"

	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
)

const (
	formatVersion = 0x01

	modeSeal       = 0x01
	modeToken      = 0x02
	modePassphrase = 0x03
	modeImprint    = 0x04

	// headerLen is version, mode, scrypt logN/r/p, three reserved bytes,
	// salt, nonce and the plaintext length.
	headerLen = 8 + crypto.SaltSize + crypto.NonceSize + 4

	// TokenLen is the length of a TokenProtect token.
	TokenLen = headerLen + crypto.TagSize

	// Overhead is the number of bytes Seal adds to a plaintext.
	Overhead = headerLen + crypto.TagSize
)

var (
	// ErrEmptyKey is returned by New for an empty master key.
	ErrEmptyKey = errors.New("master key is empty")
	// ErrEmptyMessage is returned when asked to protect an empty message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyContext is returned by imprint mode without a context.
	ErrEmptyContext = errors.New("context imprint requires a non-empty context")

	errCorrupt = errors.New("cell header does not match its contents")
	errTag     = errors.New("cell authentication tag mismatch")
)

var cellLabel = []byte("themis cell v1")

// GenerateKey returns a fresh random master key.
func GenerateKey() ([]byte, error) {
	k, err := crypto.Random(crypto.KeySize)
	if err != nil {
		return nil, themis.NewError("cell.GenerateKey", themis.ErrInternal, err)
	}
	return k, nil
}

type header struct {
	mode    byte
	logN    byte
	r, p    byte
	salt    []byte
	nonce   []byte
	msgLen  uint32
	encoded []byte
}

func newHeader(mode byte, msgLen int) (*header, error) {
	h := &header{mode: mode, msgLen: uint32(msgLen)}
	h.salt = make([]byte, crypto.SaltSize)
	h.nonce = make([]byte, crypto.NonceSize)
	if err := crypto.RandomInto(h.salt); err != nil {
		return nil, err
	}
	if err := crypto.RandomInto(h.nonce); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *header) marshal() []byte {
	b := make([]byte, headerLen)
	b[0] = formatVersion
	b[1] = h.mode
	b[2], b[3], b[4] = h.logN, h.r, h.p
	copy(b[8:], h.salt)
	copy(b[8+crypto.SaltSize:], h.nonce)
	binary.BigEndian.PutUint32(b[headerLen-4:], h.msgLen)
	h.encoded = b
	return b
}

// parseHeader decodes b and checks it describes a message of msgLen bytes in
// mode. A mismatch is an authentication failure: a tampered header cannot be
// told apart from tampered ciphertext.
func parseHeader(b []byte, mode byte, msgLen int) (*header, error) {
	if len(b) != headerLen {
		return nil, errCorrupt
	}
	h := &header{
		mode:    b[1],
		logN:    b[2],
		r:       b[3],
		p:       b[4],
		salt:    b[8 : 8+crypto.SaltSize],
		nonce:   b[8+crypto.SaltSize : 8+crypto.SaltSize+crypto.NonceSize],
		msgLen:  binary.BigEndian.Uint32(b[headerLen-4:]),
		encoded: b,
	}
	if b[0] != formatVersion || h.mode != mode || b[5]|b[6]|b[7] != 0 {
		return nil, errCorrupt
	}
	if mode != modePassphrase && (h.logN|h.r|h.p) != 0 {
		return nil, errCorrupt
	}
	if uint64(h.msgLen) != uint64(msgLen) {
		return nil, errCorrupt
	}
	return h, nil
}

// deriveKey returns the per-call key for a message of msgLen bytes.
func deriveKey(master, salt []byte, mode string, msgLen int, context []byte) ([]byte, error) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(msgLen))
	key := make([]byte, crypto.KeySize)
	info := crypto.Label(cellLabel, []byte(mode), l[:], context)
	if err := crypto.HKDF(master, salt, info, key); err != nil {
		return nil, err
	}
	return key, nil
}

// sealParts encrypts plaintext and returns the header, the ciphertext of the
// same length and the tag.
func sealParts(op string, master []byte, h *header, plaintext, context []byte) (hdr, ct, tag []byte, err error) {
	key, err := deriveKey(master, h.salt, modeName(h.mode), len(plaintext), context)
	if err != nil {
		return nil, nil, nil, themis.NewError(op, themis.ErrInternal, err)
	}
	defer memzero.Zero(key)

	aead, err := crypto.NewAESGCM(key)
	if err != nil {
		return nil, nil, nil, themis.NewError(op, themis.ErrInternal, err)
	}
	hdr = h.marshal()
	out := aead.Seal(nil, h.nonce, plaintext, crypto.Label(hdr, context))
	n := len(plaintext)
	return hdr, out[:n:n], out[n:], nil
}

// openParts authenticates and decrypts. It never returns partial plaintext.
func openParts(op string, master []byte, h *header, ct, tag, context []byte) ([]byte, error) {
	key, err := deriveKey(master, h.salt, modeName(h.mode), len(ct), context)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	defer memzero.Zero(key)

	aead, err := crypto.NewAESGCM(key)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	pt, err := aead.Open(nil, h.nonce, sealed, crypto.Label(h.encoded, context))
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errTag)
	}
	return pt, nil
}

func modeName(mode byte) string {
	switch mode {
	case modeSeal:
		return "seal"
	case modeToken:
		return "token"
	case modePassphrase:
		return "passphrase"
	case modeImprint:
		return "imprint"
	}
	return ""
}

func checkKey(op string, key []byte) error {
	if len(key) == 0 {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyKey)
	}
	return nil
}

func checkMessage(op string, msg []byte) error {
	if len(msg) == 0 {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyMessage)
	}
	return nil
}

func cloneKey(key []byte) []byte { return append([]byte(nil), key...) }
