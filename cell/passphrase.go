package cell

import (
	"errors"
	"math/bits"

	"themis"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
)

// Scrypt cost bounds accepted when decrypting. They keep a forged header
// from demanding unbounded memory.
const (
	minLogN = 10
	maxLogN = 20
	maxR    = 16
	maxP    = 4
)

var errKDFParams = errors.New("scrypt parameters out of range")

// PassphraseSeal is a Seal cell keyed by a passphrase instead of a master
// key. Each call stretches the passphrase with scrypt under a fresh salt.
type PassphraseSeal struct {
	passphrase []byte
	params     crypto.ScryptParams
}

// PassphraseOption configures a PassphraseSeal.
type PassphraseOption func(*PassphraseSeal)

// WithScrypt overrides the scrypt costs used by Encrypt. n must be a power
// of two between 2^10 and 2^20.
func WithScrypt(n, r, p int) PassphraseOption {
	return func(s *PassphraseSeal) { s.params = crypto.ScryptParams{N: n, R: r, P: p} }
}

// NewPassphraseSeal returns a passphrase-keyed Seal cell.
func NewPassphraseSeal(passphrase string, opts ...PassphraseOption) (*PassphraseSeal, error) {
	const op = "cell.NewPassphraseSeal"
	if passphrase == "" {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyKey)
	}
	s := &PassphraseSeal{passphrase: []byte(passphrase), params: crypto.DefaultScrypt()}
	for _, opt := range opts {
		opt(s)
	}
	if !scryptInRange(s.params) {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, errKDFParams)
	}
	return s, nil
}

// Encrypt protects plaintext, binding the optional context.
func (s *PassphraseSeal) Encrypt(plaintext, context []byte) ([]byte, error) {
	const op = "cell.PassphraseSeal.Encrypt"
	if err := checkMessage(op, plaintext); err != nil {
		return nil, err
	}
	h, err := newHeader(modePassphrase, len(plaintext))
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	h.logN = byte(bits.TrailingZeros(uint(s.params.N)))
	h.r, h.p = byte(s.params.R), byte(s.params.P)

	master, err := crypto.ScryptKey(s.passphrase, h.salt, s.params)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	defer memzero.Zero(master)

	hdr, ct, tag, err := sealParts(op, master, h, plaintext, context)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(hdr)+len(ct)+len(tag))
	out = append(out, hdr...)
	out = append(out, ct...)
	return append(out, tag...), nil
}

// Decrypt verifies and opens a blob produced by Encrypt.
func (s *PassphraseSeal) Decrypt(sealed, context []byte) ([]byte, error) {
	const op = "cell.PassphraseSeal.Decrypt"
	if len(sealed) <= Overhead {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrEmptyMessage)
	}
	ctEnd := len(sealed) - crypto.TagSize
	h, err := parseHeader(sealed[:headerLen], modePassphrase, ctEnd-headerLen)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, err)
	}
	params := crypto.ScryptParams{N: 1 << h.logN, R: int(h.r), P: int(h.p)}
	if h.logN < minLogN || h.logN > maxLogN || !scryptInRange(params) {
		return nil, themis.NewError(op, themis.ErrAuthenticationFailure, errKDFParams)
	}
	master, err := crypto.ScryptKey(s.passphrase, h.salt, params)
	if err != nil {
		return nil, themis.NewError(op, themis.ErrInternal, err)
	}
	defer memzero.Zero(master)
	return openParts(op, master, h, sealed[headerLen:ctEnd], sealed[ctEnd:], context)
}

// Destroy wipes the passphrase copy.
func (s *PassphraseSeal) Destroy() { memzero.Zero(s.passphrase) }

func scryptInRange(p crypto.ScryptParams) bool {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return false
	}
	logN := bits.TrailingZeros(uint(p.N))
	return logN >= minLogN && logN <= maxLogN && p.R >= 1 && p.R <= maxR && p.P >= 1 && p.P <= maxP
}
