package identity

import (
	"fmt"
	"unicode"

	"themis/internal/domain"
	"themis/internal/store"
	"themis/keys"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
	// ErrBadID is returned when the requested identity id cannot be used as a
	// peer id by others.
	ErrBadID = store.ErrBadPeerID
)

// Service manages identity key creation and access using a backing store.
//
// The identity is a single long-term key pair of one of the supported
// families (EC, RSA or ML-DSA). It authenticates Secure Sessions and signs or
// decrypts Secure Messages.
type Service struct {
	store domain.KeyStore
}

// New returns an identity service backed by the given store.
func New(s domain.KeyStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new identity named id, saves it encrypted with
// the passphrase, and returns the identity plus the fingerprint of its public
// key. The caller owns the returned private key and should Destroy it.
func (s *Service) GenerateIdentity(
	passphrase string,
	id domain.PeerID,
	alg keys.Algorithm,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}
	if !store.ValidPeerID(id) {
		return domain.Identity{}, "", ErrBadID
	}

	kp, err := keys.Generate(alg)
	if err != nil {
		return domain.Identity{}, "", err
	}
	ident := domain.Identity{ID: id, Keys: kp}
	if err := s.store.SaveIdentity(passphrase, ident); err != nil {
		ident.Destroy()
		return domain.Identity{}, "", err
	}
	return ident, domain.Fingerprint(kp.Public.Fingerprint()), nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the local id and the fingerprint of its public
// key. No passphrase is needed since only public material is read.
func (s *Service) FingerprintIdentity() (domain.PeerID, domain.Fingerprint, error) {
	id, pub, err := s.store.LoadPublic()
	if err != nil {
		return "", "", err
	}
	return id, domain.Fingerprint(pub.Fingerprint()), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
