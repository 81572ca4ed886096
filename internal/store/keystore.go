package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/tink/go/kwp/subtle"
	"github.com/pkg/errors"

	"themis/cell"
	"themis/internal/crypto"
	"themis/internal/domain"
	"themis/internal/util/memzero"
	"themis/keys"
)

const (
	identityFile = "identity.json"
	publicFile   = "identity.pub"

	// keystoreFormatVersion is the current on-disk identity format.
	keystoreFormatVersion = 1
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// sealed identity has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted identity")
	// ErrNoIdentity is returned when no identity has been saved yet.
	ErrNoIdentity = errors.New("no identity found; run keygen first")
)

// sealedIdentity is the on-disk JSON structure holding the sealed private
// key and the parameters needed to open it.
type sealedIdentity struct {
	V          int    `json:"v"`
	ID         string `json:"id"`
	Algorithm  string `json:"alg"`
	Salt       []byte `json:"salt"`
	Time       uint32 `json:"argon2_t"`
	Memory     uint32 `json:"argon2_m"`
	Threads    uint8  `json:"argon2_p"`
	WrappedKey []byte `json:"wrapped_key"`
	Cell       []byte `json:"cell"`
}

// KeyStore persists the local identity under dir.
type KeyStore struct {
	dir    string
	params crypto.Argon2Params
	mu     sync.Mutex
}

// KeyStoreOption configures a KeyStore.
type KeyStoreOption func(*KeyStore)

// WithArgon2 overrides the argon2id cost used for new identities. Stored
// identities always open with the cost recorded alongside them.
func WithArgon2(time, memoryKiB uint32, threads uint8) KeyStoreOption {
	return func(s *KeyStore) {
		s.params = crypto.Argon2Params{Time: time, Memory: memoryKiB, Threads: threads}
	}
}

// NewKeyStore returns a KeyStore rooted at dir.
func NewKeyStore(dir string, opts ...KeyStoreOption) *KeyStore {
	s := &KeyStore{dir: dir, params: crypto.DefaultArgon2()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveIdentity seals id under passphrase and writes it with its public key.
func (s *KeyStore) SaveIdentity(passphrase string, id domain.Identity) error {
	if id.ID == "" || id.Keys == nil {
		return errors.New("identity needs an id and a key pair")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := id.Keys.Private.Marshal()
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	salt, err := crypto.Random(crypto.SaltSize)
	if err != nil {
		return err
	}
	dataKey, err := cell.GenerateKey()
	if err != nil {
		return err
	}
	defer memzero.Zero(dataKey)

	wrapped, err := wrapDataKey(passphrase, salt, s.params, dataKey)
	if err != nil {
		return err
	}
	sealer, err := cell.NewSeal(dataKey)
	if err != nil {
		return err
	}
	defer sealer.Destroy()
	ct, err := sealer.Encrypt(raw, []byte(id.ID))
	if err != nil {
		return err
	}

	blob := sealedIdentity{
		V:          keystoreFormatVersion,
		ID:         string(id.ID),
		Algorithm:  id.Keys.Private.Algorithm().String(),
		Salt:       salt,
		Time:       s.params.Time,
		Memory:     s.params.Memory,
		Threads:    s.params.Threads,
		WrappedKey: wrapped,
		Cell:       ct,
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Wrap(err, "create key directory")
	}
	if err := writeJSON(filepath.Join(s.dir, identityFile), blob); err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, publicFile), id.Keys.Public.Marshal())
}

// LoadIdentity reads and opens the identity. The caller owns the returned
// key pair and should Destroy it when done.
func (s *KeyStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob sealedIdentity
	ok, err := readJSON(filepath.Join(s.dir, identityFile), &blob)
	if err != nil {
		return domain.Identity{}, err
	}
	if !ok {
		return domain.Identity{}, ErrNoIdentity
	}
	if blob.V > keystoreFormatVersion {
		return domain.Identity{}, errors.Errorf("unsupported keystore version %d", blob.V)
	}

	params := crypto.Argon2Params{Time: blob.Time, Memory: blob.Memory, Threads: blob.Threads}
	dataKey, err := unwrapDataKey(passphrase, blob.Salt, params, blob.WrappedKey)
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(dataKey)

	opener, err := cell.NewSeal(dataKey)
	if err != nil {
		return domain.Identity{}, err
	}
	defer opener.Destroy()
	raw, err := opener.Decrypt(blob.Cell, []byte(blob.ID))
	if err != nil {
		return domain.Identity{}, ErrWrongPassphrase
	}
	defer memzero.Zero(raw)

	priv, err := keys.ParsePrivateKey(raw)
	if err != nil {
		return domain.Identity{}, errors.Wrap(err, "parse stored private key")
	}
	return domain.Identity{
		ID:   domain.PeerID(blob.ID),
		Keys: &keys.KeyPair{Private: priv, Public: priv.Public()},
	}, nil
}

// LoadPublic returns the identity id and public key without the passphrase.
func (s *KeyStore) LoadPublic() (domain.PeerID, *keys.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob sealedIdentity
	ok, err := readJSON(filepath.Join(s.dir, identityFile), &blob)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrNoIdentity
	}
	b, err := readFile(filepath.Join(s.dir, publicFile))
	if err != nil {
		return "", nil, err
	}
	if b == nil {
		return "", nil, ErrNoIdentity
	}
	pub, err := keys.ParsePublicKey(b)
	if err != nil {
		return "", nil, errors.Wrap(err, "parse stored public key")
	}
	return domain.PeerID(blob.ID), pub, nil
}

// wrapDataKey wraps dataKey under the argon2id key derived from passphrase.
func wrapDataKey(passphrase string, salt []byte, p crypto.Argon2Params, dataKey []byte) ([]byte, error) {
	kek := crypto.DeriveKEK([]byte(passphrase), salt, p)
	defer memzero.Zero(kek)
	kwp, err := subtle.NewKWP(kek)
	if err != nil {
		return nil, errors.Wrap(err, "key wrap")
	}
	return kwp.Wrap(dataKey)
}

func unwrapDataKey(passphrase string, salt []byte, p crypto.Argon2Params, wrapped []byte) ([]byte, error) {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 || len(salt) != crypto.SaltSize {
		return nil, errors.New("stored key derivation parameters are invalid")
	}
	kek := crypto.DeriveKEK([]byte(passphrase), salt, p)
	defer memzero.Zero(kek)
	kwp, err := subtle.NewKWP(kek)
	if err != nil {
		return nil, errors.Wrap(err, "key wrap")
	}
	dataKey, err := kwp.Unwrap(wrapped)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return dataKey, nil
}

// Compile-time assertion that KeyStore implements domain.KeyStore.
var _ domain.KeyStore = (*KeyStore)(nil)
