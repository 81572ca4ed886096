package store

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"themis/internal/domain"
	"themis/keys"
)

const (
	peersDir  = "peers"
	peerExt   = ".pub"
	maxPeerID = 64

	// DefaultCacheSize is the number of peer keys kept in memory.
	DefaultCacheSize = 128
)

var (
	// ErrUnknownPeer is returned for a peer id with no stored key.
	ErrUnknownPeer = errors.New("unknown peer")
	// ErrBadPeerID is returned for ids that cannot name a file.
	ErrBadPeerID = errors.New("peer id must be 1-64 letters, digits, '.', '_' or '-'")

	peerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// ValidPeerID reports whether id can be stored in a Directory.
func ValidPeerID(id domain.PeerID) bool {
	s := string(id)
	return len(s) <= maxPeerID && peerIDPattern.MatchString(s) && !strings.HasPrefix(s, ".")
}

// Directory stores peer public keys under dir/peers with an LRU in front.
type Directory struct {
	dir   string
	cache *lru.Cache
}

// NewDirectory returns a Directory rooted at dir caching up to cacheSize
// keys.
func NewDirectory(dir string, cacheSize int) (*Directory, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "peer cache")
	}
	return &Directory{dir: filepath.Join(dir, peersDir), cache: cache}, nil
}

// AddPeer records pub as the key of id, replacing any previous key.
func (d *Directory) AddPeer(id domain.PeerID, pub *keys.PublicKey) error {
	if !ValidPeerID(id) {
		return ErrBadPeerID
	}
	if pub == nil {
		return errors.New("nil public key")
	}
	if err := os.MkdirAll(d.dir, 0o700); err != nil {
		return errors.Wrap(err, "create peer directory")
	}
	if err := writeFile(d.path(id), pub.Marshal()); err != nil {
		return err
	}
	d.cache.Add(id, pub)
	return nil
}

// Peer returns the stored key of id.
func (d *Directory) Peer(id domain.PeerID) (*keys.PublicKey, error) {
	if !ValidPeerID(id) {
		return nil, ErrBadPeerID
	}
	if v, ok := d.cache.Get(id); ok {
		return v.(*keys.PublicKey), nil
	}
	b, err := readFile(d.path(id))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.Wrapf(ErrUnknownPeer, "%q", id)
	}
	pub, err := keys.ParsePublicKey(b)
	if err != nil {
		return nil, errors.Wrapf(err, "parse key of %q", id)
	}
	d.cache.Add(id, pub)
	return pub, nil
}

// RemovePeer forgets id. Removing an unknown peer is not an error.
func (d *Directory) RemovePeer(id domain.PeerID) error {
	if !ValidPeerID(id) {
		return ErrBadPeerID
	}
	d.cache.Remove(id)
	if err := os.Remove(d.path(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %q", id)
	}
	return nil
}

// Peers lists known peer ids in sorted order.
func (d *Directory) Peers() ([]domain.PeerID, error) {
	entries, err := os.ReadDir(d.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list peers")
	}
	var out []domain.PeerID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, peerExt) {
			continue
		}
		out = append(out, domain.PeerID(strings.TrimSuffix(name, peerExt)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// PublicKeyForID resolves a peer id announced during session negotiation.
func (d *Directory) PublicKeyForID(id []byte) (*keys.PublicKey, error) {
	return d.Peer(domain.PeerID(id))
}

func (d *Directory) path(id domain.PeerID) string {
	return filepath.Join(d.dir, string(id)+peerExt)
}

// Compile-time assertion that Directory implements domain.PeerDirectory.
var _ domain.PeerDirectory = (*Directory)(nil)
