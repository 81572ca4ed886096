package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a short, human-comparable fingerprint of a serialized
// public key.
//
// It hashes with SHA-256, keeps 10 bytes and prints them as five groups of
// four hex characters, e.g. "3f2a 9c01 77be 0d4e 12aa".
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	h := hex.EncodeToString(sum[:10])
	groups := make([]string, 0, len(h)/4)
	for i := 0; i < len(h); i += 4 {
		groups = append(groups, h[i:i+4])
	}
	return strings.Join(groups, " ")
}
