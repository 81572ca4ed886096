package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF fills each of outs with HKDF-SHA256 output derived from secret, salt
// and info, in order.
func HKDF(secret, salt, info []byte, outs ...[]byte) error {
	r := hkdf.New(sha256.New, secret, salt, info)
	for _, out := range outs {
		if _, err := io.ReadFull(r, out); err != nil {
			return err
		}
	}
	return nil
}

// Label concatenates parts, each prefixed with its length as a big-endian
// uint32, so that distinct part lists never encode to the same bytes.
func Label(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += 4 + len(p)
	}
	out := make([]byte, 0, n)
	var l [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(l[:], uint32(len(p)))
		out = append(out, l[:]...)
		out = append(out, p...)
	}
	return out
}

// TranscriptHash is SHA-256 over Label(parts...).
func TranscriptHash(parts ...[]byte) []byte {
	sum := sha256.Sum256(Label(parts...))
	return sum[:]
}

// MAC is HMAC-SHA256 keyed with key over Label(parts...).
func MAC(key []byte, parts ...[]byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(Label(parts...))
	return m.Sum(nil)
}

// MACEqual compares two MACs in constant time.
func MACEqual(a, b []byte) bool { return hmac.Equal(a, b) }
