package crypto

import (
	"crypto/rand"
	"io"
)

// Random returns n bytes from the system CSPRNG.
func Random(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := RandomInto(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandomInto fills b from the system CSPRNG.
func RandomInto(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	return err
}
