package keys

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

const containerHeaderLen = 12

var (
	tagECPrivate    = []byte("ECS1")
	tagECPublic     = []byte("ECP1")
	tagRSAPrivate   = []byte("RSS1")
	tagRSAPublic    = []byte("RSP1")
	tagMLDSAPrivate = []byte("MDS1")
	tagMLDSAPublic  = []byte("MDP1")

	crc32cTable = crc32.MakeTable(crc32.Castagnoli)
)

var (
	errContainerShort  = errors.New("key container shorter than its header")
	errContainerLength = errors.New("key container length mismatch")
	errContainerCRC    = errors.New("key container checksum mismatch")
	errContainerTag    = errors.New("unknown key container tag")
)

func seal(tag, body []byte) []byte {
	out := make([]byte, containerHeaderLen+len(body))
	copy(out, tag)
	binary.BigEndian.PutUint32(out[4:8], uint32(len(out)))
	copy(out[containerHeaderLen:], body)
	binary.BigEndian.PutUint32(out[8:12], crc32.Checksum(out, crc32cTable))
	return out
}

// open validates a container and returns its tag and body. The body aliases b.
func open(b []byte) (tag, body []byte, err error) {
	if len(b) < containerHeaderLen {
		return nil, nil, errContainerShort
	}
	if binary.BigEndian.Uint32(b[4:8]) != uint32(len(b)) {
		return nil, nil, errContainerLength
	}
	want := binary.BigEndian.Uint32(b[8:12])
	h := crc32.New(crc32cTable)
	h.Write(b[:8])
	h.Write([]byte{0, 0, 0, 0})
	h.Write(b[containerHeaderLen:])
	if h.Sum32() != want {
		return nil, nil, errContainerCRC
	}
	return b[:4], b[containerHeaderLen:], nil
}

func algorithmForTag(tag []byte) (alg Algorithm, private bool, err error) {
	switch {
	case bytes.Equal(tag, tagECPrivate):
		return EC, true, nil
	case bytes.Equal(tag, tagECPublic):
		return EC, false, nil
	case bytes.Equal(tag, tagRSAPrivate):
		return RSA, true, nil
	case bytes.Equal(tag, tagRSAPublic):
		return RSA, false, nil
	case bytes.Equal(tag, tagMLDSAPrivate):
		return MLDSA, true, nil
	case bytes.Equal(tag, tagMLDSAPublic):
		return MLDSA, false, nil
	}
	return 0, false, errContainerTag
}
