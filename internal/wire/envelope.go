package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"themis"
)

// Kind identifies the protocol message carried by an envelope.
type Kind byte

const (
	KindConnectRequest Kind = 0x01
	KindConnectReply   Kind = 0x02
	KindKeyProposal    Kind = 0x03
	KindKeyAccept      Kind = 0x04
	KindSessionData    Kind = 0x05

	KindCompareRound1 Kind = 0x11
	KindCompareRound2 Kind = 0x12
	KindCompareRound3 Kind = 0x13
	KindCompareRound4 Kind = 0x14

	KindMessageEncrypted Kind = 0x21
	KindMessageSigned    Kind = 0x22
)

var kindNames = map[Kind]string{
	KindConnectRequest:   "connect-request",
	KindConnectReply:     "connect-reply",
	KindKeyProposal:      "key-proposal",
	KindKeyAccept:        "key-accept",
	KindSessionData:      "session-data",
	KindCompareRound1:    "compare-round-1",
	KindCompareRound2:    "compare-round-2",
	KindCompareRound3:    "compare-round-3",
	KindCompareRound4:    "compare-round-4",
	KindMessageEncrypted: "message-encrypted",
	KindMessageSigned:    "message-signed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(0x%02x)", byte(k))
}

const (
	// Version is the only envelope version understood.
	Version = 0x01

	// HeaderLen is the fixed header length.
	HeaderLen = 12

	// TagLen is the length of the trailing authentication tag.
	TagLen = 16

	// MaxPayloadLen bounds the declared payload length.
	MaxPayloadLen = 16 << 20

	// FlagTagged marks an envelope that ends with a TagLen-byte tag.
	FlagTagged = 0x01
)

var (
	// Encoding is the byte order of every integer on the wire.
	Encoding = binary.BigEndian

	// magicNumber was picked at random among invalid UTF-8 sequences.
	magicNumber = []byte{0x9E, 0x5B, 0xC1, 0xF7}
)

var (
	ErrTruncated  = errors.New("envelope shorter than its header")
	ErrBadMagic   = errors.New("envelope magic number mismatch")
	ErrBadVersion = errors.New("unsupported envelope version")
	ErrBadFlags   = errors.New("unknown envelope flags")
	ErrBadLength  = errors.New("declared envelope length does not match received bytes")
	ErrTooLarge   = errors.New("envelope payload exceeds maximum length")
)

// Envelope is a decoded protocol message. Slices returned by Parse alias the
// input buffer.
type Envelope struct {
	Kind    Kind
	Payload []byte
	Tag     []byte
}

// Header returns the encoded header of e. It depends only on the kind, the
// payload length and whether a tag is present, so it can be computed before
// the tag exists and authenticated as associated data.
func (e *Envelope) Header(tagged bool) []byte {
	h := make([]byte, HeaderLen)
	copy(h, magicNumber)
	h[4] = Version
	h[5] = byte(e.Kind)
	if tagged {
		h[6] = FlagTagged
	}
	Encoding.PutUint32(h[8:], uint32(len(e.Payload)))
	return h
}

// Marshal encodes e.
func (e *Envelope) Marshal() ([]byte, error) {
	if len(e.Payload) > MaxPayloadLen {
		return nil, themis.NewError("wire.Marshal", themis.ErrInvalidArgument, ErrTooLarge)
	}
	tagged := e.Tag != nil
	if tagged && len(e.Tag) != TagLen {
		return nil, themis.NewError("wire.Marshal", themis.ErrInvalidArgument,
			fmt.Errorf("tag must be %d bytes, got %d", TagLen, len(e.Tag)))
	}
	buf := make([]byte, 0, HeaderLen+len(e.Payload)+len(e.Tag))
	buf = append(buf, e.Header(tagged)...)
	buf = append(buf, e.Payload...)
	buf = append(buf, e.Tag...)
	return buf, nil
}

// Parse decodes an envelope, validating the header and the declared length
// before slicing the payload.
func Parse(data []byte) (*Envelope, error) {
	const op = "wire.Parse"
	if len(data) < HeaderLen {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrTruncated)
	}
	if !bytes.Equal(data[:4], magicNumber) {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrBadMagic)
	}
	if data[4] != Version {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrBadVersion)
	}
	flags := data[6]
	if flags&^FlagTagged != 0 || data[7] != 0 {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrBadFlags)
	}
	declared := Encoding.Uint32(data[8:HeaderLen])
	if declared > MaxPayloadLen {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrTooLarge)
	}
	want := uint64(HeaderLen) + uint64(declared)
	if flags&FlagTagged != 0 {
		want += TagLen
	}
	if uint64(len(data)) != want {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrBadLength)
	}

	end := HeaderLen + int(declared)
	env := &Envelope{
		Kind:    Kind(data[5]),
		Payload: data[HeaderLen:end:end],
	}
	if flags&FlagTagged != 0 {
		env.Tag = data[end:]
	}
	return env, nil
}

// Expect parses data and requires the envelope kind to be one of kinds.
func Expect(data []byte, kinds ...Kind) (*Envelope, error) {
	env, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if env.Kind == k {
			return env, nil
		}
	}
	return nil, themis.NewError("wire.Expect", themis.ErrInvalidArgument,
		fmt.Errorf("unexpected envelope kind %v", env.Kind))
}
