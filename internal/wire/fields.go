package wire

import (
	"errors"
	"fmt"
)

// ErrShortPayload is returned by Reader when a field runs past the payload.
var ErrShortPayload = errors.New("payload field runs past end of payload")

// Writer appends payload fields.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity hint n.
func NewWriter(n int) *Writer { return &Writer{buf: make([]byte, 0, n)} }

// Bytes appends a length-prefixed field.
func (w *Writer) Bytes(b []byte) *Writer {
	var l [4]byte
	Encoding.PutUint32(l[:], uint32(len(b)))
	w.buf = append(w.buf, l[:]...)
	w.buf = append(w.buf, b...)
	return w
}

// Fixed appends b with no prefix; the reader must know its size.
func (w *Writer) Fixed(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// Uint64 appends a big-endian uint64.
func (w *Writer) Uint64(v uint64) *Writer {
	var b [8]byte
	Encoding.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

// Byte appends a single byte.
func (w *Writer) Byte(v byte) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// Payload returns the encoded fields.
func (w *Writer) Payload() []byte { return w.buf }

// Reader consumes payload fields written by Writer. The first failure is
// sticky and reported by Err.
type Reader struct {
	buf []byte
	err error
}

// NewReader returns a Reader over p.
func NewReader(p []byte) *Reader { return &Reader{buf: p} }

// Bytes consumes a length-prefixed field of at most max bytes.
func (r *Reader) Bytes(max int) []byte {
	l := r.Fixed(4)
	if r.err != nil {
		return nil
	}
	n := Encoding.Uint32(l)
	if uint64(n) > uint64(max) {
		r.err = fmt.Errorf("payload field of %d bytes exceeds limit %d", n, max)
		return nil
	}
	return r.Fixed(int(n))
}

// Fixed consumes exactly n bytes.
func (r *Reader) Fixed(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf) < n {
		r.err = ErrShortPayload
		return nil
	}
	out := r.buf[:n:n]
	r.buf = r.buf[n:]
	return out
}

// Uint64 consumes a big-endian uint64.
func (r *Reader) Uint64() uint64 {
	b := r.Fixed(8)
	if r.err != nil {
		return 0
	}
	return Encoding.Uint64(b)
}

// Byte consumes a single byte.
func (r *Reader) Byte() byte {
	b := r.Fixed(1)
	if r.err != nil {
		return 0
	}
	return b[0]
}

// Rest consumes everything left.
func (r *Reader) Rest() []byte {
	if r.err != nil {
		return nil
	}
	out := r.buf
	r.buf = nil
	return out
}

// Done reports the first decoding error, or an error if bytes remain.
func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if len(r.buf) != 0 {
		return fmt.Errorf("%d trailing payload bytes", len(r.buf))
	}
	return nil
}
