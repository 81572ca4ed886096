package comparator

import (
	"crypto/sha512"
	"errors"

	"github.com/gtank/ristretto255"

	"themis/internal/crypto"
	"themis/internal/util/memzero"
)

// elementSize is the encoded size of both group elements and scalars.
const elementSize = 32

var (
	proofLabel  = []byte("themis comparator proof v1")
	secretLabel = []byte("themis comparator secret v1")

	errIdentity = errors.New("identity element")
	errEncoding = errors.New("non-canonical encoding")
	errProof    = errors.New("zero-knowledge proof does not verify")
)

// Proof tags keep every challenge in its own domain.
const (
	tagG2a byte = iota + 1
	tagG3a
	tagG2b
	tagG3b
	tagPQb
	tagPQa
	tagRa
	tagRb
)

func randomScalar() (*ristretto255.Scalar, error) {
	b, err := crypto.Random(64)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(b)
	return ristretto255.NewScalar().FromUniformBytes(b), nil
}

func secretScalar(secret []byte) *ristretto255.Scalar {
	h := sha512.New()
	h.Write(crypto.Label(secretLabel, secret))
	sum := h.Sum(nil)
	defer memzero.Zero(sum)
	return ristretto255.NewScalar().FromUniformBytes(sum)
}

func challenge(tag byte, elems ...*ristretto255.Element) *ristretto255.Scalar {
	h := sha512.New()
	h.Write(proofLabel)
	h.Write([]byte{tag})
	for _, e := range elems {
		h.Write(e.Encode(nil))
	}
	return ristretto255.NewScalar().FromUniformBytes(h.Sum(nil))
}

func base(s *ristretto255.Scalar) *ristretto255.Element {
	return ristretto255.NewElement().ScalarBaseMult(s)
}

func mul(s *ristretto255.Scalar, p *ristretto255.Element) *ristretto255.Element {
	return ristretto255.NewElement().ScalarMult(s, p)
}

func add(p, q *ristretto255.Element) *ristretto255.Element {
	return ristretto255.NewElement().Add(p, q)
}

func sub(p, q *ristretto255.Element) *ristretto255.Element {
	return ristretto255.NewElement().Subtract(p, q)
}

// response returns r - x*c.
func response(r, x, c *ristretto255.Scalar) *ristretto255.Scalar {
	xc := ristretto255.NewScalar().Multiply(x, c)
	return ristretto255.NewScalar().Subtract(r, xc)
}

func equalScalar(a, b *ristretto255.Scalar) bool { return a.Equal(b) == 1 }

// proveLog proves knowledge of x with X = x*G.
func proveLog(tag byte, x *ristretto255.Scalar) (c, d *ristretto255.Scalar, err error) {
	r, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}
	defer r.Zero()
	c = challenge(tag, base(r))
	return c, response(r, x, c), nil
}

func verifyLog(tag byte, X *ristretto255.Element, c, d *ristretto255.Scalar) bool {
	return equalScalar(c, challenge(tag, add(base(d), mul(c, X))))
}

// provePQ proves that P = r*G3 and Q = r*G + y*G2 share r.
func provePQ(tag byte, g2, g3 *ristretto255.Element, r, y *ristretto255.Scalar) (c, d5, d6 *ristretto255.Scalar, err error) {
	r5, err := randomScalar()
	if err != nil {
		return nil, nil, nil, err
	}
	defer r5.Zero()
	r6, err := randomScalar()
	if err != nil {
		return nil, nil, nil, err
	}
	defer r6.Zero()
	c = challenge(tag, mul(r5, g3), add(base(r5), mul(r6, g2)))
	return c, response(r5, r, c), response(r6, y, c), nil
}

func verifyPQ(tag byte, g2, g3, p, q *ristretto255.Element, c, d5, d6 *ristretto255.Scalar) bool {
	t1 := add(mul(d5, g3), mul(c, p))
	t2 := add(add(base(d5), mul(d6, g2)), mul(c, q))
	return equalScalar(c, challenge(tag, t1, t2))
}

// proveEqualLogs proves that K = k*G and R = k*D share k.
func proveEqualLogs(tag byte, k *ristretto255.Scalar, d *ristretto255.Element) (c, resp *ristretto255.Scalar, err error) {
	r, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}
	defer r.Zero()
	c = challenge(tag, base(r), mul(r, d))
	return c, response(r, k, c), nil
}

func verifyEqualLogs(tag byte, k, d, r *ristretto255.Element, c, resp *ristretto255.Scalar) bool {
	t1 := add(base(resp), mul(c, k))
	t2 := add(mul(resp, d), mul(c, r))
	return equalScalar(c, challenge(tag, t1, t2))
}

// encoder packs elements and scalars into a fixed-size round payload.
type encoder struct{ buf []byte }

func newEncoder(n int) *encoder { return &encoder{buf: make([]byte, 0, n*elementSize)} }

func (e *encoder) element(p *ristretto255.Element) *encoder {
	e.buf = p.Encode(e.buf)
	return e
}

func (e *encoder) scalar(s *ristretto255.Scalar) *encoder {
	e.buf = s.Encode(e.buf)
	return e
}

// decoder reads a payload packed by encoder. The first failure is sticky.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) next() []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf) < elementSize {
		d.err = errEncoding
		return nil
	}
	b := d.buf[:elementSize]
	d.buf = d.buf[elementSize:]
	return b
}

// element decodes a canonical, non-identity group element.
func (d *decoder) element() *ristretto255.Element {
	b := d.next()
	if b == nil {
		return nil
	}
	e := ristretto255.NewElement()
	if err := e.Decode(b); err != nil {
		d.err = errEncoding
		return nil
	}
	if e.Equal(ristretto255.NewElement()) == 1 {
		d.err = errIdentity
		return nil
	}
	return e
}

func (d *decoder) scalar() *ristretto255.Scalar {
	b := d.next()
	if b == nil {
		return nil
	}
	s := ristretto255.NewScalar()
	if err := s.Decode(b); err != nil {
		d.err = errEncoding
		return nil
	}
	return s
}
