package comparator

import (
	"github.com/gtank/ristretto255"

	"themis/internal/wire"
)

// round1 publishes the initiator's generator shares G2a and G3a.
func (c *Comparator) round1() ([]byte, error) {
	var err error
	if c.a2, err = randomScalar(); err != nil {
		return nil, err
	}
	if c.a3, err = randomScalar(); err != nil {
		return nil, err
	}
	c2, d2, err := proveLog(tagG2a, c.a2)
	if err != nil {
		return nil, err
	}
	c3, d3, err := proveLog(tagG3a, c.a3)
	if err != nil {
		return nil, err
	}
	e := newEncoder(6).
		element(base(c.a2)).scalar(c2).scalar(d2).
		element(base(c.a3)).scalar(c3).scalar(d3)
	return frame(wire.KindCompareRound1, e.buf)
}

// round2 answers the initiator's shares with the responder's shares and its
// commitment (Pb, Qb) to the secret.
func (c *Comparator) round2(payload []byte) ([]byte, error) {
	d := &decoder{buf: payload}
	g2a, c2, d2 := d.element(), d.scalar(), d.scalar()
	g3a, c3, d3 := d.element(), d.scalar(), d.scalar()
	if d.err != nil {
		return nil, d.err
	}
	if !verifyLog(tagG2a, g2a, c2, d2) || !verifyLog(tagG3a, g3a, c3, d3) {
		return nil, errProof
	}

	var err error
	if c.a2, err = randomScalar(); err != nil {
		return nil, err
	}
	if c.a3, err = randomScalar(); err != nil {
		return nil, err
	}
	if c.s, err = randomScalar(); err != nil {
		return nil, err
	}
	c.g3o = g3a
	c.g2 = mul(c.a2, g2a)
	c.g3 = mul(c.a3, g3a)
	c.p = mul(c.s, c.g3)
	c.q = add(base(c.s), mul(c.x, c.g2))

	pc2, pd2, err := proveLog(tagG2b, c.a2)
	if err != nil {
		return nil, err
	}
	pc3, pd3, err := proveLog(tagG3b, c.a3)
	if err != nil {
		return nil, err
	}
	pc, pd5, pd6, err := provePQ(tagPQb, c.g2, c.g3, c.s, c.x)
	if err != nil {
		return nil, err
	}
	e := newEncoder(11).
		element(base(c.a2)).scalar(pc2).scalar(pd2).
		element(base(c.a3)).scalar(pc3).scalar(pd3).
		element(c.p).element(c.q).scalar(pc).scalar(pd5).scalar(pd6)
	return frame(wire.KindCompareRound2, e.buf)
}

// round3 checks the responder's shares and commitment, then sends the
// initiator's commitment (Pa, Qa) and Ra = a3*(Qa-Qb).
func (c *Comparator) round3(payload []byte) ([]byte, error) {
	d := &decoder{buf: payload}
	g2b, c2, d2 := d.element(), d.scalar(), d.scalar()
	g3b, c3, d3 := d.element(), d.scalar(), d.scalar()
	pb, qb, pc, pd5, pd6 := d.element(), d.element(), d.scalar(), d.scalar(), d.scalar()
	if d.err != nil {
		return nil, d.err
	}
	if !verifyLog(tagG2b, g2b, c2, d2) || !verifyLog(tagG3b, g3b, c3, d3) {
		return nil, errProof
	}
	c.g3o = g3b
	c.g2 = mul(c.a2, g2b)
	c.g3 = mul(c.a3, g3b)
	if !verifyPQ(tagPQb, c.g2, c.g3, pb, qb, pc, pd5, pd6) {
		return nil, errProof
	}
	c.pb, c.qb = pb, qb

	var err error
	if c.s, err = randomScalar(); err != nil {
		return nil, err
	}
	c.p = mul(c.s, c.g3)
	c.q = add(base(c.s), mul(c.x, c.g2))
	qc, qd5, qd6, err := provePQ(tagPQa, c.g2, c.g3, c.s, c.x)
	if err != nil {
		return nil, err
	}

	qdiff := sub(c.q, c.qb)
	ra := mul(c.a3, qdiff)
	rc, rd, err := proveEqualLogs(tagRa, c.a3, qdiff)
	if err != nil {
		return nil, err
	}
	e := newEncoder(8).
		element(c.p).element(c.q).scalar(qc).scalar(qd5).scalar(qd6).
		element(ra).scalar(rc).scalar(rd)
	return frame(wire.KindCompareRound3, e.buf)
}

// round4 checks the initiator's commitment and Ra, decides the outcome on
// the responder side and sends Rb = b3*(Qa-Qb).
func (c *Comparator) round4(payload []byte) ([]byte, error) {
	d := &decoder{buf: payload}
	pa, qa, qc, qd5, qd6 := d.element(), d.element(), d.scalar(), d.scalar(), d.scalar()
	ra, rc, rd := d.element(), d.scalar(), d.scalar()
	if d.err != nil {
		return nil, d.err
	}
	if !verifyPQ(tagPQa, c.g2, c.g3, pa, qa, qc, qd5, qd6) {
		return nil, errProof
	}
	qdiff := sub(qa, c.q)
	if !verifyEqualLogs(tagRa, c.g3o, qdiff, ra, rc, rd) {
		return nil, errProof
	}

	rb := mul(c.a3, qdiff)
	bc, bd, err := proveEqualLogs(tagRb, c.a3, qdiff)
	if err != nil {
		return nil, err
	}
	c.decide(mul(c.a3, ra), sub(pa, c.p))
	e := newEncoder(3).element(rb).scalar(bc).scalar(bd)
	return frame(wire.KindCompareRound4, e.buf)
}

// finish checks Rb and decides the outcome on the initiator side.
func (c *Comparator) finish(payload []byte) error {
	d := &decoder{buf: payload}
	rb, rc, rd := d.element(), d.scalar(), d.scalar()
	if d.err != nil {
		return d.err
	}
	qdiff := sub(c.q, c.qb)
	if !verifyEqualLogs(tagRb, c.g3o, qdiff, rb, rc, rd) {
		return errProof
	}
	c.decide(mul(c.a3, rb), sub(c.p, c.pb))
	return nil
}

// decide compares Rab with Pa-Pb; they agree exactly when the secrets do.
func (c *Comparator) decide(rab, pdiff *ristretto255.Element) {
	if rab.Equal(pdiff) == 1 {
		c.result = Match
	} else {
		c.result = NoMatch
	}
}

func frame(kind wire.Kind, payload []byte) ([]byte, error) {
	env := &wire.Envelope{Kind: kind, Payload: payload}
	return env.Marshal()
}
