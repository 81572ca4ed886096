package comparator

import (
	"errors"
	"fmt"

	"github.com/gtank/ristretto255"

	"themis"
	"themis/internal/util/memzero"
	"themis/internal/wire"
)

// Result is the outcome of a completed comparison.
type Result int

const (
	// NotReady is returned alongside an error while no outcome exists.
	NotReady Result = iota
	Match
	NoMatch
)

func (r Result) String() string {
	switch r {
	case Match:
		return "match"
	case NoMatch:
		return "no match"
	}
	return "not ready"
}

// Fixed payload size of each round, in bytes.
const (
	Round1Size = 6 * elementSize
	Round2Size = 11 * elementSize
	Round3Size = 8 * elementSize
	Round4Size = 3 * elementSize
)

// MaxSecretLen bounds the total secret accumulated by AppendSecret.
const MaxSecretLen = 64 << 10

var (
	// ErrEmptySecret is returned when Begin or Proceed runs without a secret.
	ErrEmptySecret = errors.New("secret is empty")
	// ErrSecretTooLong is returned by AppendSecret past MaxSecretLen.
	ErrSecretTooLong = fmt.Errorf("secret exceeds %d bytes", MaxSecretLen)
	// ErrAborted is returned by every call after a protocol failure or Destroy.
	ErrAborted = errors.New("comparison aborted")
)

type stage int

const (
	stageIdle stage = iota
	stageAwaitRound2
	stageAwaitRound3
	stageAwaitRound4
	stageDone
	stageAborted
)

// Comparator is one party of a Secure Comparator exchange.
type Comparator struct {
	stage  stage
	secret []byte
	result Result

	x      *ristretto255.Scalar
	a2, a3 *ristretto255.Scalar
	// g3o is the peer's G3 share; g2, g3 are the combined generators.
	g3o    *ristretto255.Element
	g2, g3 *ristretto255.Element
	// p, q are our own P and Q; s is their exponent.
	p, q *ristretto255.Element
	s    *ristretto255.Scalar
	// pb, qb are the responder's P and Q as seen by the initiator.
	pb, qb *ristretto255.Element
}

// New returns an empty comparator.
func New() *Comparator { return &Comparator{} }

// AppendSecret adds data to the secret being compared. It may be called
// several times before the exchange starts.
func (c *Comparator) AppendSecret(data []byte) error {
	const op = "comparator.AppendSecret"
	if c.stage != stageIdle {
		return themis.NewError(op, themis.ErrProtocolState, errors.New("comparison already started"))
	}
	if len(data) == 0 {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrEmptySecret)
	}
	if len(c.secret)+len(data) > MaxSecretLen {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrSecretTooLong)
	}
	grown := make([]byte, 0, len(c.secret)+len(data))
	grown = append(append(grown, c.secret...), data...)
	memzero.Zero(c.secret)
	c.secret = grown
	return nil
}

// Begin starts the exchange as the initiator and returns the first message.
func (c *Comparator) Begin() ([]byte, error) {
	const op = "comparator.Begin"
	if err := c.start(op); err != nil {
		return nil, err
	}
	out, err := c.round1()
	if err != nil {
		return nil, c.abort(themis.NewError(op, themis.ErrInternal, err))
	}
	c.stage = stageAwaitRound2
	return out, nil
}

// Proceed consumes a message from the peer and returns the reply. It returns
// nil once the comparison is complete; Result is then available. An idle
// comparator that receives the first message becomes the responder.
func (c *Comparator) Proceed(msg []byte) ([]byte, error) {
	const op = "comparator.Proceed"
	switch c.stage {
	case stageDone, stageAborted:
		return nil, themis.NewError(op, themis.ErrProtocolState,
			fmt.Errorf("comparison is %s", c.stageName()))
	case stageIdle:
		if err := c.start(op); err != nil {
			return nil, err
		}
	}

	kind, size := c.expected()
	env, err := wire.Expect(msg, kind)
	if err != nil {
		return nil, c.abort(err)
	}
	if env.Tag != nil || len(env.Payload) != size {
		return nil, c.abort(themis.NewError(op, themis.ErrInvalidArgument,
			fmt.Errorf("%v payload must be %d bytes, got %d", kind, size, len(env.Payload))))
	}

	var out []byte
	switch kind {
	case wire.KindCompareRound1:
		out, err = c.round2(env.Payload)
		c.stage = stageAwaitRound3
	case wire.KindCompareRound2:
		out, err = c.round3(env.Payload)
		c.stage = stageAwaitRound4
	case wire.KindCompareRound3:
		out, err = c.round4(env.Payload)
		c.stage = stageDone
	case wire.KindCompareRound4:
		err = c.finish(env.Payload)
		c.stage = stageDone
	}
	if err != nil {
		return nil, c.abort(classify(op, err))
	}
	if c.stage == stageDone {
		c.wipe()
	}
	return out, nil
}

// Result returns the outcome. It fails with themis.ErrProtocolState until
// the exchange has completed, and forever after an abort.
func (c *Comparator) Result() (Result, error) {
	const op = "comparator.Result"
	if c.stage != stageDone {
		return NotReady, themis.NewError(op, themis.ErrProtocolState,
			fmt.Errorf("comparison is %s", c.stageName()))
	}
	return c.result, nil
}

// Destroy wipes the secret and all protocol state. The comparator cannot be
// used afterwards.
func (c *Comparator) Destroy() {
	c.wipe()
	if c.stage != stageDone {
		c.stage = stageAborted
	}
}

func (c *Comparator) start(op string) error {
	if c.stage != stageIdle {
		return themis.NewError(op, themis.ErrProtocolState, fmt.Errorf("comparison is %s", c.stageName()))
	}
	if len(c.secret) == 0 {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrEmptySecret)
	}
	c.x = secretScalar(c.secret)
	memzero.Zero(c.secret)
	c.secret = nil
	return nil
}

// expected returns the kind and payload size of the next message.
func (c *Comparator) expected() (wire.Kind, int) {
	switch c.stage {
	case stageAwaitRound2:
		return wire.KindCompareRound2, Round2Size
	case stageAwaitRound3:
		return wire.KindCompareRound3, Round3Size
	case stageAwaitRound4:
		return wire.KindCompareRound4, Round4Size
	}
	return wire.KindCompareRound1, Round1Size
}

func (c *Comparator) abort(err error) error {
	c.wipe()
	c.stage = stageAborted
	c.result = NotReady
	return err
}

func (c *Comparator) wipe() {
	memzero.Zero(c.secret)
	c.secret = nil
	for _, s := range []*ristretto255.Scalar{c.x, c.a2, c.a3, c.s} {
		if s != nil {
			s.Zero()
		}
	}
	c.x, c.a2, c.a3, c.s = nil, nil, nil, nil
	c.g3o, c.g2, c.g3, c.p, c.q, c.pb, c.qb = nil, nil, nil, nil, nil, nil, nil
}

func (c *Comparator) stageName() string {
	switch c.stage {
	case stageIdle:
		return "idle"
	case stageDone:
		return "complete"
	case stageAborted:
		return "aborted"
	}
	return "in progress"
}

// classify maps round failures onto the error taxonomy.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, errProof):
		return themis.NewError(op, themis.ErrAuthenticationFailure, fmt.Errorf("%w: %v", ErrAborted, err))
	case errors.Is(err, errEncoding), errors.Is(err, errIdentity):
		return themis.NewError(op, themis.ErrInvalidArgument, fmt.Errorf("%w: %v", ErrAborted, err))
	}
	return themis.NewError(op, themis.ErrInternal, err)
}
