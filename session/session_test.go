package session_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"themis"
	"themis/internal/util/memzero"
	"themis/internal/wire"
	"themis/keys"
	"themis/session"
)

type party struct {
	id  []byte
	kp  *keys.KeyPair
	dir map[string]*keys.PublicKey
}

func newParty(t *testing.T, id string, alg keys.Algorithm) *party {
	t.Helper()
	kp, err := keys.Generate(alg)
	require.NoError(t, err)
	return &party{id: []byte(id), kp: kp, dir: map[string]*keys.PublicKey{}}
}

func (p *party) trust(q *party) { p.dir[string(q.id)] = q.kp.Public }

func (p *party) PublicKeyForID(id []byte) (*keys.PublicKey, error) {
	k, ok := p.dir[string(id)]
	if !ok {
		return nil, errors.New("no such peer")
	}
	return k, nil
}

func (p *party) session(t *testing.T, opts ...session.Option) *session.Session {
	t.Helper()
	s, err := session.New(p.id, p.kp.Private, p, opts...)
	require.NoError(t, err)
	return s
}

// negotiate runs the four-envelope exchange in memory.
func negotiate(t *testing.T, a, b *session.Session) {
	t.Helper()
	req, err := a.ConnectRequest()
	require.NoError(t, err)
	reply, err := b.Negotiate(req)
	require.NoError(t, err)
	proposal, err := a.Negotiate(reply)
	require.NoError(t, err)
	accept, err := b.Negotiate(proposal)
	require.NoError(t, err)
	require.True(t, b.IsEstablished())
	done, err := a.Negotiate(accept)
	require.NoError(t, err)
	require.Nil(t, done)
	require.True(t, a.IsEstablished())
}

func pair(t *testing.T, alg keys.Algorithm) (*session.Session, *session.Session) {
	t.Helper()
	alice, bob := newParty(t, "alice", alg), newParty(t, "bob", alg)
	alice.trust(bob)
	bob.trust(alice)
	a, b := alice.session(t), bob.session(t)
	negotiate(t, a, b)
	return a, b
}

func TestSession_HelloWorld(t *testing.T) {
	a, b := pair(t, keys.EC)
	require.Equal(t, []byte("bob"), a.RemoteID())
	require.Equal(t, []byte("alice"), b.RemoteID())

	hello, err := a.Wrap([]byte("hello"))
	require.NoError(t, err)
	got, err := b.Unwrap(hello)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	world, err := b.Wrap([]byte("world"))
	require.NoError(t, err)
	got, err = a.Unwrap(world)
	require.NoError(t, err)
	require.Equal(t, []byte("world"), got)

	_, err = b.Unwrap(hello)
	require.ErrorIs(t, err, themis.ErrReplayOrOrdering)
	require.Equal(t, themis.ErrReplayOrOrdering, themis.KindOf(err))
	require.True(t, b.IsEstablished())
}

func TestSession_NegotiatesWithEveryKeyFamily(t *testing.T) {
	for _, alg := range []keys.Algorithm{keys.EC, keys.RSA, keys.MLDSA} {
		t.Run(alg.String(), func(t *testing.T) {
			a, b := pair(t, alg)
			env, err := a.Wrap([]byte("ping"))
			require.NoError(t, err)
			got, err := b.Unwrap(env)
			require.NoError(t, err)
			require.Equal(t, []byte("ping"), got)
		})
	}
}

func TestSession_InOrderSequence(t *testing.T) {
	a, b := pair(t, keys.EC)
	for i := 0; i < 64; i++ {
		msg := bytes.Repeat([]byte{byte(i)}, i+1)
		env, err := a.Wrap(msg)
		require.NoError(t, err)
		got, err := b.Unwrap(env)
		require.NoError(t, err)
		require.Equal(t, msg, got)
	}
	send, _ := a.Sequence()
	_, recv := b.Sequence()
	require.Equal(t, uint64(64), send)
	require.Equal(t, uint64(64), recv)
}

func TestSession_ReorderIsRejectedNotBuffered(t *testing.T) {
	a, b := pair(t, keys.EC)
	e0, err := a.Wrap([]byte("first"))
	require.NoError(t, err)
	e1, err := a.Wrap([]byte("second"))
	require.NoError(t, err)

	_, err = b.Unwrap(e1)
	require.ErrorIs(t, err, themis.ErrReplayOrOrdering)

	got, err := b.Unwrap(e0)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), got)
	got, err = b.Unwrap(e1)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)
}

func TestSession_FailedUnwrapDoesNotMutate(t *testing.T) {
	a, b := pair(t, keys.EC)
	env, err := a.Wrap([]byte("payload"))
	require.NoError(t, err)

	for i := wire.HeaderLen; i < len(env); i++ {
		bad := bytes.Clone(env)
		bad[i] ^= 0x01
		_, err := b.Unwrap(bad)
		require.Error(t, err, "byte %d", i)
		_, recv := b.Sequence()
		require.Zero(t, recv)
		require.Equal(t, session.StateEstablished, b.State())
	}

	got, err := b.Unwrap(env)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}

func TestSession_TamperedPayloadIsAuthenticationFailure(t *testing.T) {
	a, b := pair(t, keys.EC)
	env, err := a.Wrap([]byte("payload"))
	require.NoError(t, err)
	env[len(env)-1] ^= 0x80
	_, err = b.Unwrap(env)
	require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
	require.Equal(t, themis.ErrAuthenticationFailure, themis.KindOf(err))
}

func TestSession_ReflectedEnvelopeFails(t *testing.T) {
	a, _ := pair(t, keys.EC)
	env, err := a.Wrap([]byte("mirror"))
	require.NoError(t, err)
	_, err = a.Unwrap(env)
	require.Equal(t, themis.ErrAuthenticationFailure, themis.KindOf(err))
}

func TestSession_ImpostorNeverEstablishes(t *testing.T) {
	t.Run("initiator without the key", func(t *testing.T) {
		alice, bob := newParty(t, "alice", keys.EC), newParty(t, "bob", keys.EC)
		mallory := newParty(t, "alice", keys.EC)
		mallory.trust(bob)
		bob.trust(alice)

		m, b := mallory.session(t), bob.session(t)
		req, err := m.ConnectRequest()
		require.NoError(t, err)
		_, err = b.Negotiate(req)
		require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
		require.Equal(t, session.StateFailed, b.State())
	})

	t.Run("responder without the key", func(t *testing.T) {
		alice, bob := newParty(t, "alice", keys.RSA), newParty(t, "bob", keys.RSA)
		mallory := newParty(t, "bob", keys.RSA)
		alice.trust(bob)
		mallory.trust(alice)

		a, m := alice.session(t), mallory.session(t)
		req, err := a.ConnectRequest()
		require.NoError(t, err)
		reply, err := m.Negotiate(req)
		require.NoError(t, err)
		_, err = a.Negotiate(reply)
		require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
		require.Equal(t, session.StateFailed, a.State())
	})

	t.Run("unknown peer", func(t *testing.T) {
		alice, bob := newParty(t, "alice", keys.EC), newParty(t, "bob", keys.EC)
		alice.trust(bob)
		a, b := alice.session(t), bob.session(t)
		req, err := a.ConnectRequest()
		require.NoError(t, err)
		_, err = b.Negotiate(req)
		require.ErrorIs(t, err, session.ErrUnknownPeer)
		require.Equal(t, session.StateFailed, b.State())
	})
}

func TestSession_NegotiationErrorsAreTerminal(t *testing.T) {
	alice, bob := newParty(t, "alice", keys.EC), newParty(t, "bob", keys.EC)
	alice.trust(bob)
	bob.trust(alice)

	t.Run("out of order", func(t *testing.T) {
		a, b := alice.session(t), bob.session(t)
		req, err := a.ConnectRequest()
		require.NoError(t, err)
		_, err = b.Negotiate(req)
		require.NoError(t, err)
		_, err = b.Negotiate(req)
		require.ErrorIs(t, err, themis.ErrProtocolState)
		require.Equal(t, session.StateFailed, b.State())
	})

	t.Run("malformed", func(t *testing.T) {
		a, b := alice.session(t), bob.session(t)
		req, err := a.ConnectRequest()
		require.NoError(t, err)
		reply, err := b.Negotiate(req)
		require.NoError(t, err)
		_, err = a.Negotiate(reply[:len(reply)-1])
		require.ErrorIs(t, err, themis.ErrInvalidArgument)
		require.Equal(t, session.StateFailed, a.State())
	})

	t.Run("tampered confirmation", func(t *testing.T) {
		a, b := alice.session(t), bob.session(t)
		req, err := a.ConnectRequest()
		require.NoError(t, err)
		reply, err := b.Negotiate(req)
		require.NoError(t, err)
		proposal, err := a.Negotiate(reply)
		require.NoError(t, err)
		proposal[len(proposal)-1] ^= 0x01
		_, err = b.Negotiate(proposal)
		require.ErrorIs(t, err, session.ErrBadConfirm)
		require.Equal(t, session.StateFailed, b.State())
	})

	t.Run("failed session refuses everything", func(t *testing.T) {
		a, b := alice.session(t), bob.session(t)
		req, err := a.ConnectRequest()
		require.NoError(t, err)
		_, err = b.Negotiate(req[:wire.HeaderLen])
		require.Error(t, err)
		require.Equal(t, session.StateIdle, b.State())

		_, err = b.Negotiate(req)
		require.NoError(t, err)
		_, err = b.Negotiate([]byte("junk"))
		require.Error(t, err)
		require.Equal(t, session.StateFailed, b.State())

		_, err = b.Negotiate(req)
		require.ErrorIs(t, err, themis.ErrProtocolState)
		_, err = b.Wrap([]byte("x"))
		require.ErrorIs(t, err, themis.ErrProtocolState)
		_, err = b.Unwrap(req)
		require.ErrorIs(t, err, themis.ErrProtocolState)
		_, err = b.ConnectRequest()
		require.ErrorIs(t, err, themis.ErrProtocolState)
		for _, k := range b.KeyMaterial() {
			require.True(t, memzero.IsZero(k))
		}
	})
}

func TestSession_StateErrors(t *testing.T) {
	alice := newParty(t, "alice", keys.EC)
	s := alice.session(t)
	_, err := s.Wrap([]byte("early"))
	require.ErrorIs(t, err, themis.ErrProtocolState)

	a, b := pair(t, keys.EC)
	req, err := a.Wrap([]byte("x"))
	require.NoError(t, err)
	_, err = b.Negotiate(req)
	require.ErrorIs(t, err, themis.ErrProtocolState)
	require.True(t, b.IsEstablished())

	_, err = a.Wrap(nil)
	require.ErrorIs(t, err, themis.ErrInvalidArgument)
}

func TestSession_CloseWipesKeys(t *testing.T) {
	a, b := pair(t, keys.EC)
	env, err := a.Wrap([]byte("last"))
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.Equal(t, session.StateClosed, b.State())
	for _, k := range b.KeyMaterial() {
		require.True(t, memzero.IsZero(k))
	}
	_, err = b.Unwrap(env)
	require.ErrorIs(t, err, themis.ErrProtocolState)
	require.NoError(t, b.Close())
}

func TestSession_SequenceExhaustion(t *testing.T) {
	a, b := pair(t, keys.EC)
	a.SetSequence(math.MaxUint64-1, 0)
	b.SetSequence(0, math.MaxUint64-1)

	env, err := a.Wrap([]byte("last"))
	require.NoError(t, err)
	got, err := b.Unwrap(env)
	require.NoError(t, err)
	require.Equal(t, []byte("last"), got)

	_, err = a.Wrap([]byte("one more"))
	require.ErrorIs(t, err, themis.ErrProtocolState)
	require.Equal(t, session.StateEstablished, a.State())
}

func TestSession_StateChanged(t *testing.T) {
	alice, bob := newParty(t, "alice", keys.EC), newParty(t, "bob", keys.EC)
	alice.trust(bob)
	bob.trust(alice)

	var seen []session.State
	a := alice.session(t, session.WithStateChanged(func(s session.State) { seen = append(seen, s) }))
	negotiate(t, a, bob.session(t))
	require.NoError(t, a.Close())
	require.Equal(t, []session.State{
		session.StateNegotiating, session.StateEstablished, session.StateClosed,
	}, seen)
}

func TestNew_RejectsBadArguments(t *testing.T) {
	alice := newParty(t, "alice", keys.EC)
	_, err := session.New(nil, alice.kp.Private, alice)
	require.ErrorIs(t, err, themis.ErrInvalidArgument)
	_, err = session.New(make([]byte, session.MaxIDLen+1), alice.kp.Private, alice)
	require.ErrorIs(t, err, session.ErrIDTooLong)
	_, err = session.New(alice.id, alice.kp.Private, nil)
	require.ErrorIs(t, err, session.ErrNoKeyLookup)
}

// pipe is one end of an in-memory duplex channel.
type pipe struct {
	in   <-chan []byte
	out  chan<- []byte
	fail error
}

func newPipe() (*pipe, *pipe) {
	ab, ba := make(chan []byte, 8), make(chan []byte, 8)
	return &pipe{in: ba, out: ab}, &pipe{in: ab, out: ba}
}

func (p *pipe) Send(ctx context.Context, data []byte) error {
	if p.fail != nil {
		return p.fail
	}
	select {
	case p.out <- bytes.Clone(data):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipe) Receive(ctx context.Context) ([]byte, error) {
	select {
	case b := <-p.in:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSession_OverTransport(t *testing.T) {
	alice, bob := newParty(t, "alice", keys.EC), newParty(t, "bob", keys.EC)
	alice.trust(bob)
	bob.trust(alice)
	pa, pb := newPipe()
	a := alice.session(t, session.WithTransport(pa))
	b := bob.session(t, session.WithTransport(pb))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		msg []byte
		err error
	}
	got := make(chan result, 1)
	go func() {
		msg, err := b.Receive(ctx)
		if err == nil {
			err = b.Send(ctx, []byte("world"))
		}
		got <- result{msg, err}
	}()

	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.Send(ctx, []byte("hello")))
	r := <-got
	require.NoError(t, r.err)
	require.Equal(t, []byte("hello"), r.msg)

	reply, err := a.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("world"), reply)
}

func TestSession_TransportFailures(t *testing.T) {
	alice := newParty(t, "alice", keys.EC)
	pa, _ := newPipe()
	pa.fail = errors.New("link down")
	a := alice.session(t, session.WithTransport(pa))
	err := a.Connect(context.Background())
	require.ErrorIs(t, err, themis.ErrTransport)
	require.Equal(t, session.StateFailed, a.State())

	pb, _ := newPipe()
	b := alice.session(t, session.WithTransport(pb))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = b.Receive(ctx)
	require.ErrorIs(t, err, themis.ErrTimeout)
	require.Equal(t, session.StateIdle, b.State())

	c := alice.session(t)
	require.ErrorIs(t, c.Connect(context.Background()), session.ErrNoTransport)
}

func TestSession_AcceptOverTransport(t *testing.T) {
	alice, bob := newParty(t, "alice", keys.RSA), newParty(t, "bob", keys.RSA)
	alice.trust(bob)
	bob.trust(alice)
	pa, pb := newPipe()
	a := alice.session(t, session.WithTransport(pa))
	b := bob.session(t, session.WithTransport(pb))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accepted := make(chan error, 1)
	go func() { accepted <- b.Accept(ctx) }()

	require.NoError(t, a.Connect(ctx))
	require.NoError(t, <-accepted)
	require.True(t, b.IsEstablished())
	require.Equal(t, []byte("alice"), b.RemoteID())

	require.NoError(t, b.Send(ctx, []byte("ping")))
	msg, err := a.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), msg)

	require.NoError(t, b.Close())
	require.ErrorIs(t, b.Accept(ctx), themis.ErrProtocolState)
}
