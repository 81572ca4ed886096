package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"themis"
	"themis/comparator"
	"themis/internal/domain"
	sessionsvc "themis/internal/services/session"
)

// loopback is an in-memory domain.Channel.
type loopback struct {
	in, out chan []byte
}

func newLoopback() (*loopback, *loopback) {
	ab, ba := make(chan []byte, 4), make(chan []byte, 4)
	return &loopback{in: ba, out: ab}, &loopback{in: ab, out: ba}
}

func (l *loopback) Send(ctx context.Context, p []byte) error {
	select {
	case l.out <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *loopback) Receive(ctx context.Context) ([]byte, error) {
	select {
	case p := <-l.in:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *loopback) Peer() domain.PeerID { return "loopback" }
func (l *loopback) Close() error        { return nil }

func compare(t *testing.T, a, b string) (comparator.Result, comparator.Result) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ca, cb := newLoopback()

	type outcome struct {
		res comparator.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := sessionsvc.Compare(ctx, cb, []byte(b), false)
		done <- outcome{res, err}
	}()
	ra, err := sessionsvc.Compare(ctx, ca, []byte(a), true)
	require.NoError(t, err)
	o := <-done
	require.NoError(t, o.err)
	return ra, o.res
}

func TestCompare(t *testing.T) {
	ra, rb := compare(t, "shared secret", "shared secret")
	require.Equal(t, comparator.Match, ra)
	require.Equal(t, comparator.Match, rb)

	ra, rb = compare(t, "shared secret", "other secret")
	require.Equal(t, comparator.NoMatch, ra)
	require.Equal(t, comparator.NoMatch, rb)
}

func TestCompare_Errors(t *testing.T) {
	ca, _ := newLoopback()
	_, err := sessionsvc.Compare(context.Background(), ca, nil, true)
	require.ErrorIs(t, err, comparator.ErrEmptySecret)

	ca, cb := newLoopback()
	require.NoError(t, cb.Send(context.Background(), []byte("garbage")))
	_, err = sessionsvc.Compare(context.Background(), ca, []byte("s"), false)
	require.ErrorIs(t, err, themis.ErrInvalidArgument)
}
