package comparator_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"themis"
	"themis/comparator"
	"themis/internal/wire"
)

func newComparator(t *testing.T, secret string) *comparator.Comparator {
	t.Helper()
	c := comparator.New()
	require.NoError(t, c.AppendSecret([]byte(secret)))
	return c
}

// run drives a complete exchange and returns both outcomes.
func run(t *testing.T, alice, bob *comparator.Comparator) (comparator.Result, comparator.Result) {
	t.Helper()
	msg, err := alice.Begin()
	require.NoError(t, err)
	sizes := []int{comparator.Round1Size, comparator.Round2Size, comparator.Round3Size, comparator.Round4Size}
	peers := []*comparator.Comparator{bob, alice}
	for round := 0; msg != nil; round++ {
		require.Len(t, msg, wire.HeaderLen+sizes[round])
		msg, err = peers[round%2].Proceed(msg)
		require.NoError(t, err)
	}
	ra, err := alice.Result()
	require.NoError(t, err)
	rb, err := bob.Result()
	require.NoError(t, err)
	return ra, rb
}

func TestComparator_EqualSecretsMatch(t *testing.T) {
	ra, rb := run(t, newComparator(t, "correct horse"), newComparator(t, "correct horse"))
	require.Equal(t, comparator.Match, ra)
	require.Equal(t, comparator.Match, rb)
}

func TestComparator_DifferentSecretsDoNotMatch(t *testing.T) {
	for i := 0; i < 8; i++ {
		ra, rb := run(t, newComparator(t, "correct horse"), newComparator(t, "battery staple"))
		require.Equal(t, comparator.NoMatch, ra)
		require.Equal(t, comparator.NoMatch, rb)
	}
}

func TestComparator_AppendSecretConcatenates(t *testing.T) {
	a := comparator.New()
	require.NoError(t, a.AppendSecret([]byte("shared ")))
	require.NoError(t, a.AppendSecret([]byte("secret")))
	ra, rb := run(t, a, newComparator(t, "shared secret"))
	require.Equal(t, comparator.Match, ra)
	require.Equal(t, comparator.Match, rb)
}

func TestComparator_ResultBeforeCompletion(t *testing.T) {
	a := newComparator(t, "s")
	r, err := a.Result()
	require.ErrorIs(t, err, themis.ErrProtocolState)
	require.Equal(t, comparator.NotReady, r)

	_, err = a.Begin()
	require.NoError(t, err)
	_, err = a.Result()
	require.ErrorIs(t, err, themis.ErrProtocolState)
}

func TestComparator_ArgumentAndStateErrors(t *testing.T) {
	_, err := comparator.New().Begin()
	require.ErrorIs(t, err, comparator.ErrEmptySecret)

	a := newComparator(t, "s")
	require.ErrorIs(t, a.AppendSecret(nil), themis.ErrInvalidArgument)
	require.ErrorIs(t, a.AppendSecret(make([]byte, comparator.MaxSecretLen)), comparator.ErrSecretTooLong)
	_, err = a.Begin()
	require.NoError(t, err)
	require.ErrorIs(t, a.AppendSecret([]byte("late")), themis.ErrProtocolState)
	_, err = a.Begin()
	require.ErrorIs(t, err, themis.ErrProtocolState)
}

// requireAborted checks that c refuses to produce an outcome or continue.
func requireAborted(t *testing.T, c *comparator.Comparator) {
	t.Helper()
	r, err := c.Result()
	require.ErrorIs(t, err, themis.ErrProtocolState)
	require.Equal(t, comparator.NotReady, r)
	_, err = c.Proceed(nil)
	require.ErrorIs(t, err, themis.ErrProtocolState)
}

func TestComparator_MalformedRoundsAbort(t *testing.T) {
	tests := []struct {
		name   string
		mangle func([]byte) []byte
		kind   error
	}{
		{"truncated", func(m []byte) []byte { return m[:len(m)-1] }, themis.ErrInvalidArgument},
		{"extra element", func(m []byte) []byte {
			env, _ := wire.Parse(m)
			out, _ := (&wire.Envelope{Kind: env.Kind, Payload: append(bytes.Clone(env.Payload), make([]byte, 32)...)}).Marshal()
			return out
		}, themis.ErrInvalidArgument},
		{"identity element", func(m []byte) []byte {
			copy(m[wire.HeaderLen:], make([]byte, 32))
			return m
		}, themis.ErrInvalidArgument},
		{"non-canonical element", func(m []byte) []byte {
			for i := wire.HeaderLen; i < wire.HeaderLen+32; i++ {
				m[i] = 0xff
			}
			return m
		}, themis.ErrInvalidArgument},
		{"forged proof", func(m []byte) []byte {
			m[wire.HeaderLen+32] ^= 0x01
			return m
		}, themis.ErrAuthenticationFailure},
		{"wrong kind", func(m []byte) []byte {
			m[5] = byte(wire.KindCompareRound3)
			return m
		}, themis.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice, bob := newComparator(t, "same"), newComparator(t, "same")
			msg, err := alice.Begin()
			require.NoError(t, err)
			_, err = bob.Proceed(tt.mangle(bytes.Clone(msg)))
			require.ErrorIs(t, err, tt.kind)
			requireAborted(t, bob)
		})
	}
}

func TestComparator_TamperedLaterRoundsAbort(t *testing.T) {
	for round := 1; round < 4; round++ {
		alice, bob := newComparator(t, "same"), newComparator(t, "same")
		peers := []*comparator.Comparator{bob, alice}
		msg, err := alice.Begin()
		require.NoError(t, err)
		for i := 0; i < round; i++ {
			msg, err = peers[i%2].Proceed(msg)
			require.NoError(t, err)
		}
		// Flip the last byte of the final scalar; it stays canonical.
		msg[len(msg)-32] ^= 0x01
		victim := peers[round%2]
		_, err = victim.Proceed(msg)
		require.Error(t, err, "round %d", round+1)
		requireAborted(t, victim)
	}
}

func TestComparator_ReplayedRoundAborts(t *testing.T) {
	alice, bob := newComparator(t, "same"), newComparator(t, "same")
	m1, err := alice.Begin()
	require.NoError(t, err)
	_, err = bob.Proceed(m1)
	require.NoError(t, err)
	_, err = bob.Proceed(m1)
	require.Error(t, err)
	requireAborted(t, bob)
}

func TestComparator_Destroy(t *testing.T) {
	alice, bob := newComparator(t, "same"), newComparator(t, "same")
	m1, err := alice.Begin()
	require.NoError(t, err)
	bob.Destroy()
	_, err = bob.Proceed(m1)
	require.ErrorIs(t, err, themis.ErrProtocolState)
	requireAborted(t, bob)
}
