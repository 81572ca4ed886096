package message_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"themis"
	"themis/internal/wire"
	"themis/keys"
	"themis/message"
)

var rsaPairs []*keys.KeyPair

func genPair(t *testing.T, alg keys.Algorithm, i int) *keys.KeyPair {
	t.Helper()
	if alg == keys.RSA && i < len(rsaPairs) {
		return rsaPairs[i]
	}
	kp, err := keys.Generate(alg)
	require.NoError(t, err)
	if alg == keys.RSA {
		rsaPairs = append(rsaPairs, kp)
	}
	return kp
}

func TestSecureMessage_RoundTrip(t *testing.T) {
	for _, alg := range []keys.Algorithm{keys.EC, keys.RSA} {
		t.Run(alg.String(), func(t *testing.T) {
			alice, bob := genPair(t, alg, 0), genPair(t, alg, 1)

			a, err := message.New(alice.Private, bob.Public)
			require.NoError(t, err)
			b, err := message.New(bob.Private, alice.Public)
			require.NoError(t, err)

			env, err := a.Wrap([]byte("meet at noon"))
			require.NoError(t, err)
			require.NotContains(t, string(env), "meet at noon")

			got, err := b.Unwrap(env)
			require.NoError(t, err)
			require.Equal(t, []byte("meet at noon"), got)

			reply, err := b.Wrap([]byte("ok"))
			require.NoError(t, err)
			got, err = a.Unwrap(reply)
			require.NoError(t, err)
			require.Equal(t, []byte("ok"), got)
		})
	}
}

func TestSecureMessage_TamperFailsClosed(t *testing.T) {
	for _, alg := range []keys.Algorithm{keys.EC, keys.RSA} {
		t.Run(alg.String(), func(t *testing.T) {
			alice, bob := genPair(t, alg, 0), genPair(t, alg, 1)
			a, err := message.New(alice.Private, bob.Public)
			require.NoError(t, err)
			b, err := message.New(bob.Private, alice.Public)
			require.NoError(t, err)

			env, err := a.Wrap([]byte("integrity"))
			require.NoError(t, err)

			for i := wire.HeaderLen; i < len(env); i++ {
				bad := append([]byte(nil), env...)
				bad[i] ^= 0x04
				pt, err := b.Unwrap(bad)
				require.Errorf(t, err, "byte %d", i)
				require.Nil(t, pt)
			}

			// Tag and ciphertext tampering are authentication failures.
			bad := append([]byte(nil), env...)
			bad[len(bad)-1] ^= 0x01
			_, err = b.Unwrap(bad)
			require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
		})
	}
}

func TestSecureMessage_ReflectionFails(t *testing.T) {
	alice, bob := genPair(t, keys.EC, 0), genPair(t, keys.EC, 1)
	a, err := message.New(alice.Private, bob.Public)
	require.NoError(t, err)

	env, err := a.Wrap([]byte("to bob"))
	require.NoError(t, err)
	_, err = a.Unwrap(env)
	require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
}

func TestSecureMessage_WrongRecipient(t *testing.T) {
	alice, bob, eve := genPair(t, keys.EC, 0), genPair(t, keys.EC, 1), genPair(t, keys.EC, 2)
	a, err := message.New(alice.Private, bob.Public)
	require.NoError(t, err)
	e, err := message.New(eve.Private, alice.Public)
	require.NoError(t, err)

	env, err := a.Wrap([]byte("not for eve"))
	require.NoError(t, err)
	_, err = e.Unwrap(env)
	require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
}

func TestSecureMessage_InvalidArguments(t *testing.T) {
	ec := genPair(t, keys.EC, 0)
	rsa := genPair(t, keys.RSA, 0)
	ml := genPair(t, keys.MLDSA, 0)

	_, err := message.New(ec.Private, rsa.Public)
	require.ErrorIs(t, err, message.ErrKeyMismatch)
	_, err = message.New(ml.Private, ml.Public)
	require.ErrorIs(t, err, message.ErrUnsupportedKey)
	_, err = message.New(nil, ec.Public)
	require.ErrorIs(t, err, themis.ErrInvalidArgument)

	m, err := message.New(ec.Private, ec.Public)
	require.NoError(t, err)
	_, err = m.Wrap(nil)
	require.ErrorIs(t, err, themis.ErrInvalidArgument)
	_, err = m.Unwrap([]byte("garbage"))
	require.ErrorIs(t, err, themis.ErrInvalidArgument)
}

func TestSignVerify(t *testing.T) {
	for _, alg := range []keys.Algorithm{keys.EC, keys.RSA, keys.MLDSA} {
		t.Run(alg.String(), func(t *testing.T) {
			sender := genPair(t, alg, 0)
			s, err := message.NewSigner(sender.Private)
			require.NoError(t, err)

			env, err := s.Sign([]byte("public notice"))
			require.NoError(t, err)

			v, err := message.NewVerifier(sender.Public)
			require.NoError(t, err)
			got, err := v.Verify(env)
			require.NoError(t, err)
			require.Equal(t, []byte("public notice"), got)

			for _, other := range []*keys.KeyPair{genPair(t, keys.EC, 3), genPair(t, keys.RSA, 2), genPair(t, keys.MLDSA, 1)} {
				ov, err := message.NewVerifier(other.Public)
				require.NoError(t, err)
				_, err = ov.Verify(env)
				require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
			}

			bad := append([]byte(nil), env...)
			bad[wire.HeaderLen+5] ^= 0x01 // first byte of the message body
			_, err = v.Verify(bad)
			require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
		})
	}
}

func TestVerify_RejectsEncryptedEnvelope(t *testing.T) {
	kp := genPair(t, keys.EC, 0)
	m, err := message.New(kp.Private, kp.Public)
	require.NoError(t, err)
	env, err := m.Wrap([]byte("x"))
	require.NoError(t, err)

	v, err := message.NewVerifier(kp.Public)
	require.NoError(t, err)
	_, err = v.Verify(env)
	require.ErrorIs(t, err, themis.ErrInvalidArgument)
}
