package message_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"themis"
	"themis/internal/domain"
	messagesvc "themis/internal/services/message"
	"themis/internal/store"
	"themis/keys"
)

const passphrase = "Correct-Horse-9"

type user struct {
	id  domain.PeerID
	dir *store.Directory
	pub *keys.PublicKey
	svc *messagesvc.Service
}

func newUser(t *testing.T, id domain.PeerID, alg keys.Algorithm) *user {
	t.Helper()
	home := t.TempDir()
	ks := store.NewKeyStore(home, store.WithArgon2(1, 1024, 1))
	dir, err := store.NewDirectory(home, 0)
	require.NoError(t, err)
	kp, err := keys.Generate(alg)
	require.NoError(t, err)
	require.NoError(t, ks.SaveIdentity(passphrase, domain.Identity{ID: id, Keys: kp}))
	pub := kp.Public
	kp.Destroy()
	return &user{id: id, dir: dir, pub: pub, svc: messagesvc.New(ks, dir)}
}

func (u *user) trust(t *testing.T, v *user) {
	t.Helper()
	require.NoError(t, u.dir.AddPeer(v.id, v.pub))
}

func TestService_EncryptDecrypt(t *testing.T) {
	for _, alg := range []keys.Algorithm{keys.EC, keys.RSA} {
		t.Run(alg.String(), func(t *testing.T) {
			alice, bob := newUser(t, "alice", alg), newUser(t, "bob", alg)
			alice.trust(t, bob)
			bob.trust(t, alice)

			wrapped, err := alice.svc.Encrypt(passphrase, "bob", []byte("hello"))
			require.NoError(t, err)
			got, err := bob.svc.Decrypt(passphrase, "alice", wrapped)
			require.NoError(t, err)
			require.Equal(t, []byte("hello"), got)

			wrapped[len(wrapped)-1] ^= 0x01
			_, err = bob.svc.Decrypt(passphrase, "alice", wrapped)
			require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
		})
	}
}

func TestService_SignVerify(t *testing.T) {
	alice, bob, carol := newUser(t, "alice", keys.MLDSA), newUser(t, "bob", keys.EC), newUser(t, "carol", keys.MLDSA)
	bob.trust(t, alice)
	bob.trust(t, carol)

	signed, err := alice.svc.Sign(passphrase, []byte("statement"))
	require.NoError(t, err)

	got, err := bob.svc.Verify("alice", signed)
	require.NoError(t, err)
	require.Equal(t, []byte("statement"), got)

	_, err = bob.svc.Verify("carol", signed)
	require.ErrorIs(t, err, themis.ErrAuthenticationFailure)
}

func TestService_Errors(t *testing.T) {
	alice, bob := newUser(t, "alice", keys.EC), newUser(t, "bob", keys.RSA)
	alice.trust(t, bob)

	_, err := alice.svc.Encrypt(passphrase, "carol", []byte("x"))
	require.ErrorIs(t, err, store.ErrUnknownPeer)

	_, err = alice.svc.Encrypt("Wrong-Horse-99", "bob", []byte("x"))
	require.ErrorIs(t, err, store.ErrWrongPassphrase)

	_, err = alice.svc.Encrypt(passphrase, "bob", []byte("x"))
	require.ErrorIs(t, err, themis.ErrInvalidArgument)

	_, err = alice.svc.Sign(passphrase, nil)
	require.ErrorIs(t, err, themis.ErrInvalidArgument)
}
