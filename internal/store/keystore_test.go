package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"themis/internal/domain"
	"themis/internal/store"
	"themis/keys"
)

// cheap argon2id cost keeps the tests fast.
func newKeyStore(dir string) *store.KeyStore {
	return store.NewKeyStore(dir, store.WithArgon2(1, 1024, 1))
}

func newIdentity(t *testing.T, alg keys.Algorithm) domain.Identity {
	t.Helper()
	kp, err := keys.Generate(alg)
	require.NoError(t, err)
	return domain.Identity{ID: "alice", Keys: kp}
}

func TestIdentity_SaveLoad_OK(t *testing.T) {
	for _, alg := range []keys.Algorithm{keys.EC, keys.RSA, keys.MLDSA} {
		t.Run(alg.String(), func(t *testing.T) {
			home := t.TempDir()
			var ks domain.KeyStore = newKeyStore(home)
			id := newIdentity(t, alg)

			require.NoError(t, ks.SaveIdentity("Correct-Horse-9", id))
			got, err := ks.LoadIdentity("Correct-Horse-9")
			require.NoError(t, err)
			require.Equal(t, id.ID, got.ID)
			require.True(t, id.Keys.Public.Equal(got.Keys.Public))

			sig, err := got.Keys.Private.Sign([]byte("msg"))
			require.NoError(t, err)
			require.True(t, id.Keys.Public.Verify([]byte("msg"), sig))

			gotID, pub, err := ks.LoadPublic()
			require.NoError(t, err)
			require.Equal(t, id.ID, gotID)
			require.True(t, id.Keys.Public.Equal(pub))
		})
	}
}

func TestIdentity_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	ks := newKeyStore(home)
	require.NoError(t, ks.SaveIdentity("correct", newIdentity(t, keys.EC)))

	_, err := ks.LoadIdentity("wrong")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestIdentity_TamperedFile_Fails(t *testing.T) {
	home := t.TempDir()
	ks := newKeyStore(home)
	require.NoError(t, ks.SaveIdentity("pass", newIdentity(t, keys.EC)))

	// Renaming the identity changes the cell context.
	path := filepath.Join(home, "identity.json")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	b = []byte(strings.Replace(string(b), `"id": "alice"`, `"id": "mallory"`, 1))
	require.NoError(t, os.WriteFile(path, b, 0o600))

	_, err = ks.LoadIdentity("pass")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestIdentity_Missing(t *testing.T) {
	ks := newKeyStore(t.TempDir())
	_, err := ks.LoadIdentity("pass")
	require.ErrorIs(t, err, store.ErrNoIdentity)
	_, _, err = ks.LoadPublic()
	require.ErrorIs(t, err, store.ErrNoIdentity)
}

func TestIdentity_FilesAreOwnerOnly(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, newKeyStore(home).SaveIdentity("pass", newIdentity(t, keys.EC)))
	for _, name := range []string{"identity.json", "identity.pub"} {
		fi, err := os.Stat(filepath.Join(home, name))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm(), name)
	}
}
