package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"themis/internal/domain"
	"themis/internal/store"
	"themis/keys"
	"themis/session"
)

func TestDirectory_AddAndLookup(t *testing.T) {
	home := t.TempDir()
	dir, err := store.NewDirectory(home, 2)
	require.NoError(t, err)

	kps := map[domain.PeerID]*keys.KeyPair{}
	for _, id := range []domain.PeerID{"bob", "carol", "dave"} {
		kp, err := keys.GenerateEC()
		require.NoError(t, err)
		kps[id] = kp
		require.NoError(t, dir.AddPeer(id, kp.Public))
	}

	// A fresh directory reads everything back from disk.
	fresh, err := store.NewDirectory(home, 1)
	require.NoError(t, err)
	for id, kp := range kps {
		got, err := fresh.Peer(id)
		require.NoError(t, err)
		require.True(t, kp.Public.Equal(got))
	}

	peers, err := fresh.Peers()
	require.NoError(t, err)
	require.Equal(t, []domain.PeerID{"bob", "carol", "dave"}, peers)

	var lookup session.KeyLookup = fresh
	got, err := lookup.PublicKeyForID([]byte("carol"))
	require.NoError(t, err)
	require.True(t, kps["carol"].Public.Equal(got))
}

func TestDirectory_UnknownAndInvalid(t *testing.T) {
	dir, err := store.NewDirectory(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = dir.Peer("nobody")
	require.ErrorIs(t, err, store.ErrUnknownPeer)

	for _, id := range []domain.PeerID{"", "../etc", ".hidden", "a/b", domain.PeerID(make([]byte, 65))} {
		require.False(t, store.ValidPeerID(id), "%q", id)
		_, err := dir.Peer(id)
		require.ErrorIs(t, err, store.ErrBadPeerID)
	}

	peers, err := dir.Peers()
	require.NoError(t, err)
	require.Empty(t, peers)
}

func TestDirectory_RemovePeer(t *testing.T) {
	dir, err := store.NewDirectory(t.TempDir(), 4)
	require.NoError(t, err)
	kp, err := keys.GenerateEC()
	require.NoError(t, err)
	require.NoError(t, dir.AddPeer("bob", kp.Public))
	require.NoError(t, dir.RemovePeer("bob"))
	require.NoError(t, dir.RemovePeer("bob"))
	_, err = dir.Peer("bob")
	require.ErrorIs(t, err, store.ErrUnknownPeer)
}
