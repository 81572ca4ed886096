package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"themis"
	"themis/internal/domain"
	"themis/internal/logger"
	"themis/internal/relay"
	"themis/keys"
	"themis/session"
)

func newRelay(t *testing.T, maxQueue int) *relay.HTTP {
	t.Helper()
	srv := httptest.NewServer(relay.NewServer(logger.NewNop(), maxQueue).Handler())
	t.Cleanup(srv.Close)
	return relay.NewHTTP(srv.URL, srv.Client())
}

func TestRelay_Keys(t *testing.T) {
	c := newRelay(t, 0)
	ctx := context.Background()
	kp, err := keys.GenerateEC()
	require.NoError(t, err)

	_, err = c.FetchKey(ctx, "bob")
	require.ErrorIs(t, err, relay.ErrNotFound)

	require.NoError(t, c.PublishKey(ctx, "bob", kp.Public))
	require.NoError(t, c.PublishKey(ctx, "bob", kp.Public))
	got, err := c.FetchKey(ctx, "bob")
	require.NoError(t, err)
	require.True(t, kp.Public.Equal(got))

	other, err := keys.GenerateEC()
	require.NoError(t, err)
	require.ErrorIs(t, c.PublishKey(ctx, "bob", other.Public), relay.ErrConflict)
}

func TestRelay_MessagesFilterAndAck(t *testing.T) {
	c := newRelay(t, 0)
	ctx := context.Background()
	for _, m := range []struct {
		from domain.PeerID
		data string
	}{{"alice", "a1"}, {"carol", "c1"}, {"alice", "a2"}} {
		require.NoError(t, c.SendMessage(ctx, domain.Envelope{From: m.from, To: "bob", Data: []byte(m.data)}))
	}

	all, err := c.FetchMessages(ctx, "bob", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.NotEqual(t, all[0].ID, all[1].ID)

	fromAlice, err := c.FetchMessages(ctx, "bob", "alice", 1)
	require.NoError(t, err)
	require.Len(t, fromAlice, 1)
	require.Equal(t, "a1", string(fromAlice[0].Data))

	require.NoError(t, c.AckMessages(ctx, "bob", "alice", 1))
	rest, err := c.FetchMessages(ctx, "bob", "", 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Equal(t, "c1", string(rest[0].Data))
	require.Equal(t, "a2", string(rest[1].Data))
}

func TestRelay_Rejections(t *testing.T) {
	c := newRelay(t, 1)
	ctx := context.Background()
	require.NoError(t, c.SendMessage(ctx, domain.Envelope{From: "alice", To: "bob", Data: []byte("x")}))
	err := c.SendMessage(ctx, domain.Envelope{From: "alice", To: "bob", Data: []byte("y")})
	require.ErrorContains(t, err, "429")

	err = c.SendMessage(ctx, domain.Envelope{From: "alice", To: "bob", Data: nil})
	require.Error(t, err)

	resp, err := http.Post(c.Base+"/keys/bob", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPut, c.Base+"/keys/bob", strings.NewReader(`{"key":"AAAA"}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMailbox_ReceiveTimesOut(t *testing.T) {
	c := newRelay(t, 0)
	mb := relay.NewMailbox(c, "bob", "alice", 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := mb.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailbox_CarriesSecureSession(t *testing.T) {
	c := newRelay(t, 0)
	alice, err := keys.GenerateEC()
	require.NoError(t, err)
	bob, err := keys.GenerateEC()
	require.NoError(t, err)
	dir := map[string]*keys.PublicKey{"alice": alice.Public, "bob": bob.Public}
	lookup := session.KeyLookupFunc(func(id []byte) (*keys.PublicKey, error) {
		if k, ok := dir[string(id)]; ok {
			return k, nil
		}
		return nil, relay.ErrNotFound
	})

	a, err := session.New([]byte("alice"), alice.Private, lookup,
		session.WithTransport(relay.NewMailbox(c, "alice", "bob", 5*time.Millisecond)))
	require.NoError(t, err)
	b, err := session.New([]byte("bob"), bob.Private, lookup,
		session.WithTransport(relay.NewMailbox(c, "bob", "alice", 5*time.Millisecond)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got := make(chan []byte, 1)
	errs := make(chan error, 1)
	go func() {
		msg, err := b.Receive(ctx)
		errs <- err
		got <- msg
	}()

	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.Send(ctx, []byte("hello")))
	require.NoError(t, <-errs)
	require.Equal(t, []byte("hello"), <-got)
	require.Equal(t, []byte("alice"), b.RemoteID())
	_, err = a.ConnectRequest()
	require.ErrorIs(t, err, themis.ErrProtocolState)
}
