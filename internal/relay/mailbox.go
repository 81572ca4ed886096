package relay

import (
	"context"
	"time"

	"themis/internal/domain"
	"themis/session"
)

// DefaultPollInterval is how often Mailbox.Receive asks the relay for mail.
const DefaultPollInterval = 250 * time.Millisecond

// Mailbox carries envelopes between two parties through a relay. Receive
// only consumes envelopes sent by the peer and leaves the rest queued.
type Mailbox struct {
	client domain.RelayClient
	self   domain.PeerID
	peer   domain.PeerID
	poll   time.Duration

	pending [][]byte
}

// NewMailbox returns a Mailbox from self to peer over client.
func NewMailbox(client domain.RelayClient, self, peer domain.PeerID, poll time.Duration) *Mailbox {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Mailbox{client: client, self: self, peer: peer, poll: poll}
}

// Send queues data for the peer.
func (m *Mailbox) Send(ctx context.Context, data []byte) error {
	return m.client.SendMessage(ctx, domain.Envelope{From: m.self, To: m.peer, Data: data})
}

// Receive returns the next envelope from the peer, polling until one
// arrives or ctx is done. Envelopes are acknowledged as soon as they are
// fetched.
func (m *Mailbox) Receive(ctx context.Context) ([]byte, error) {
	for len(m.pending) == 0 {
		envs, err := m.client.FetchMessages(ctx, m.self, m.peer, 16)
		if err != nil {
			return nil, err
		}
		if len(envs) > 0 {
			if err := m.client.AckMessages(ctx, m.self, m.peer, len(envs)); err != nil {
				return nil, err
			}
			for _, env := range envs {
				m.pending = append(m.pending, env.Data)
			}
			break
		}
		t := time.NewTimer(m.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	data := m.pending[0]
	m.pending = m.pending[1:]
	return data, nil
}

// Compile-time assertion that Mailbox implements session.Transport.
var _ session.Transport = (*Mailbox)(nil)
