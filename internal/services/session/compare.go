package session

import (
	"context"

	"themis/comparator"
	"themis/internal/domain"
)

// Compare runs a Secure Comparator exchange over an established channel and
// reports whether both sides hold the same secret. Exactly one side must be
// the initiator. The comparator rounds travel as ordinary session payloads,
// so they are encrypted and replay-protected on the way.
func Compare(ctx context.Context, ch domain.Channel, secret []byte, initiator bool) (comparator.Result, error) {
	c := comparator.New()
	defer c.Destroy()
	if err := c.AppendSecret(secret); err != nil {
		return comparator.NotReady, err
	}

	if initiator {
		first, err := c.Begin()
		if err != nil {
			return comparator.NotReady, err
		}
		if err := ch.Send(ctx, first); err != nil {
			return comparator.NotReady, err
		}
	}
	for {
		if res, err := c.Result(); err == nil {
			return res, nil
		}
		in, err := ch.Receive(ctx)
		if err != nil {
			return comparator.NotReady, err
		}
		out, err := c.Proceed(in)
		if err != nil {
			return comparator.NotReady, err
		}
		if out != nil {
			if err := ch.Send(ctx, out); err != nil {
				return comparator.NotReady, err
			}
		}
	}
}
