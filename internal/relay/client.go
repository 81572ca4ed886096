package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"themis/internal/domain"
	"themis/keys"
)

var (
	// ErrNotFound is returned when the relay has no key for a peer.
	ErrNotFound = errors.New("relay: not found")
	// ErrConflict is returned when a different key is already published.
	ErrConflict = errors.New("relay: key already published")
)

// HTTP is a relay client.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the relay at base. A nil hc uses
// http.DefaultClient.
func NewHTTP(base string, hc *http.Client) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP{Base: base, HTTP: hc}
}

// PublishKey publishes pub as the key of id.
func (c *HTTP) PublishKey(ctx context.Context, id domain.PeerID, pub *keys.PublicKey) error {
	return c.do(ctx, http.MethodPut, "/keys/"+url.PathEscape(id.String()), keyBody{Key: pub.Marshal()}, nil)
}

// FetchKey returns the key published for id.
func (c *HTTP) FetchKey(ctx context.Context, id domain.PeerID) (*keys.PublicKey, error) {
	var out keyBody
	if err := c.do(ctx, http.MethodGet, "/keys/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return nil, err
	}
	pub, err := keys.ParsePublicKey(out.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "relay key for %q", id)
	}
	return pub, nil
}

// SendMessage queues env.Data for env.To.
func (c *HTTP) SendMessage(ctx context.Context, env domain.Envelope) error {
	return c.do(ctx, http.MethodPost, "/msg/"+url.PathEscape(env.To.String()),
		sendRequest{From: env.From, Data: env.Data}, nil)
}

// FetchMessages lists up to limit envelopes queued for id.
func (c *HTTP) FetchMessages(ctx context.Context, id, from domain.PeerID, limit int) ([]domain.Envelope, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from.String())
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/msg/" + url.PathEscape(id.String())
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var envs []domain.Envelope
	if err := c.do(ctx, http.MethodGet, path, nil, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// AckMessages drops the oldest count envelopes queued for id from sender
// from, or from anyone when from is empty.
func (c *HTTP) AckMessages(ctx context.Context, id, from domain.PeerID, count int) error {
	return c.do(ctx, http.MethodPost, "/msg/"+url.PathEscape(id.String())+"/ack",
		ackRequest{From: from, Count: count}, nil)
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "relay %s %s", method, path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "relay %s %s", method, path)
	case resp.StatusCode == http.StatusConflict:
		return errors.Wrapf(ErrConflict, "relay %s %s", method, path)
	case resp.StatusCode/100 != 2:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay %s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
	}
	return nil
}

// Compile-time assertion that HTTP implements domain.RelayClient.
var _ domain.RelayClient = (*HTTP)(nil)
