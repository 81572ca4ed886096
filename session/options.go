package session

import (
	"context"

	"themis/keys"
)

// KeyLookup resolves a peer identifier received during negotiation to the
// peer's long-term public key. Returning an error or a nil key rejects the
// peer.
type KeyLookup interface {
	PublicKeyForID(id []byte) (*keys.PublicKey, error)
}

// KeyLookupFunc adapts a function to KeyLookup.
type KeyLookupFunc func(id []byte) (*keys.PublicKey, error)

func (f KeyLookupFunc) PublicKeyForID(id []byte) (*keys.PublicKey, error) { return f(id) }

// Transport carries envelopes between peers. The session never owns it and
// never closes it.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
}

// Logger receives negotiation and lifecycle events. A *logrus.Logger
// satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStateChanged registers fn to be called after every state transition.
func WithStateChanged(fn func(State)) Option {
	return func(s *Session) { s.onState = fn }
}

// WithTransport attaches t for use by Connect, Send and Receive.
func WithTransport(t Transport) Option {
	return func(s *Session) { s.transport = t }
}
