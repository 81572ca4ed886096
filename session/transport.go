package session

import (
	"context"

	"themis"
)

// Connect starts negotiation over the attached transport and drives it until
// the session is established. Transport failures during negotiation fail the
// session; cancel ctx to abandon it.
func (s *Session) Connect(ctx context.Context) error {
	const op = "session.Connect"
	if s.transport == nil {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrNoTransport)
	}
	req, err := s.ConnectRequest()
	if err != nil {
		return err
	}
	if err := s.transport.Send(ctx, req); err != nil {
		return s.fail(themis.TransportError(op, err))
	}
	for s.state == StateNegotiating {
		if err := s.pump(ctx, op); err != nil {
			return err
		}
	}
	return s.checkState(op, StateEstablished)
}

// Accept waits for the peer's connect request on the attached transport and
// completes negotiation as the responder.
func (s *Session) Accept(ctx context.Context) error {
	const op = "session.Accept"
	if s.transport == nil {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrNoTransport)
	}
	if err := s.negotiate(ctx, op); err != nil {
		return err
	}
	return s.checkState(op, StateEstablished)
}

// Send wraps payload and hands it to the transport. A transport failure does
// not change the session state, but the envelope's sequence number is spent.
func (s *Session) Send(ctx context.Context, payload []byte) error {
	const op = "session.Send"
	if s.transport == nil {
		return themis.NewError(op, themis.ErrInvalidArgument, ErrNoTransport)
	}
	out, err := s.Wrap(payload)
	if err != nil {
		return err
	}
	if err := s.transport.Send(ctx, out); err != nil {
		return themis.TransportError(op, err)
	}
	return nil
}

// Receive returns the next application payload from the transport. An idle
// or negotiating session first completes negotiation as the responder,
// answering the peer through the transport.
func (s *Session) Receive(ctx context.Context) ([]byte, error) {
	const op = "session.Receive"
	if s.transport == nil {
		return nil, themis.NewError(op, themis.ErrInvalidArgument, ErrNoTransport)
	}
	if err := s.negotiate(ctx, op); err != nil {
		return nil, err
	}
	if err := s.checkState(op, StateEstablished); err != nil {
		return nil, err
	}
	data, err := s.transport.Receive(ctx)
	if err != nil {
		return nil, themis.TransportError(op, err)
	}
	return s.Unwrap(data)
}

func (s *Session) negotiate(ctx context.Context, op string) error {
	for s.state == StateIdle || s.state == StateNegotiating {
		if err := s.pump(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

// pump moves one negotiation envelope from the transport through Negotiate
// and sends any reply.
func (s *Session) pump(ctx context.Context, op string) error {
	data, err := s.transport.Receive(ctx)
	if err != nil {
		err = themis.TransportError(op, err)
		if s.state == StateNegotiating {
			return s.fail(err)
		}
		return err
	}
	reply, err := s.Negotiate(data)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}
	if err := s.transport.Send(ctx, reply); err != nil {
		return s.fail(themis.TransportError(op, err))
	}
	return nil
}
