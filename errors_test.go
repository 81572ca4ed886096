package themis_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"themis"
)

func TestError_Format(t *testing.T) {
	err := themis.NewError("cell.Decrypt", themis.ErrAuthenticationFailure, nil)
	require.Equal(t, "themis: cell.Decrypt: authentication failure", err.Error())

	err = themis.NewError("wire.Parse", themis.ErrInvalidArgument, errors.New("short"))
	require.Equal(t, "themis: wire.Parse: invalid argument: short", err.Error())
}

func TestError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", themis.NewError("op", themis.ErrInternal, cause))
	require.ErrorIs(t, err, themis.ErrInternal)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, themis.ErrAuthenticationFailure)

	var e *themis.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "op", e.Op)
}

func TestError_ReplayIsAuthenticationFailure(t *testing.T) {
	err := themis.NewError("session.Unwrap", themis.ErrReplayOrOrdering, nil)
	require.ErrorIs(t, err, themis.ErrReplayOrOrdering)
	require.ErrorIs(t, err, themis.ErrAuthenticationFailure)

	auth := themis.NewError("session.Unwrap", themis.ErrAuthenticationFailure, nil)
	require.NotErrorIs(t, auth, themis.ErrReplayOrOrdering)
}

func TestKindOf(t *testing.T) {
	require.Nil(t, themis.KindOf(nil))
	require.Equal(t, themis.ErrInternal, themis.KindOf(errors.New("foreign")))
	err := fmt.Errorf("ctx: %w", themis.NewError("op", themis.ErrProtocolState, nil))
	require.Equal(t, themis.ErrProtocolState, themis.KindOf(err))
}

func TestTransportError(t *testing.T) {
	require.Equal(t, themis.ErrTimeout, themis.TransportError("op", context.DeadlineExceeded).Kind)
	require.Equal(t, themis.ErrTimeout, themis.TransportError("op", themis.ErrTimeout).Kind)
	require.Equal(t, themis.ErrTransport, themis.TransportError("op", errors.New("reset")).Kind)
}
