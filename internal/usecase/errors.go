package usecase

import (
	"errors"

	"ikedadada/go-onionctl/internal/usecase/service"
)

var (
	// ErrChannelUnavailable means the control channel could not be opened or
	// ended before the service was published.
	ErrChannelUnavailable = errors.New("control channel unavailable")

	// ErrListenerClosed means the listener was closed before attachment finished.
	ErrListenerClosed = errors.New("listener closed")
)

// ProtocolViolationError is returned for reply lines that do not fit the
// attachment sequence.
type ProtocolViolationError = service.ProtocolViolationError
