package session

import (
	"errors"

	"glowgirl-be/pkg/transcript"
)

var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrEmptyInput             = transcript.ErrEmptyInput
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrStaleGeneration        = errors.New("session moved on before the reply arrived")
	ErrClosed                 = errors.New("session controller is closed")
)

// ServiceError wraps a conversation service failure. The session stays in chatting.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "conversation service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
