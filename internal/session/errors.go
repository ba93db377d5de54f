package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorType int

const (
	ErrRecognition ErrorType = iota
	ErrPlayback
	ErrClosed
)

// ErrSessionClosed is returned by commands posted after Run has exited.
var ErrSessionClosed = NewError(ErrClosed, "session is not running")

type SessionError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *SessionError {
	return &SessionError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(err error, errorType ErrorType, message string) *SessionError {
	e := NewError(errorType, message)
	e.Cause = err
	return e
}

func (e *SessionError) Error() string {
	parts := []string{fmt.Sprintf("[%s] %s", e.Type, e.Message)}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, "context: "+strings.Join(ctxParts, ", "))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

func (e *SessionError) WithContext(key string, value any) *SessionError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrRecognition:
		return "Recognition"
	case ErrPlayback:
		return "Playback"
	case ErrClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// IsErrorType reports whether err wraps a SessionError of the given type.
func IsErrorType(err error, errorType ErrorType) bool {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Type == errorType
	}
	return false
}
