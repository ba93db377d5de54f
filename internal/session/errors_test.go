package session

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "Recognition", ErrRecognition.String())
	assert.Equal(t, "Playback", ErrPlayback.String())
	assert.Equal(t, "Closed", ErrClosed.String())
	assert.Equal(t, "Unknown", ErrorType(42).String())
}

func TestSessionError_Error(t *testing.T) {
	err := WrapError(io.EOF, ErrRecognition, "speech recognition failed").
		WithContext("generation", 3).
		WithContext("engine", "line")

	assert.Equal(t, "[Recognition] speech recognition failed | context: engine=line, generation=3 | cause: EOF", err.Error())
	assert.ErrorIs(t, err, io.EOF)
}

func TestIsErrorType(t *testing.T) {
	wrapped := fmt.Errorf("start: %w", NewError(ErrPlayback, "speaker failed"))

	assert.True(t, IsErrorType(wrapped, ErrPlayback))
	assert.False(t, IsErrorType(wrapped, ErrRecognition))
	assert.False(t, IsErrorType(errors.New("plain"), ErrPlayback))
	assert.True(t, IsErrorType(ErrSessionClosed, ErrClosed))
}
