package stt

import (
	"context"
	"time"
)

type Transcript struct {
	Text       string
	Final      bool
	Confidence float32
	Timestamp  time.Time
	Source     string
}

type Options struct {
	Language string
}

// Engine produces transcripts until ctx is cancelled or its input ends.
// Transcribe returns nil when a recognition run ended and may be restarted,
// ctx.Err() when it was cancelled, and an error wrapping io.EOF (such as
// ErrInputClosed) when its input is exhausted for good. Any other error
// means recognition failed.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, opts Options, emit func(Transcript)) error
}
