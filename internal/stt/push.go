package stt

import "context"

// PushEngine produces nothing itself. It keeps a capture run open while
// transcripts arrive from outside, e.g. posted by a browser recognizer.
type PushEngine struct{}

func NewPushEngine() *PushEngine { return &PushEngine{} }

func (e *PushEngine) Name() string { return "push" }

func (e *PushEngine) Transcribe(ctx context.Context, _ Options, _ func(Transcript)) error {
	<-ctx.Done()
	return ctx.Err()
}
