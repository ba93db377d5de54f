package session

import (
	"context"
	"errors"

	"github.com/StevieDC/dd-voice/internal/stt"
	"github.com/StevieDC/dd-voice/pkg/log"
)

// EngineRecognizer runs an stt.Engine as a capture run and translates its
// output into session events.
type EngineRecognizer struct {
	engine stt.Engine
	opts   stt.Options
}

func NewEngineRecognizer(engine stt.Engine, opts stt.Options) *EngineRecognizer {
	return &EngineRecognizer{engine: engine, opts: opts}
}

func (r *EngineRecognizer) Start(ctx context.Context, gen uint64, emit Emit) error {
	if r.engine == nil {
		return errors.New("no speech recognizer configured")
	}
	source := r.engine.Name()
	log.Debug("Starting recognizer %s (run %d)", source, gen)

	go func() {
		err := r.engine.Transcribe(ctx, r.opts, func(tr stt.Transcript) {
			typ := EventSegmentInterim
			if tr.Final {
				typ = EventSegmentFinal
			}
			emit(Event{Type: typ, Text: tr.Text, Source: source, Generation: gen})
		})
		switch {
		case ctx.Err() != nil:
			// stopped on purpose; nothing to report
		case err != nil:
			emit(Event{Type: EventRecognitionError, Err: err, Source: source, Generation: gen})
		default:
			emit(Event{Type: EventRecognitionEnded, Source: source, Generation: gen})
		}
	}()
	return nil
}
