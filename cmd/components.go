package main

import (
	"fmt"
	"io"

	"github.com/StevieDC/dd-voice/internal/config"
	"github.com/StevieDC/dd-voice/internal/session"
	"github.com/StevieDC/dd-voice/internal/stt"
	"github.com/StevieDC/dd-voice/internal/tts"
	"github.com/StevieDC/dd-voice/pkg/log"
)

func newRecognizer(cfg *config.Config, stdin io.Reader) (*session.EngineRecognizer, error) {
	var engine stt.Engine
	switch cfg.Recognizer.Engine {
	case config.EngineLine:
		engine = stt.NewLineEngine("stdin", stdin, log.Logf(log.LevelDebug))
	case config.EngineCommand:
		engine = stt.NewCommandEngine(stt.CommandConfig{
			Command: cfg.Recognizer.Command,
			Args:    cfg.Recognizer.Args,
		}, log.Logf(log.LevelDebug))
	case config.EnginePush:
		engine = stt.NewPushEngine()
	default:
		return nil, fmt.Errorf("unknown recognizer engine %q", cfg.Recognizer.Engine)
	}
	log.Info("Recognizer: %s (%s)", engine.Name(), cfg.Recognizer.Language)
	return session.NewEngineRecognizer(engine, stt.Options{Language: cfg.Recognizer.Language.String()}), nil
}

func newSpeaker(cfg *config.Config) (tts.Engine, error) {
	var speaker tts.Engine
	switch cfg.Speaker.Engine {
	case config.EngineLog:
		speaker = tts.NewLogSpeaker(log.Logf(log.LevelInfo))
	case config.EngineCommand:
		speaker = tts.NewCommandSpeaker(tts.CommandConfig{
			Command: cfg.Speaker.Command,
			Args:    cfg.Speaker.Args,
			Voice:   cfg.Speaker.Voice,
			Rate:    cfg.Speaker.Rate,
		})
	default:
		return nil, fmt.Errorf("unknown speaker engine %q", cfg.Speaker.Engine)
	}
	log.Info("Speaker: %s", speaker.Name())
	return speaker, nil
}

// newSession wires recognizer, speaker and announcement template from cfg.
// The initial keyword set may be nil; Start then fails until keywords are
// loaded.
func newSession(cfg *config.Config, stdin io.Reader, opts ...session.Option) (*session.Session, error) {
	recognizer, err := newRecognizer(cfg, stdin)
	if err != nil {
		return nil, err
	}
	speaker, err := newSpeaker(cfg)
	if err != nil {
		return nil, err
	}
	announcement, err := session.ParseAnnouncement(cfg.Speaker.Template)
	if err != nil {
		return nil, fmt.Errorf("announcement template: %w", err)
	}

	set, err := cfg.KeywordSet()
	switch {
	case session.IsEmptyKeywords(err):
		log.Warn("No keywords configured yet")
	case err != nil:
		return nil, err
	default:
		log.Info("Loaded %d keywords: %v", set.Len(), set.Strings())
	}

	opts = append([]session.Option{
		session.WithKeywords(set),
		session.WithAnnouncement(announcement),
		session.WithRestartDelay(cfg.Recognizer.RestartDelay),
	}, opts...)
	return session.New(recognizer, speaker, opts...), nil
}
