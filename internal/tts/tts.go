package tts

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Engine speaks text and returns once playback has finished.
type Engine interface {
	Name() string
	Speak(ctx context.Context, text string) error
}

type CommandConfig struct {
	Command string
	Args    []string
	Voice   string
	Rate    int
}

// CommandSpeaker plays announcements through a local TTS binary such as
// espeak or say. The text is passed as the last argument.
type CommandSpeaker struct {
	cfg CommandConfig
}

func NewCommandSpeaker(cfg CommandConfig) *CommandSpeaker {
	return &CommandSpeaker{cfg: cfg}
}

func (s *CommandSpeaker) Name() string { return s.command() }

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	cmdPath, err := exec.LookPath(s.command())
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, cmdPath, s.args(text)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", s.command(), err, msg)
		}
		return fmt.Errorf("%s: %w", s.command(), err)
	}
	return ctx.Err()
}

func (s *CommandSpeaker) args(text string) []string {
	args := make([]string, 0, len(s.cfg.Args)+5)
	args = append(args, s.cfg.Args...)
	if s.cfg.Voice != "" {
		args = append(args, "-v", s.cfg.Voice)
	}
	if s.cfg.Rate > 0 {
		flag := "-s"
		if s.command() == "say" {
			flag = "-r"
		}
		args = append(args, flag, strconv.Itoa(s.cfg.Rate))
	}
	return append(args, text)
}

func (s *CommandSpeaker) command() string {
	cmd := strings.TrimSpace(s.cfg.Command)
	if cmd == "" {
		return "espeak"
	}
	return cmd
}

// LogSpeaker only writes the announcement to the log. Useful headless or
// when the presentation layer does its own speech synthesis.
type LogSpeaker struct {
	logf func(string, ...any)
}

func NewLogSpeaker(logf func(string, ...any)) *LogSpeaker {
	return &LogSpeaker{logf: logf}
}

func (s *LogSpeaker) Name() string { return "log" }

func (s *LogSpeaker) Speak(ctx context.Context, text string) error {
	if s.logf != nil {
		s.logf("announce: %s", text)
	}
	return ctx.Err()
}
