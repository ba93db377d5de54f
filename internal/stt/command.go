package stt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type CommandConfig struct {
	Command string
	Args    []string
}

// CommandEngine runs an external recognizer and reads transcripts from its
// stdout, one per line. Stderr is forwarded to the log.
type CommandEngine struct {
	cfg  CommandConfig
	logf func(string, ...any)
}

func NewCommandEngine(cfg CommandConfig, logf func(string, ...any)) *CommandEngine {
	return &CommandEngine{cfg: cfg, logf: logf}
}

func (e *CommandEngine) Name() string { return "command" }

func (e *CommandEngine) Transcribe(ctx context.Context, opts Options, emit func(Transcript)) error {
	cmdPath, err := exec.LookPath(e.command())
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, cmdPath, e.cfg.Args...)
	if opts.Language != "" {
		cmd.Env = append(os.Environ(), "DDVOICE_LANG="+opts.Language)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	go e.logLines(stderr)
	e.readLines(stdout, emit)

	err = cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s exited: %w", e, err)
	}
	return nil
}

func (e *CommandEngine) readLines(r io.Reader, emit func(Transcript)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		if tr, ok := ParseLine(scanner.Text(), e.command()); ok {
			emit(tr)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) && e.logf != nil {
		e.logf("recognizer read error: %v", err)
	}
}

func (e *CommandEngine) logLines(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || e.logf == nil {
			continue
		}
		e.logf("%s: %s", e.command(), line)
	}
}

func (e *CommandEngine) command() string {
	cmd := strings.TrimSpace(e.cfg.Command)
	if cmd == "" {
		return "brabble"
	}
	return cmd
}

func (e *CommandEngine) String() string {
	if len(e.cfg.Args) == 0 {
		return e.command()
	}
	return fmt.Sprintf("%s %s", e.command(), strings.Join(e.cfg.Args, " "))
}
