package stt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// ErrInputClosed is returned once the line source has been fully read.
var ErrInputClosed = fmt.Errorf("transcript input closed: %w", io.EOF)

// LineEngine reads one transcript per line from a reader, typically stdin.
// The reader is consumed by a single goroutine for the engine's lifetime so
// a restarted Transcribe call does not lose buffered lines.
type LineEngine struct {
	name string
	r    io.Reader
	logf func(string, ...any)

	once  sync.Once
	lines chan string
}

func NewLineEngine(name string, r io.Reader, logf func(string, ...any)) *LineEngine {
	if name == "" {
		name = "line"
	}
	return &LineEngine{name: name, r: r, logf: logf}
}

func (e *LineEngine) Name() string { return e.name }

func (e *LineEngine) Transcribe(ctx context.Context, _ Options, emit func(Transcript)) error {
	e.once.Do(func() {
		e.lines = make(chan string, 32)
		go e.readLoop()
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return ErrInputClosed
			}
			if tr, ok := ParseLine(line, e.name); ok {
				emit(tr)
			}
		}
	}
}

func (e *LineEngine) readLoop() {
	defer close(e.lines)
	if e.r == nil {
		return
	}
	scanner := bufio.NewScanner(e.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		e.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil && e.logf != nil {
		e.logf("line input read error: %v", err)
	}
}
