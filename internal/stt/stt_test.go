package stt

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantText  string
		wantFinal bool
	}{
		{name: "plain", line: "i saw a dragon", wantOK: true, wantText: "i saw a dragon", wantFinal: true},
		{name: "blank", line: "   ", wantOK: false},
		{name: "json text", line: `{"event":"transcript","text":"hey goblin"}`, wantOK: true, wantText: "hey goblin", wantFinal: true},
		{name: "json payload", line: `{"event":"transcript","payload":{"transcript":"lich"}}`, wantOK: true, wantText: "lich", wantFinal: true},
		{name: "json final false", line: `{"text":"drag","final":false}`, wantOK: true, wantText: "drag", wantFinal: false},
		{name: "json is_final", line: `{"transcript":"troll","is_final":false}`, wantOK: true, wantText: "troll", wantFinal: false},
		{name: "json partial type", line: `{"type":"partial_transcript","text":"wiz"}`, wantOK: true, wantText: "wiz", wantFinal: false},
		{name: "json interim event", line: `{"event":"interim","utterance":"orc"}`, wantOK: true, wantText: "orc", wantFinal: false},
		{name: "json without text", line: `{"event":"status"}`, wantOK: false},
		{name: "broken json", line: `{not json`, wantOK: true, wantText: "{not json", wantFinal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := ParseLine(tt.line, "test")
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantText, tr.Text)
			assert.Equal(t, tt.wantFinal, tr.Final)
			assert.Equal(t, "test", tr.Source)
		})
	}
}

func TestLineEngine_EmitsLinesThenReportsClosedInput(t *testing.T) {
	e := NewLineEngine("stdin", strings.NewReader("dragon\n\n{\"text\":\"gob\",\"final\":false}\ngoblin\n"), nil)

	var got []Transcript
	err := e.Transcribe(context.Background(), Options{}, func(tr Transcript) {
		got = append(got, tr)
	})

	assert.ErrorIs(t, err, ErrInputClosed)
	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 3)
	assert.Equal(t, "dragon", got[0].Text)
	assert.False(t, got[1].Final)
	assert.Equal(t, "goblin", got[2].Text)
	assert.Equal(t, "stdin", got[2].Source)
}

type blockingReader struct{ ch chan struct{} }

func (r blockingReader) Read([]byte) (int, error) {
	<-r.ch
	return 0, errors.New("closed")
}

func TestLineEngine_CancelStopsTranscribe(t *testing.T) {
	r := blockingReader{ch: make(chan struct{})}
	defer close(r.ch)
	e := NewLineEngine("", r, nil)
	assert.Equal(t, "line", e.Name())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Transcribe(ctx, Options{}, func(Transcript) {})
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("transcribe did not return after cancel")
	}
}

func TestCommandEngine_MissingBinary(t *testing.T) {
	e := NewCommandEngine(CommandConfig{Command: "ddvoice-no-such-recognizer"}, nil)
	err := e.Transcribe(context.Background(), Options{}, func(Transcript) {})
	assert.Error(t, err)
}

func TestCommandEngine_String(t *testing.T) {
	assert.Equal(t, "brabble", NewCommandEngine(CommandConfig{}, nil).String())
	assert.Equal(t, "whisper --stream", NewCommandEngine(CommandConfig{Command: "whisper", Args: []string{"--stream"}}, nil).String())
}

func TestPushEngine_BlocksUntilCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewPushEngine().Transcribe(ctx, Options{}, func(Transcript) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
