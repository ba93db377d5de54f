package tts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandSpeaker_Args(t *testing.T) {
	tests := []struct {
		name string
		cfg  CommandConfig
		want []string
	}{
		{name: "bare", cfg: CommandConfig{}, want: []string{"hello"}},
		{name: "espeak voice and rate", cfg: CommandConfig{Voice: "en-us", Rate: 160}, want: []string{"-v", "en-us", "-s", "160", "hello"}},
		{name: "say rate flag", cfg: CommandConfig{Command: "say", Rate: 200}, want: []string{"-r", "200", "hello"}},
		{name: "extra args first", cfg: CommandConfig{Args: []string{"-a", "150"}}, want: []string{"-a", "150", "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCommandSpeaker(tt.cfg).args("hello"))
		})
	}
}

func TestCommandSpeaker_DefaultsToEspeak(t *testing.T) {
	assert.Equal(t, "espeak", NewCommandSpeaker(CommandConfig{}).Name())
}

func TestCommandSpeaker_MissingBinary(t *testing.T) {
	s := NewCommandSpeaker(CommandConfig{Command: "ddvoice-no-such-tts"})
	assert.Error(t, s.Speak(context.Background(), "dragon"))
}

func TestLogSpeaker(t *testing.T) {
	var got string
	s := NewLogSpeaker(func(format string, args ...any) {
		got = fmt.Sprintf(format, args...)
	})

	assert.NoError(t, s.Speak(context.Background(), "dragon has been detected!"))
	assert.Equal(t, "announce: dragon has been detected!", got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Speak(ctx, "x"), context.Canceled)
}
