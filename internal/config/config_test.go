package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/StevieDC/dd-voice/internal/keyword"
	"github.com/StevieDC/dd-voice/internal/session"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, EngineLine, cfg.Recognizer.Engine)
	assert.Equal(t, "brabble", cfg.Recognizer.Command)
	assert.Equal(t, language.AmericanEnglish, cfg.Recognizer.Language)
	assert.Zero(t, cfg.Recognizer.RestartDelay)
	assert.Equal(t, EngineCommand, cfg.Speaker.Engine)
	assert.Equal(t, "espeak", cfg.Speaker.Command)
	assert.Equal(t, session.DefaultAnnouncement, cfg.Speaker.Template)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.Keywords.Watch)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewFromEnv_ReadsEnvironment(t *testing.T) {
	t.Setenv("STT_ENGINE", "COMMAND")
	t.Setenv("STT_COMMAND", "my-stt")
	t.Setenv("STT_ARGS", "--model  small")
	t.Setenv("RECOGNIZER_LANG", "de-DE")
	t.Setenv("RECOGNIZER_RESTART_DELAY", "250ms")
	t.Setenv("TTS_ENGINE", "log")
	t.Setenv("TTS_RATE", "180")
	t.Setenv("WATCH_KEYWORDS", "false")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("LISTEN_START_CRON", "0 19 * * 5")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, EngineCommand, cfg.Recognizer.Engine)
	assert.Equal(t, "my-stt", cfg.Recognizer.Command)
	assert.Equal(t, []string{"--model", "small"}, cfg.Recognizer.Args)
	assert.Equal(t, "de-DE", cfg.Recognizer.Language.String())
	assert.Equal(t, 250*time.Millisecond, cfg.Recognizer.RestartDelay)
	assert.Equal(t, EngineLog, cfg.Speaker.Engine)
	assert.Equal(t, 180, cfg.Speaker.Rate)
	assert.False(t, cfg.Keywords.Watch)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, "0 19 * * 5", cfg.Schedule.StartExpr)
}

func TestNewFromEnv_InvalidLanguageFallsBack(t *testing.T) {
	t.Setenv("RECOGNIZER_LANG", "not a tag!")
	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, language.AmericanEnglish, cfg.Recognizer.Language)
}

func TestNewFromEnv_Validation(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown stt engine", "STT_ENGINE", "whisper-cloud"},
		{"unknown tts engine", "TTS_ENGINE", "piano"},
		{"bad template", "ANNOUNCE_TEMPLATE", "{{.Keyword"},
		{"bad start cron", "LISTEN_START_CRON", "every friday"},
		{"bad stop cron", "LISTEN_STOP_CRON", "99 * * * *"},
		{"negative delay", "RECOGNIZER_RESTART_DELAY", "-1s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := NewFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestOptionsOverrideEnvironment(t *testing.T) {
	t.Setenv("STT_ENGINE", "command")
	t.Setenv("HTTP_ADDR", ":1111")

	cfg, err := NewFromEnv(
		WithRecognizerEngine("push"),
		WithHTTPAddr(":2222"),
		WithKeywordsFile("/tmp/kw.txt"),
		WithHTTPAddr(" "),
	)
	require.NoError(t, err)
	assert.Equal(t, EnginePush, cfg.Recognizer.Engine)
	assert.Equal(t, ":2222", cfg.HTTP.Addr)
	assert.Equal(t, "/tmp/kw.txt", cfg.Keywords.File)
}

func TestWithDefaultRecognizerEngine(t *testing.T) {
	cfg, err := NewFromEnv(WithDefaultRecognizerEngine(EnginePush))
	require.NoError(t, err)
	assert.Equal(t, EnginePush, cfg.Recognizer.Engine)

	// a flag still wins over the default
	cfg, err = NewFromEnv(WithDefaultRecognizerEngine(EnginePush), WithRecognizerEngine("line"))
	require.NoError(t, err)
	assert.Equal(t, EngineLine, cfg.Recognizer.Engine)

	t.Setenv("STT_ENGINE", "line")
	cfg, err = NewFromEnv(WithDefaultRecognizerEngine(EnginePush))
	require.NoError(t, err)
	assert.Equal(t, EngineLine, cfg.Recognizer.Engine)
}

func TestNew_EnvFileEngineBeatsDefault(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STT_ENGINE=line\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("STT_ENGINE") })

	cfg, err := New(envFile, WithDefaultRecognizerEngine(EnginePush))
	require.NoError(t, err)
	assert.Equal(t, EngineLine, cfg.Recognizer.Engine)
}

func TestNew_LoadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HTTP_ADDR=:7777\nKEYWORDS=dragon|goblin\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("KEYWORDS")
	})

	cfg, err := New(envFile)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.HTTP.Addr)
	assert.Equal(t, "dragon|goblin", cfg.Keywords.Inline)
}

func TestNew_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestKeywordSet(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		cfg := &Config{Keywords: KeywordsConfig{Inline: `dragon| goblin \nlich`}}
		set, err := cfg.KeywordSet()
		require.NoError(t, err)
		assert.Equal(t, []string{"dragon", "goblin", "lich"}, set.Strings())
	})

	t.Run("file wins over inline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keywords.txt")
		require.NoError(t, os.WriteFile(path, []byte("beholder\n"), 0o644))
		cfg := &Config{Keywords: KeywordsConfig{File: path, Inline: "dragon"}}
		set, err := cfg.KeywordSet()
		require.NoError(t, err)
		assert.Equal(t, []string{"beholder"}, set.Strings())
	})

	t.Run("empty", func(t *testing.T) {
		cfg := &Config{}
		_, err := cfg.KeywordSet()
		assert.ErrorIs(t, err, keyword.ErrEmptyKeywordSet)
	})
}
