package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/StevieDC/dd-voice/internal/keyword"
	"github.com/StevieDC/dd-voice/internal/session"
	"github.com/StevieDC/dd-voice/pkg/log"
)

// Config holds all application configuration, read from environment
// variables with defaults. A .env file in the working directory is loaded
// first when present (see New).
//
// Environment Variables:
// Keywords:
// - KEYWORDS_FILE: keyword file, one keyword per line
// - KEYWORDS: inline keywords separated by "|" or "\n" (used when KEYWORDS_FILE is empty)
// - WATCH_KEYWORDS: reload KEYWORDS_FILE when it changes (default: true)
//
// Recognizer:
// - STT_ENGINE: line, command or push (default: line, push for serve)
// - STT_COMMAND: recognizer binary for the command engine (default: brabble)
// - STT_ARGS: space separated recognizer arguments
// - RECOGNIZER_LANG: BCP 47 language tag (default: en-US)
// - RECOGNIZER_RESTART_DELAY: wait before restarting an ended recognizer (default: 0s)
//
// Speaker:
// - TTS_ENGINE: command or log (default: command)
// - TTS_COMMAND: TTS binary (default: espeak)
// - TTS_ARGS: space separated TTS arguments
// - TTS_VOICE, TTS_RATE: voice name and words per minute (optional)
// - ANNOUNCE_TEMPLATE: announcement text template
//
// Server:
// - HTTP_ADDR: listen address (default: :8080)
// - UI_STATIC_DIR: static web UI directory (optional)
//
// Schedule:
// - LISTEN_START_CRON, LISTEN_STOP_CRON: standard cron expressions (optional)
//
// System:
// - LOG_LEVEL: debug, info, warn or error (default: info)
type Config struct {
	Keywords   KeywordsConfig   `json:"keywords"`
	Recognizer RecognizerConfig `json:"recognizer"`
	Speaker    SpeakerConfig    `json:"speaker"`
	HTTP       HTTPConfig       `json:"http"`
	Schedule   ScheduleConfig   `json:"schedule"`
	LogLevel   string           `json:"log_level"`
}

type KeywordsConfig struct {
	File   string `json:"file"`
	Inline string `json:"inline"`
	Watch  bool   `json:"watch"`
}

const (
	EngineLine    = "line"
	EngineCommand = "command"
	EnginePush    = "push"
	EngineLog     = "log"
)

type RecognizerConfig struct {
	Engine       string        `json:"engine"`
	Command      string        `json:"command"`
	Args         []string      `json:"args"`
	Language     language.Tag  `json:"language"`
	RestartDelay time.Duration `json:"restart_delay"`
}

type SpeakerConfig struct {
	Engine   string   `json:"engine"`
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Voice    string   `json:"voice"`
	Rate     int      `json:"rate"`
	Template string   `json:"template"`
}

type HTTPConfig struct {
	Addr        string `json:"addr"`
	UIStaticDir string `json:"ui_static_dir"`
}

type ScheduleConfig struct {
	StartExpr string `json:"start_expr"`
	StopExpr  string `json:"stop_expr"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// New loads envFile (default ".env") when it exists and then reads the
// environment.
func New(envFile string, opts ...Option) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	return NewFromEnv(opts...)
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Keywords: KeywordsConfig{
			File:   getEnvString("KEYWORDS_FILE", ""),
			Inline: getEnvString("KEYWORDS", ""),
			Watch:  getEnvBool("WATCH_KEYWORDS", true),
		},
		Recognizer: RecognizerConfig{
			Engine:       strings.ToLower(getEnvString("STT_ENGINE", EngineLine)),
			Command:      getEnvString("STT_COMMAND", "brabble"),
			Args:         strings.Fields(getEnvString("STT_ARGS", "")),
			Language:     getEnvLanguage("RECOGNIZER_LANG", language.AmericanEnglish),
			RestartDelay: getEnvDuration("RECOGNIZER_RESTART_DELAY", 0),
		},
		Speaker: SpeakerConfig{
			Engine:   strings.ToLower(getEnvString("TTS_ENGINE", EngineCommand)),
			Command:  getEnvString("TTS_COMMAND", "espeak"),
			Args:     strings.Fields(getEnvString("TTS_ARGS", "")),
			Voice:    getEnvString("TTS_VOICE", ""),
			Rate:     getEnvInt("TTS_RATE", 0),
			Template: getEnvString("ANNOUNCE_TEMPLATE", session.DefaultAnnouncement),
		},
		HTTP: HTTPConfig{
			Addr:        getEnvString("HTTP_ADDR", ":8080"),
			UIStaticDir: getEnvString("UI_STATIC_DIR", ""),
		},
		Schedule: ScheduleConfig{
			StartExpr: getEnvString("LISTEN_START_CRON", ""),
			StopExpr:  getEnvString("LISTEN_STOP_CRON", ""),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", *config)
	return config, nil
}

// WithRecognizerEngine overrides STT_ENGINE, e.g. from a CLI flag.
func WithRecognizerEngine(engine string) Option {
	return func(c *Config) {
		if strings.TrimSpace(engine) != "" {
			c.Recognizer.Engine = strings.ToLower(engine)
		}
	}
}

// WithDefaultRecognizerEngine replaces the built-in STT_ENGINE default.
// It has no effect when STT_ENGINE is set, in the environment or in .env.
func WithDefaultRecognizerEngine(engine string) Option {
	return func(c *Config) {
		if os.Getenv("STT_ENGINE") == "" && strings.TrimSpace(engine) != "" {
			c.Recognizer.Engine = strings.ToLower(engine)
		}
	}
}

func WithKeywordsFile(path string) Option {
	return func(c *Config) {
		if strings.TrimSpace(path) != "" {
			c.Keywords.File = path
		}
	}
}

func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		if strings.TrimSpace(addr) != "" {
			c.HTTP.Addr = addr
		}
	}
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	switch c.Recognizer.Engine {
	case EngineLine, EnginePush:
	case EngineCommand:
		if strings.TrimSpace(c.Recognizer.Command) == "" {
			return fmt.Errorf("STT_COMMAND is required for the command engine")
		}
	default:
		return fmt.Errorf("unknown STT_ENGINE %q", c.Recognizer.Engine)
	}

	switch c.Speaker.Engine {
	case EngineLog:
	case EngineCommand:
		if strings.TrimSpace(c.Speaker.Command) == "" {
			return fmt.Errorf("TTS_COMMAND is required for the command engine")
		}
	default:
		return fmt.Errorf("unknown TTS_ENGINE %q", c.Speaker.Engine)
	}

	if _, err := session.ParseAnnouncement(c.Speaker.Template); err != nil {
		return fmt.Errorf("invalid ANNOUNCE_TEMPLATE: %w", err)
	}
	if c.Recognizer.RestartDelay < 0 {
		return fmt.Errorf("RECOGNIZER_RESTART_DELAY must not be negative")
	}

	for name, expr := range map[string]string{
		"LISTEN_START_CRON": c.Schedule.StartExpr,
		"LISTEN_STOP_CRON":  c.Schedule.StopExpr,
	} {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// KeywordSet builds the initial keyword set from KEYWORDS_FILE, or from
// KEYWORDS when no file is configured. It returns keyword.ErrEmptyKeywordSet
// when neither yields a keyword.
func (c *Config) KeywordSet() (*keyword.Set, error) {
	if c.Keywords.File != "" {
		return keyword.LoadFile(c.Keywords.File)
	}
	return keyword.Load(InlineKeywords(c.Keywords.Inline))
}

// InlineKeywords converts the KEYWORDS env format into newline separated
// text. Both "|" and a literal "\n" separate entries.
func InlineKeywords(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	return strings.ReplaceAll(s, "|", "\n")
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvLanguage(key string, defaultValue language.Tag) language.Tag {
	if value := os.Getenv(key); value != "" {
		if tag, err := language.Parse(value); err == nil {
			return tag
		}
		log.Warn("Ignoring invalid %s %q", key, value)
	}
	return defaultValue
}
