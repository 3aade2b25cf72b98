// Package config loads kotoba's configuration from a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/kotoba-study/kotoba/internal/ai"
)

// EnvPrefix prefixes every environment variable read. Nested keys are joined
// with a double underscore: KOTOBA_SERVER__ADDR sets server.addr.
const EnvPrefix = "KOTOBA_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	AI       AIConfig       `koanf:"ai"`
	Quiz     QuizConfig     `koanf:"quiz"`
	Study    StudyConfig    `koanf:"study"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	SessionTTL      time.Duration `koanf:"session_ttl" validate:"gt=0"`
	SentenceRate    float64       `koanf:"sentence_rate" validate:"gt=0"`
	SentenceBurst   int           `koanf:"sentence_burst" validate:"min=1"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AuthConfig struct {
	Secret   string        `koanf:"secret" validate:"omitempty,min=16"`
	TokenTTL time.Duration `koanf:"token_ttl" validate:"gt=0"`
}

type AIConfig struct {
	Provider     string        `koanf:"provider" validate:"oneof=anthropic openai none"`
	APIKey       string        `koanf:"api_key" validate:"required_unless=Provider none"`
	Model        string        `koanf:"model"`
	BaseURL      string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxAttempts  int           `koanf:"max_attempts" validate:"min=1,max=10"`
	MaxSentences int           `koanf:"max_sentences" validate:"min=1,max=10"`
	AutoGenerate bool          `koanf:"auto_generate"`
}

type QuizConfig struct {
	Questions     int    `koanf:"questions" validate:"min=1,max=100"`
	Options       int    `koanf:"options" validate:"min=2,max=8"`
	Terminators   string `koanf:"terminators" validate:"required"`
	LemmaBlanking bool   `koanf:"lemma_blanking"`
}

type StudyConfig struct {
	DailyGoal int    `koanf:"daily_goal" validate:"min=1,max=1000"`
	Timezone  string `koanf:"timezone" validate:"required,timezone"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Flags returns the flag set Load understands. Flag defaults are the
// configuration defaults.
func Flags(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("config", "", "path to a YAML config file")
	f.String("env-file", ".env", "dotenv file loaded into the environment if present")

	f.String("server.addr", ":8080", "HTTP listen address")
	f.Duration("server.read_timeout", 15*time.Second, "HTTP read timeout")
	f.Duration("server.write_timeout", 60*time.Second, "HTTP write timeout")
	f.Duration("server.shutdown_timeout", 10*time.Second, "graceful shutdown timeout")
	f.StringSlice("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"}, "CORS allowed origins")
	f.Duration("server.session_ttl", 2*time.Hour, "idle expiry of quiz sessions")
	f.Float64("server.sentence_rate", 0.5, "AI sentence requests per second per user")
	f.Int("server.sentence_burst", 3, "AI sentence request burst per user")

	f.String("database.path", "kotoba.db", "SQLite database path")

	f.String("auth.secret", "", "token signing secret (at least 16 characters)")
	f.Duration("auth.token_ttl", 7*24*time.Hour, "session token lifetime")

	f.String("ai.provider", "none", "AI provider: anthropic, openai or none")
	f.String("ai.api_key", "", "AI provider API key")
	f.String("ai.model", "", "model override")
	f.String("ai.base_url", "", "API base URL override")
	f.Duration("ai.timeout", 60*time.Second, "AI request timeout")
	f.Int("ai.max_attempts", 3, "AI request attempts, including the first")
	f.Int("ai.max_sentences", 3, "example sentences generated per word")
	f.Bool("ai.auto_generate", false, "generate example sentences when a word without any is added")

	f.Int("quiz.questions", 10, "maximum fill-in-the-blank questions per quiz")
	f.Int("quiz.options", 4, "options per fill-in-the-blank question")
	f.String("quiz.terminators", "。．.", "sentence terminators that may precede a translation")
	f.Bool("quiz.lemma_blanking", false, "blank conjugated forms using morphological analysis")

	f.Int("study.daily_goal", 5, "default words per day goal")
	f.String("study.timezone", "UTC", "default IANA timezone")

	f.String("log.level", "info", "log level: debug, info, warn or error")
	f.String("log.format", "text", "log format: text or json")
	return f
}

// Load parses args with Flags and merges the file, environment and flags.
func Load(name string, args []string) (*Config, error) {
	f := Flags(name)
	if err := f.Parse(args); err != nil {
		return nil, errors.Wrap(err, "parsing flags")
	}
	return LoadFlags(f)
}

// LoadFlags merges configuration sources over an already parsed flag set.
func LoadFlags(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	envFile, _ := f.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "loading %s", envFile)
		}
	}

	path, _ := f.GetString("config")
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "loading config file %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, errors.Wrap(err, "loading flags")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps KOTOBA_AI__API_KEY to ai.api_key.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.Errorf("invalid config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// TerminatorRunes returns the configured sentence terminators as runes.
func (q QuizConfig) TerminatorRunes() []rune {
	return []rune(q.Terminators)
}

// Location loads the default study timezone.
func (s StudyConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps the configured level name to a slog level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ClientConfig converts the AI section for ai.New.
func (a AIConfig) ClientConfig() ai.Config {
	return ai.Config{
		Provider:     a.Provider,
		APIKey:       a.APIKey,
		Model:        a.Model,
		BaseURL:      a.BaseURL,
		Timeout:      a.Timeout,
		MaxAttempts:  a.MaxAttempts,
		MaxSentences: a.MaxSentences,
	}
}
