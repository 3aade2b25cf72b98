package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// ErrDisabled is returned by every call when no AI provider is configured.
var ErrDisabled = errors.New("AI provider is disabled")

// SentenceGenerator produces example sentences for a headword.
type SentenceGenerator interface {
	GenerateSentences(ctx context.Context, headword string) ([]string, error)
}

// VocabularyExtractor pulls vocabulary items out of free text.
type VocabularyExtractor interface {
	ExtractVocabulary(ctx context.Context, text string) ([]string, error)
}

// Client is the full AI surface used by the study service.
type Client interface {
	SentenceGenerator
	VocabularyExtractor
}

// Providers understood by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderNone      = "none"
)

// Config selects and tunes an AI provider.
type Config struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	MaxAttempts  int // per request, including the first
	MaxSentences int
}

// AIError represents an error from the AI API
type AIError struct {
	Message     string
	StatusCode  int
	RequestID   string
	RawResponse string
}

func (e *AIError) Error() string {
	msg := fmt.Sprintf("AI API error (%d): %s", e.StatusCode, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf("\n  request-id: %s", e.RequestID)
	}
	if e.RawResponse != "" {
		msg += fmt.Sprintf("\n  raw: %s", e.RawResponse)
	}
	return msg
}

// IsAIError checks if an error is an AIError
func IsAIError(err error) bool {
	var aiErr *AIError
	return errors.As(err, &aiErr)
}

// New builds the client for cfg.Provider. "none" or an empty provider yields a
// client whose calls all fail with ErrDisabled.
func New(cfg Config, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxSentences <= 0 {
		cfg.MaxSentences = 3
	}

	var (
		c        completer
		attempts int
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderAnthropic:
		// The SDK retries 429 and 5xx responses itself.
		c, err = NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxAttempts-1)
		attempts = 1
	case ProviderOpenAI:
		c, err = NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		attempts = cfg.MaxAttempts
	case ProviderNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Assistant{llm: c, cfg: cfg, attempts: attempts, logger: logger}, nil
}

// completer sends one prompt and returns the model's text.
type completer interface {
	complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Assistant implements Client over any completer.
type Assistant struct {
	llm      completer
	cfg      Config
	attempts int
	logger   *slog.Logger
}

// ExtractVocabulary asks the model for the vocabulary items in text.
func (a *Assistant) ExtractVocabulary(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	out, err := a.ask(ctx, buildVocabularyPrompt(text), 2000)
	if err != nil {
		return nil, err
	}

	vocab, err := parseStringArray(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary response: %w", err)
	}
	return deduplicate(sanitize(vocab)), nil
}

// GenerateSentences asks the model for example sentences using headword, each
// followed by its English translation.
func (a *Assistant) GenerateSentences(ctx context.Context, headword string) ([]string, error) {
	headword = strings.TrimSpace(headword)
	if headword == "" {
		return nil, errors.New("headword is required")
	}

	out, err := a.ask(ctx, buildSentencePrompt(headword, a.cfg.MaxSentences), 800)
	if err != nil {
		return nil, err
	}

	sentences, err := parseStringArray(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sentence response: %w", err)
	}
	sentences = deduplicate(sanitize(sentences))
	if len(sentences) > a.cfg.MaxSentences {
		sentences = sentences[:a.cfg.MaxSentences]
	}
	return sentences, nil
}

func (a *Assistant) ask(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var out string
	err := a.withRetry(ctx, func() error {
		var err error
		out, err = a.llm.complete(ctx, prompt, maxTokens)
		return err
	})
	return out, err
}

// withRetry retries rate-limit and server errors with exponential backoff.
func (a *Assistant) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < max(a.attempts, 1); attempt++ {
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
		if attempt >= a.attempts-1 {
			break
		}
		wait := time.Duration(math.Pow(2, float64(attempt))) * 500 * time.Millisecond
		a.logger.Debug("AI request failed, retrying",
			"attempt", attempt+1,
			"wait_time", wait,
			"error", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var aiErr *AIError
	if !errors.As(err, &aiErr) {
		return false
	}
	return aiErr.StatusCode == 429 || aiErr.StatusCode >= 500
}

// Disabled is the Client used when AI is turned off.
type Disabled struct{}

func (Disabled) GenerateSentences(context.Context, string) ([]string, error) {
	return nil, ErrDisabled
}

func (Disabled) ExtractVocabulary(context.Context, string) ([]string, error) {
	return nil, ErrDisabled
}

// validateAPIKey checks if the API key is valid
func validateAPIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	return nil
}
