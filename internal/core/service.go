// Package core orchestrates the store, AI client, analyzer and study engines
// on behalf of an explicitly passed owner.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kotoba-study/kotoba/internal/ai"
	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/japanese"
	"github.com/kotoba-study/kotoba/internal/quiz"
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Options tune the service.
type Options struct {
	QuizQuestions int
	QuizOptions   int
	Terminators   []rune
	LemmaBlanking bool
	MaxSentences  int
	AutoGenerate  bool
	Defaults      db.Settings
	HTTPClient    *http.Client
}

// Service is the study application's use-case layer.
type Service struct {
	DB         *db.Database
	AI         ai.Client
	Analyzer   *japanese.Analyzer
	Flashcards *quiz.Flashcards
	Fill       *quiz.FillBuilder

	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a service. aiClient and analyzer may be nil.
func NewService(database *db.Database, aiClient ai.Client, analyzer *japanese.Analyzer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if aiClient == nil {
		aiClient = ai.Disabled{}
	}
	if opts.QuizQuestions <= 0 {
		opts.QuizQuestions = 10
	}
	if opts.QuizOptions <= 0 {
		opts.QuizOptions = 4
	}
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = 3
	}
	if opts.Defaults.DailyGoal <= 0 {
		opts.Defaults.DailyGoal = db.DefaultSettings.DailyGoal
	}
	if opts.Defaults.Timezone == "" {
		opts.Defaults.Timezone = db.DefaultSettings.Timezone
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	var matcher quiz.Matcher = quiz.BoundaryMatcher{}
	if opts.LemmaBlanking && analyzer != nil {
		matcher = quiz.LemmaMatcher{Analyzer: analyzer}
	}

	rng := quiz.NewRand()
	return &Service{
		DB:         database,
		AI:         aiClient,
		Analyzer:   analyzer,
		Flashcards: quiz.NewFlashcards(rng, database, logger, opts.Terminators),
		Fill:       quiz.NewFillBuilder(quiz.NewSeededRand(rng.Uint64()), matcher),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Settings returns the owner's study settings, falling back to the configured defaults.
func (s *Service) Settings(ctx context.Context, ownerID string) (db.Settings, error) {
	settings, ok, err := s.DB.LookupSettings(ctx, ownerID)
	if err != nil {
		return db.Settings{}, err
	}
	if !ok {
		return s.opts.Defaults, nil
	}
	return settings, nil
}

// SaveSettings validates and stores the owner's study settings.
func (s *Service) SaveSettings(ctx context.Context, ownerID string, settings db.Settings) (db.Settings, error) {
	if settings.DailyGoal < 1 || settings.DailyGoal > 1000 {
		return db.Settings{}, &ValidationError{Field: "dailyGoal", Message: "must be between 1 and 1000"}
	}
	if settings.Timezone == "" {
		settings.Timezone = s.opts.Defaults.Timezone
	}
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return db.Settings{}, &ValidationError{Field: "timezone", Message: "unknown timezone"}
	}
	if err := s.DB.SaveSettings(ctx, ownerID, settings); err != nil {
		return db.Settings{}, err
	}
	return settings, nil
}

// location resolves the owner's calendar timezone.
func (s *Service) location(settings db.Settings) *time.Location {
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		s.logger.Warn("invalid stored timezone, using UTC", "timezone", settings.Timezone, "error", err)
		return time.UTC
	}
	return loc
}
