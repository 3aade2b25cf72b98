package core

import (
	"context"

	"github.com/kotoba-study/kotoba/internal/progress"
	"github.com/kotoba-study/kotoba/internal/quiz"
)

// StartFlashcards begins a flashcard session over a snapshot of the owner's
// learned words in scope. An empty scope yields a session that reports Empty.
func (s *Service) StartFlashcards(ctx context.Context, ownerID string, scope quiz.Scope) (*quiz.FlashcardSession, error) {
	if err := scope.Validate(); err != nil {
		return nil, &ValidationError{Field: "scope", Message: err.Error()}
	}
	words, err := s.DB.ListWords(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.Flashcards.Begin(ownerID, words, scope, s.now(), s.location(settings)), nil
}

// BeginFlashcards starts a session waiting in choosing_scope, after a restart or
// an empty scope, over a fresh snapshot of the owner's words.
func (s *Service) BeginFlashcards(ctx context.Context, ownerID string, session *quiz.FlashcardSession, scope quiz.Scope) error {
	if err := scope.Validate(); err != nil {
		return &ValidationError{Field: "scope", Message: err.Error()}
	}
	if session.Phase() != quiz.PhaseChoosingScope {
		return quiz.ErrWrongPhase
	}
	words, err := s.DB.ListWords(ctx, ownerID)
	if err != nil {
		return err
	}
	settings, err := s.Settings(ctx, ownerID)
	if err != nil {
		return err
	}
	session.Begin(words, scope, s.now(), s.location(settings))
	return nil
}

// BuildFillQuiz builds a fill-in-the-blank quiz from a snapshot of the owner's words.
func (s *Service) BuildFillQuiz(ctx context.Context, ownerID string) (quiz.FillQuiz, error) {
	words, err := s.DB.ListWords(ctx, ownerID)
	if err != nil {
		return quiz.FillQuiz{}, err
	}
	return s.Fill.Build(words, s.opts.QuizQuestions, s.opts.QuizOptions), nil
}

// Progress summarizes the owner's words for the dashboard.
func (s *Service) Progress(ctx context.Context, ownerID string) (progress.Summary, error) {
	words, err := s.DB.ListWords(ctx, ownerID)
	if err != nil {
		return progress.Summary{}, err
	}
	settings, err := s.Settings(ctx, ownerID)
	if err != nil {
		return progress.Summary{}, err
	}
	return progress.Aggregate(words, settings.DailyGoal, s.now(), s.location(settings)), nil
}
