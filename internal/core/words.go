package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kotoba-study/kotoba/internal/ai"
	"github.com/kotoba-study/kotoba/internal/db"
)

const (
	maxHeadwordLen   = 100
	maxDefinitionLen = 1000
	maxSentences     = 20
)

// WordInput is the editable part of a word.
type WordInput struct {
	Headword         string        `json:"headword"`
	Reading          string        `json:"reading"`
	Definition       string        `json:"definition"`
	ExampleSentences []string      `json:"exampleSentences"`
	Difficulty       db.Difficulty `json:"difficulty"`
	Learned          bool          `json:"learned"`
}

func (in *WordInput) normalize() error {
	in.Headword = strings.TrimSpace(in.Headword)
	in.Reading = strings.TrimSpace(in.Reading)
	in.Definition = strings.TrimSpace(in.Definition)

	sentences := make([]string, 0, len(in.ExampleSentences))
	for _, s := range in.ExampleSentences {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	in.ExampleSentences = sentences

	if in.Difficulty == "" {
		in.Difficulty = db.DifficultyMedium
	}

	switch {
	case in.Headword == "":
		return &ValidationError{Field: "headword", Message: "is required"}
	case utf8.RuneCountInString(in.Headword) > maxHeadwordLen:
		return &ValidationError{Field: "headword", Message: fmt.Sprintf("must be at most %d characters", maxHeadwordLen)}
	case utf8.RuneCountInString(in.Definition) > maxDefinitionLen:
		return &ValidationError{Field: "definition", Message: fmt.Sprintf("must be at most %d characters", maxDefinitionLen)}
	case len(in.ExampleSentences) > maxSentences:
		return &ValidationError{Field: "exampleSentences", Message: fmt.Sprintf("at most %d sentences", maxSentences)}
	case !in.Difficulty.Valid():
		return &ValidationError{Field: "difficulty", Message: "must be easy, medium or hard"}
	}
	return nil
}

// AddWord validates and stores a new word. A missing reading is filled from
// the analyzer; missing sentences are generated when auto generation is on.
func (s *Service) AddWord(ctx context.Context, ownerID string, in WordInput) (db.Word, error) {
	if err := in.normalize(); err != nil {
		return db.Word{}, err
	}
	if in.Reading == "" && s.Analyzer != nil {
		in.Reading = s.Analyzer.Reading(in.Headword)
	}
	if len(in.ExampleSentences) == 0 && s.opts.AutoGenerate {
		sentences, err := s.AI.GenerateSentences(ctx, in.Headword)
		if err != nil {
			s.logger.Warn("failed to generate example sentences",
				"owner_id", ownerID,
				"headword", in.Headword,
				"error", err,
			)
		} else {
			in.ExampleSentences = sentences
		}
	}

	return s.DB.InsertWord(ctx, db.Word{
		OwnerID:          ownerID,
		Headword:         in.Headword,
		Reading:          in.Reading,
		Definition:       in.Definition,
		ExampleSentences: in.ExampleSentences,
		Learned:          in.Learned,
		Difficulty:       in.Difficulty,
	})
}

// UpdateWord replaces the editable fields of an existing word.
func (s *Service) UpdateWord(ctx context.Context, ownerID, id string, in WordInput) (db.Word, error) {
	if err := in.normalize(); err != nil {
		return db.Word{}, err
	}
	w, err := s.DB.GetWord(ctx, ownerID, id)
	if err != nil {
		return db.Word{}, err
	}

	w.Headword = in.Headword
	w.Reading = in.Reading
	w.Definition = in.Definition
	w.ExampleSentences = in.ExampleSentences
	w.Difficulty = in.Difficulty
	w.Learned = in.Learned
	if err := s.DB.UpdateWord(ctx, *w); err != nil {
		return db.Word{}, err
	}
	return *w, nil
}

// GetWord returns one of the owner's words.
func (s *Service) GetWord(ctx context.Context, ownerID, id string) (db.Word, error) {
	w, err := s.DB.GetWord(ctx, ownerID, id)
	if err != nil {
		return db.Word{}, err
	}
	return *w, nil
}

// ListWords returns the owner's words, newest first.
func (s *Service) ListWords(ctx context.Context, ownerID string) ([]db.Word, error) {
	return s.DB.ListWords(ctx, ownerID)
}

// SetLearned sets the learned flag of a word.
func (s *Service) SetLearned(ctx context.Context, ownerID, id string, learned bool) error {
	return s.DB.SetLearned(ctx, ownerID, id, learned)
}

// ToggleLearned flips the learned flag of a word and returns the word.
func (s *Service) ToggleLearned(ctx context.Context, ownerID, id string) (db.Word, error) {
	w, err := s.DB.GetWord(ctx, ownerID, id)
	if err != nil {
		return db.Word{}, err
	}
	w.Learned = !w.Learned
	if err := s.DB.SetLearned(ctx, ownerID, id, w.Learned); err != nil {
		return db.Word{}, err
	}
	return *w, nil
}

// DeleteWord removes a word.
func (s *Service) DeleteWord(ctx context.Context, ownerID, id string) error {
	return s.DB.DeleteWord(ctx, ownerID, id)
}

// GenerateSentences asks the AI for example sentences of headword. Nothing is stored.
func (s *Service) GenerateSentences(ctx context.Context, headword string) ([]string, error) {
	headword = strings.TrimSpace(headword)
	if headword == "" {
		return nil, &ValidationError{Field: "headword", Message: "is required"}
	}
	sentences, err := s.AI.GenerateSentences(ctx, headword)
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			s.logger.Error("sentence generation failed", "headword", headword, "error", err)
		}
		return nil, err
	}
	return sentences, nil
}

// WriteWords encodes the owner's words as indented JSON.
func (s *Service) WriteWords(ctx context.Context, ownerID string, w io.Writer) error {
	words, err := s.DB.ListWords(ctx, ownerID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(words)
}

// ExportWords writes the owner's words to a JSON file.
func (s *Service) ExportWords(ctx context.Context, ownerID, path string) error {
	if strings.TrimSpace(path) == "" {
		return &ValidationError{Field: "path", Message: "is required"}
	}
	return s.DB.ExportWords(ctx, ownerID, path)
}
