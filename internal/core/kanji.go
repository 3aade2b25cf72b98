package core

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kotoba-study/kotoba/internal/db"
)

// KanjiInput is the editable part of a kanji entry.
type KanjiInput struct {
	Character   string        `json:"character"`
	Meaning     string        `json:"meaning"`
	Onyomi      string        `json:"onyomi"`
	Kunyomi     string        `json:"kunyomi"`
	StrokeCount int           `json:"strokeCount"`
	Examples    []string      `json:"examples"`
	Difficulty  db.Difficulty `json:"difficulty"`
	Learned     bool          `json:"learned"`
}

func (in *KanjiInput) normalize() error {
	in.Character = strings.TrimSpace(in.Character)
	in.Meaning = strings.TrimSpace(in.Meaning)
	in.Onyomi = strings.TrimSpace(in.Onyomi)
	in.Kunyomi = strings.TrimSpace(in.Kunyomi)
	if in.Difficulty == "" {
		in.Difficulty = db.DifficultyMedium
	}

	switch {
	case in.Character == "":
		return &ValidationError{Field: "character", Message: "is required"}
	case utf8.RuneCountInString(in.Character) != 1:
		return &ValidationError{Field: "character", Message: "must be a single character"}
	case in.StrokeCount < 0 || in.StrokeCount > 64:
		return &ValidationError{Field: "strokeCount", Message: "must be between 0 and 64"}
	case !in.Difficulty.Valid():
		return &ValidationError{Field: "difficulty", Message: "must be easy, medium or hard"}
	}
	return nil
}

func (in KanjiInput) apply(k *db.Kanji) {
	k.Character = in.Character
	k.Meaning = in.Meaning
	k.Onyomi = in.Onyomi
	k.Kunyomi = in.Kunyomi
	k.StrokeCount = in.StrokeCount
	k.Examples = in.Examples
	k.Difficulty = in.Difficulty
	k.Learned = in.Learned
}

// AddKanji stores a new kanji entry.
func (s *Service) AddKanji(ctx context.Context, ownerID string, in KanjiInput) (db.Kanji, error) {
	if err := in.normalize(); err != nil {
		return db.Kanji{}, err
	}
	k := db.Kanji{OwnerID: ownerID}
	in.apply(&k)
	return s.DB.InsertKanji(ctx, k)
}

// UpdateKanji replaces the editable fields of a kanji entry.
func (s *Service) UpdateKanji(ctx context.Context, ownerID, id string, in KanjiInput) (db.Kanji, error) {
	if err := in.normalize(); err != nil {
		return db.Kanji{}, err
	}
	k, err := s.DB.GetKanji(ctx, ownerID, id)
	if err != nil {
		return db.Kanji{}, err
	}
	in.apply(k)
	if err := s.DB.UpdateKanji(ctx, *k); err != nil {
		return db.Kanji{}, err
	}
	return *k, nil
}

// ListKanji returns the owner's kanji, newest first.
func (s *Service) ListKanji(ctx context.Context, ownerID string) ([]db.Kanji, error) {
	return s.DB.ListKanji(ctx, ownerID)
}

// ToggleKanjiLearned flips the learned flag of a kanji entry.
func (s *Service) ToggleKanjiLearned(ctx context.Context, ownerID, id string) (db.Kanji, error) {
	k, err := s.DB.GetKanji(ctx, ownerID, id)
	if err != nil {
		return db.Kanji{}, err
	}
	k.Learned = !k.Learned
	if err := s.DB.SetKanjiLearned(ctx, ownerID, id, k.Learned); err != nil {
		return db.Kanji{}, err
	}
	return *k, nil
}

// DeleteKanji removes a kanji entry.
func (s *Service) DeleteKanji(ctx context.Context, ownerID, id string) error {
	return s.DB.DeleteKanji(ctx, ownerID, id)
}
