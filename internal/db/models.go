package db

import "time"

// Difficulty is the self-assessed difficulty bucket of a word or kanji.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known buckets.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Word is a vocabulary entry owned by a single user.
type Word struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"ownerId"`
	Headword         string     `json:"headword"`
	Reading          string     `json:"reading"`
	Definition       string     `json:"definition"`
	ExampleSentences []string   `json:"exampleSentences"`
	Learned          bool       `json:"learned"`
	Difficulty       Difficulty `json:"difficulty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Clone returns a deep copy of w.
func (w Word) Clone() Word {
	c := w
	if w.ExampleSentences != nil {
		c.ExampleSentences = append([]string(nil), w.ExampleSentences...)
	}
	return c
}

// CloneWords deep-copies a snapshot so the caller owns every element.
func CloneWords(words []Word) []Word {
	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = w.Clone()
	}
	return out
}

// Kanji is a single character study entry owned by a user.
type Kanji struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Character   string     `json:"character"`
	Meaning     string     `json:"meaning"`
	Onyomi      string     `json:"onyomi"`
	Kunyomi     string     `json:"kunyomi"`
	StrokeCount int        `json:"strokeCount"`
	Examples    []string   `json:"examples"`
	Learned     bool       `json:"learned"`
	Difficulty  Difficulty `json:"difficulty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// User is an account that owns words and kanji.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Settings holds per-user study preferences.
type Settings struct {
	DailyGoal int    `json:"dailyGoal"`
	Timezone  string `json:"timezone"`
}
