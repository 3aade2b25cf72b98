package quiz

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kotoba-study/kotoba/internal/db"
)

// ErrWrongPhase is returned when an action does not apply to the session's current phase.
var ErrWrongPhase = errors.New("action not allowed in current phase")

// Phase is the state of a study session.
type Phase string

const (
	PhaseChoosingScope Phase = "choosing_scope"
	PhasePlaying       Phase = "playing"
	PhaseFeedback      Phase = "feedback"
	PhaseFinished      Phase = "finished"
)

// NoLearnedWordsReason explains an empty flashcard scope.
const NoLearnedWordsReason = "No learned words to quiz in this scope. Mark some words as learned first."

// LearnedStore persists the learned flag of a word.
type LearnedStore interface {
	SetLearned(ctx context.Context, ownerID, wordID string, learned bool) error
}

// Flashcards starts flashcard sessions. It is safe for concurrent use; each
// session it creates is not.
type Flashcards struct {
	mu          sync.Mutex
	rng         *rand.Rand
	store       LearnedStore
	logger      *slog.Logger
	terminators []rune
}

// NewFlashcards creates a flashcard engine. store may be nil, in which case
// "didn't know" answers never write back.
func NewFlashcards(rng *rand.Rand, store LearnedStore, logger *slog.Logger, terminators []rune) *Flashcards {
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Flashcards{rng: rng, store: store, logger: logger, terminators: terminators}
}

// childRand hands each session its own source so sessions never share one.
func (f *Flashcards) childRand() *rand.Rand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return rand.New(rand.NewPCG(f.rng.Uint64(), f.rng.Uint64()))
}

// NewSession returns a session waiting for a scope.
func (f *Flashcards) NewSession(ownerID string) *FlashcardSession {
	return &FlashcardSession{
		engine:  f,
		rng:     f.childRand(),
		ownerID: ownerID,
		phase:   PhaseChoosingScope,
	}
}

// Begin selects the scoped words from all and starts the quiz.
func (f *Flashcards) Begin(ownerID string, all []db.Word, scope Scope, now time.Time, loc *time.Location) *FlashcardSession {
	s := f.NewSession(ownerID)
	s.Begin(all, scope, now, loc)
	return s
}

// StartQuiz starts a session over already scoped words.
func (f *Flashcards) StartQuiz(ownerID string, words []db.Word) *FlashcardSession {
	s := f.NewSession(ownerID)
	s.start(words)
	return s
}

// FlashcardSession is one run through a shuffled set of learned words.
type FlashcardSession struct {
	engine  *Flashcards
	rng     *rand.Rand
	ownerID string

	phase    Phase
	scope    Scope
	cards    []db.Word
	index    int
	score    int
	flipped  bool
	reason   string
	reverted map[int]bool
}

// Begin applies scope to all and starts playing. It reports false, staying in
// the scope-choosing phase with a Reason, when no learned word matches.
func (s *FlashcardSession) Begin(all []db.Word, scope Scope, now time.Time, loc *time.Location) bool {
	if s.phase != PhaseChoosingScope {
		return false
	}
	s.scope = scope
	return s.start(SelectScope(all, scope, now, loc))
}

func (s *FlashcardSession) start(words []db.Word) bool {
	s.cards = Shuffle(s.rng, db.CloneWords(words))
	s.index, s.score, s.flipped = 0, 0, false
	s.reverted = make(map[int]bool)
	if len(s.cards) == 0 {
		s.phase = PhaseChoosingScope
		s.reason = NoLearnedWordsReason
		return false
	}
	s.reason = ""
	s.phase = PhasePlaying
	return true
}

// Phase returns the current phase.
func (s *FlashcardSession) Phase() Phase { return s.phase }

// Reason explains why the last Begin produced no cards.
func (s *FlashcardSession) Reason() string { return s.reason }

// Empty reports whether the last start found no words to quiz.
func (s *FlashcardSession) Empty() bool { return s.reason != "" }

// Cards returns a copy of the session's shuffled words.
func (s *FlashcardSession) Cards() []db.Word { return db.CloneWords(s.cards) }

// Current returns the word being asked.
func (s *FlashcardSession) Current() (db.Word, bool) {
	if s.phase != PhasePlaying || s.index >= len(s.cards) {
		return db.Word{}, false
	}
	return s.cards[s.index].Clone(), true
}

// Flip toggles whether the definition and example are revealed.
func (s *FlashcardSession) Flip() error {
	if s.phase != PhasePlaying {
		return ErrWrongPhase
	}
	s.flipped = !s.flipped
	return nil
}

// Sentence picks one example sentence of the current word at random and splits it.
// A new sentence may be chosen on every call.
func (s *FlashcardSession) Sentence() (Split, bool) {
	card, ok := s.Current()
	if !ok || len(card.ExampleSentences) == 0 {
		return Split{}, false
	}
	sentence := card.ExampleSentences[s.rng.IntN(len(card.ExampleSentences))]
	return SplitSentence(sentence, s.engine.terminators), true
}

// AnswerResult describes the effects of one answer.
type AnswerResult struct {
	KnewIt   bool   `json:"knewIt"`
	Reverted bool   `json:"reverted"`
	Notice   string `json:"notice,omitempty"`
	Finished bool   `json:"finished"`
}

// Answer records whether the user knew the current word and advances.
//
// Not knowing a learned word reverts its learned flag in the store, at most once
// per question. A failed write is logged and reported as a Notice; the session
// still advances.
func (s *FlashcardSession) Answer(ctx context.Context, knewIt bool) (AnswerResult, error) {
	if s.phase != PhasePlaying {
		return AnswerResult{}, ErrWrongPhase
	}

	result := AnswerResult{KnewIt: knewIt}
	card := &s.cards[s.index]
	if knewIt {
		s.score++
	} else if card.Learned && !s.reverted[s.index] {
		s.reverted[s.index] = true
		card.Learned = false
		if s.engine.store != nil {
			if err := s.engine.store.SetLearned(ctx, s.ownerID, card.ID, false); err != nil {
				s.engine.logger.Warn("failed to revert learned flag",
					"owner_id", s.ownerID,
					"word_id", card.ID,
					"error", err,
				)
				result.Notice = "Could not update the learned status of " + card.Headword + "."
			} else {
				result.Reverted = true
			}
		}
	}

	s.index++
	s.flipped = false
	if s.index >= len(s.cards) {
		s.phase = PhaseFinished
		result.Finished = true
	}
	return result, nil
}

// Restart returns a finished session to scope selection.
func (s *FlashcardSession) Restart() error {
	if s.phase != PhaseFinished {
		return ErrWrongPhase
	}
	s.phase = PhaseChoosingScope
	s.cards = nil
	s.index, s.score, s.flipped = 0, 0, false
	s.reason = ""
	return nil
}

// FlashcardState is a read-only view of a session for rendering.
type FlashcardState struct {
	Phase   Phase    `json:"phase"`
	Scope   Scope    `json:"scope"`
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Score   int      `json:"score"`
	Flipped bool     `json:"flipped"`
	Card    *db.Word `json:"card,omitempty"`
	Example *Split   `json:"example,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// State snapshots the session. The example sentence is re-chosen on every call.
func (s *FlashcardSession) State() FlashcardState {
	st := FlashcardState{
		Phase:   s.phase,
		Scope:   s.scope,
		Index:   s.index,
		Total:   len(s.cards),
		Score:   s.score,
		Flipped: s.flipped,
		Reason:  s.reason,
	}
	if card, ok := s.Current(); ok {
		st.Card = &card
		if split, ok := s.Sentence(); ok {
			st.Example = &split
		}
	}
	return st
}
