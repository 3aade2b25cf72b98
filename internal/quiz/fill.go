package quiz

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/kotoba-study/kotoba/internal/db"
)

// Reasons reported with an insufficient fill-in-the-blank quiz.
const (
	NoSentencesReason   = "None of your words have example sentences yet. Add or generate some first."
	TooFewWordsReason   = "Not enough words to build multiple-choice options. Add more words first."
	NoQuestionsReason   = "None of your example sentences contain their word, so no questions could be built."
	placeholderTemplate = "Option "
)

// FillQuestion is one fill-in-the-blank question.
type FillQuestion struct {
	WordID   string   `json:"wordId"`
	Sentence string   `json:"sentence"`
	Blanked  string   `json:"blanked"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// FillQuiz is the result of building a fill-in-the-blank quiz. When
// InsufficientData is set, Questions is empty and Reason explains why.
type FillQuiz struct {
	Questions        []FillQuestion `json:"questions"`
	InsufficientData bool           `json:"insufficientData"`
	Reason           string         `json:"reason,omitempty"`
}

// FillBuilder builds fill-in-the-blank quizzes. It is safe for concurrent use.
type FillBuilder struct {
	mu      sync.Mutex
	rng     *rand.Rand
	matcher Matcher
}

// NewFillBuilder creates a builder. A nil matcher defaults to BoundaryMatcher.
func NewFillBuilder(rng *rand.Rand, matcher Matcher) *FillBuilder {
	if rng == nil {
		rng = NewRand()
	}
	if matcher == nil {
		matcher = BoundaryMatcher{}
	}
	return &FillBuilder{rng: rng, matcher: matcher}
}

// Build creates up to maxQuestions questions with optionCount options each from
// words. maxQuestions <= 0 means no limit; optionCount is at least 1.
func (b *FillBuilder) Build(words []db.Word, maxQuestions, optionCount int) FillQuiz {
	b.mu.Lock()
	defer b.mu.Unlock()

	if optionCount < 1 {
		optionCount = 1
	}

	snapshot := db.CloneWords(words)
	// The blanked text, the answer and the options all use the trimmed headword.
	for i := range snapshot {
		snapshot[i].Headword = strings.TrimSpace(snapshot[i].Headword)
	}
	var candidates []db.Word
	for _, w := range snapshot {
		if len(w.ExampleSentences) > 0 {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return insufficient(NoSentencesReason)
	}
	if len(snapshot) < optionCount {
		return insufficient(TooFewWordsReason)
	}

	candidates = Shuffle(b.rng, candidates)
	if maxQuestions > 0 && len(candidates) > maxQuestions {
		candidates = candidates[:maxQuestions]
	}

	questions := []FillQuestion{}
	for _, w := range candidates {
		sentence := w.ExampleSentences[b.rng.IntN(len(w.ExampleSentences))]
		blanked, ok := b.matcher.Blank(sentence, w.Headword)
		if !ok {
			continue
		}
		questions = append(questions, FillQuestion{
			WordID:   w.ID,
			Sentence: sentence,
			Blanked:  blanked,
			Options:  b.options(w, snapshot, optionCount),
			Answer:   w.Headword,
		})
	}
	if len(questions) == 0 {
		return insufficient(NoQuestionsReason)
	}
	return FillQuiz{Questions: questions}
}

func insufficient(reason string) FillQuiz {
	return FillQuiz{Questions: []FillQuestion{}, InsufficientData: true, Reason: reason}
}

// options returns the shuffled correct answer plus optionCount-1 distinct distractors.
func (b *FillBuilder) options(target db.Word, all []db.Word, optionCount int) []string {
	seen := map[string]bool{target.Headword: true}
	opts := []string{target.Headword}

	for _, w := range Shuffle(b.rng, all) {
		if len(opts) == optionCount {
			break
		}
		if w.ID == target.ID || seen[w.Headword] {
			continue
		}
		seen[w.Headword] = true
		opts = append(opts, w.Headword)
	}

	for n := 1; len(opts) < optionCount; n++ {
		p := placeholderTemplate + strconv.Itoa(n)
		if seen[p] {
			continue
		}
		seen[p] = true
		opts = append(opts, p)
	}

	return Shuffle(b.rng, opts)
}

// Feedback is the outcome of submitting an option.
type Feedback struct {
	Selected string `json:"selected"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
}

// FillSession drives a built quiz: playing, feedback after each submission,
// then finished after the last question.
type FillSession struct {
	questions []FillQuestion
	index     int
	score     int
	phase     Phase
	last      *Feedback
}

// NewFillSession starts a session over quiz. An insufficient quiz yields a
// session that is already finished.
func NewFillSession(quiz FillQuiz) *FillSession {
	s := &FillSession{questions: quiz.Questions, phase: PhasePlaying}
	if len(s.questions) == 0 {
		s.phase = PhaseFinished
	}
	return s
}

// Phase returns the current phase.
func (s *FillSession) Phase() Phase { return s.phase }

// Score returns the number of correct submissions.
func (s *FillSession) Score() int { return s.score }

// Current returns the question being asked or awaiting Next.
func (s *FillSession) Current() (FillQuestion, bool) {
	if s.phase == PhaseFinished || s.index >= len(s.questions) {
		return FillQuestion{}, false
	}
	return s.questions[s.index], true
}

// Submit checks option against the current answer by exact string equality.
func (s *FillSession) Submit(option string) (Feedback, error) {
	if s.phase != PhasePlaying {
		return Feedback{}, ErrWrongPhase
	}
	q := s.questions[s.index]
	fb := Feedback{Selected: option, Answer: q.Answer, Correct: option == q.Answer}
	if fb.Correct {
		s.score++
	}
	s.last = &fb
	s.phase = PhaseFeedback
	return fb, nil
}

// Next leaves feedback and moves to the following question, finishing after the last.
func (s *FillSession) Next() error {
	if s.phase != PhaseFeedback {
		return ErrWrongPhase
	}
	s.index++
	s.last = nil
	if s.index >= len(s.questions) {
		s.phase = PhaseFinished
		return nil
	}
	s.phase = PhasePlaying
	return nil
}

// FillState is a read-only view of a fill session. The answer of the current
// question is only included once it has been submitted.
type FillState struct {
	Phase    Phase     `json:"phase"`
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Score    int       `json:"score"`
	Blanked  string    `json:"blanked,omitempty"`
	Options  []string  `json:"options,omitempty"`
	Feedback *Feedback `json:"feedback,omitempty"`
}

// State snapshots the session.
func (s *FillSession) State() FillState {
	st := FillState{
		Phase: s.phase,
		Index: s.index,
		Total: len(s.questions),
		Score: s.score,
	}
	if q, ok := s.Current(); ok {
		st.Blanked = q.Blanked
		st.Options = append([]string(nil), q.Options...)
	}
	if s.last != nil {
		fb := *s.last
		st.Feedback = &fb
	}
	return st
}
