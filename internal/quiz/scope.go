package quiz

import (
	"fmt"
	"time"

	"github.com/kotoba-study/kotoba/internal/db"
)

// ScopeKind selects which learned words a flashcard session covers.
type ScopeKind string

const (
	ScopeAll        ScopeKind = "all"
	ScopeToday      ScopeKind = "today"
	ScopeDifficulty ScopeKind = "difficulty"
)

// Scope narrows the learned words eligible for a flashcard session.
type Scope struct {
	Kind       ScopeKind     `json:"kind"`
	Difficulty db.Difficulty `json:"difficulty,omitempty"`
}

// Validate checks that the scope is well formed.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeAll, ScopeToday:
		return nil
	case ScopeDifficulty:
		if !s.Difficulty.Valid() {
			return fmt.Errorf("unknown difficulty %q", s.Difficulty)
		}
		return nil
	}
	return fmt.Errorf("unknown scope %q", s.Kind)
}

// SelectScope returns the learned words matching scope, preserving input order.
// "Today" is the calendar day of now in loc.
func SelectScope(words []db.Word, scope Scope, now time.Time, loc *time.Location) []db.Word {
	if loc == nil {
		loc = time.UTC
	}
	today := DayOf(now, loc)

	out := []db.Word{}
	for _, w := range words {
		if !w.Learned {
			continue
		}
		switch scope.Kind {
		case ScopeDifficulty:
			if w.Difficulty != scope.Difficulty {
				continue
			}
		case ScopeToday:
			if !DayOf(w.CreatedAt, loc).Equal(today) {
				continue
			}
		}
		out = append(out, w)
	}
	return out
}

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
