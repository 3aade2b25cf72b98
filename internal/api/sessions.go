package api

import (
	"context"
	"errors"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/kotoba-study/kotoba/internal/quiz"
)

const defaultSessionTTL = 2 * time.Hour

var errSessionNotFound = errors.New("quiz session not found")

// sessionEntry holds one quiz session. Sessions are not safe for concurrent
// use, so every access goes through mu.
type sessionEntry struct {
	mu       sync.Mutex
	ownerID  string
	lastSeen time.Time

	flashcards *quiz.FlashcardSession
	fill       *quiz.FillSession
}

// Sessions is an in-memory registry of quiz sessions that expire after
// ttl of inactivity.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*sessionEntry
	now     func() time.Time
}

// NewSessions creates a registry. A non-positive ttl selects two hours.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{ttl: ttl, entries: make(map[string]*sessionEntry), now: time.Now}
}

func (s *Sessions) add(e *sessionEntry) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.lastSeen = s.now()
	s.entries[id] = e
	return id, nil
}

// AddFlashcards registers a flashcard session for ownerID and returns its ID.
func (s *Sessions) AddFlashcards(ownerID string, fs *quiz.FlashcardSession) (string, error) {
	return s.add(&sessionEntry{ownerID: ownerID, flashcards: fs})
}

// AddFill registers a fill-in-the-blank session for ownerID and returns its ID.
func (s *Sessions) AddFill(ownerID string, fs *quiz.FillSession) (string, error) {
	return s.add(&sessionEntry{ownerID: ownerID, fill: fs})
}

// get returns a live session of ownerID. Sessions of other owners are
// reported as missing.
func (s *Sessions) get(ownerID, id string) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.ownerID != ownerID {
		return nil, errSessionNotFound
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.entries, id)
		return nil, errSessionNotFound
	}
	e.lastSeen = now
	return e, nil
}

// WithFlashcards runs fn with exclusive access to a flashcard session.
func (s *Sessions) WithFlashcards(ownerID, id string, fn func(*quiz.FlashcardSession) error) error {
	e, err := s.get(ownerID, id)
	if err != nil {
		return err
	}
	if e.flashcards == nil {
		return errSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.flashcards)
}

// WithFill runs fn with exclusive access to a fill-in-the-blank session.
func (s *Sessions) WithFill(ownerID, id string, fn func(*quiz.FillSession) error) error {
	e, err := s.get(ownerID, id)
	if err != nil {
		return err
	}
	if e.fill == nil {
		return errSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.fill)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of registered sessions, expired ones included.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps expired sessions until ctx is done.
func (s *Sessions) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}
