package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kotoba-study/kotoba/internal/core"
	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/quiz"
)

func setupModel(t *testing.T) model {
	t.Helper()
	database, err := db.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := ensureProfile(context.Background(), database); err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	// Running twice must be harmless.
	if err := ensureProfile(context.Background(), database); err != nil {
		t.Fatalf("Second ensureProfile failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := core.NewService(database, nil, nil, core.Options{QuizOptions: 2}, logger)
	return newModel(svc, profileID)
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

// TestFlashcardsFromMenu tests a flashcard run driven by key presses
func TestFlashcardsFromMenu(t *testing.T) {
	m := setupModel(t)
	ctx := context.Background()

	m = press(t, m, "enter", "enter")
	if m.view != viewScope || m.flashcards == nil || !m.flashcards.Empty() {
		t.Fatalf("Expected empty scope message, view=%v", m.view)
	}

	if _, err := m.svc.AddWord(ctx, profileID, core.WordInput{Headword: "猫", Learned: true}); err != nil {
		t.Fatalf("Failed to add word: %v", err)
	}
	m = press(t, m, "enter")
	if m.view != viewFlashcards {
		t.Fatalf("Expected flashcards view, got %v", m.view)
	}

	m = press(t, m, "f", "y")
	if m.flashcards.Phase() != quiz.PhaseFinished {
		t.Fatalf("Expected finished, got %s", m.flashcards.Phase())
	}
	if st := m.flashcards.State(); st.Score != 1 {
		t.Errorf("Expected score 1, got %d", st.Score)
	}

	m = press(t, m, "enter")
	if m.view != viewMenu {
		t.Errorf("Expected menu, got %v", m.view)
	}
}

// TestFlashcardActionErrorsShown tests that a rejected flashcard action is surfaced
func TestFlashcardActionErrorsShown(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, "enter", "enter")
	if m.flashcards == nil || m.flashcards.Phase() != quiz.PhaseChoosingScope {
		t.Fatalf("Expected a session waiting for a scope, view=%v", m.view)
	}

	m.view = viewFlashcards
	m = press(t, m, "f")
	if !errors.Is(m.err, quiz.ErrWrongPhase) {
		t.Errorf("Expected wrong phase error, got %v", m.err)
	}
	if m.flashcards.State().Flipped {
		t.Error("Card should not flip outside a round")
	}
}

// TestFillFromMenu tests a fill-in-the-blank run driven by key presses
func TestFillFromMenu(t *testing.T) {
	m := setupModel(t)
	ctx := context.Background()
	for _, in := range []core.WordInput{
		{Headword: "cat", ExampleSentences: []string{"The cat sleeps."}},
		{Headword: "dog"},
	} {
		if _, err := m.svc.AddWord(ctx, profileID, in); err != nil {
			t.Fatalf("Failed to add word: %v", err)
		}
	}

	m = press(t, m, "down", "enter")
	if m.view != viewFill || m.fillQuiz.InsufficientData {
		t.Fatalf("Expected a playable quiz, view=%v reason=%q", m.view, m.fillQuiz.Reason)
	}

	q, _ := m.fill.Current()
	for i, opt := range q.Options {
		if opt == "cat" {
			m.cursor = i
		}
	}
	m = press(t, m, "enter")
	if m.feedback == nil || !m.feedback.Correct {
		t.Fatalf("Expected correct feedback, got %+v", m.feedback)
	}

	m = press(t, m, "enter")
	if m.fill.Phase() != quiz.PhaseFinished {
		t.Errorf("Expected finished, got %s", m.fill.Phase())
	}
}

// TestDashboardFromMenu tests opening the dashboard
func TestDashboardFromMenu(t *testing.T) {
	m := setupModel(t)
	if _, err := m.svc.AddWord(context.Background(), profileID, core.WordInput{Headword: "花"}); err != nil {
		t.Fatalf("Failed to add word: %v", err)
	}

	m = press(t, m, "down", "down", "enter")
	if m.view != viewDashboard {
		t.Fatalf("Expected dashboard, got %v", m.view)
	}
	if m.summary.Total != 1 || m.summary.TodayCount != 1 {
		t.Errorf("Unexpected summary: %+v", m.summary)
	}
	if m.View() == "" {
		t.Error("Expected dashboard output")
	}
}
