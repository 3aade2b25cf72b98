package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kotoba-study/kotoba/internal/core"
	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/progress"
	"github.com/kotoba-study/kotoba/internal/quiz"
)

type view int

const (
	viewMenu view = iota
	viewScope
	viewFlashcards
	viewFill
	viewDashboard
	viewAddWord
	viewInput
	viewLoading
	viewResults
)

type inputMode int

const (
	inputModeFilePath inputMode = iota
	inputModeExportPath
)

var menuItems = []string{
	"Flashcards",
	"Fill in the blank",
	"Dashboard",
	"Add word",
	"Import document",
	"Export to JSON",
	"Exit",
}

type scopeChoice struct {
	label string
	scope quiz.Scope
}

var scopeChoices = []scopeChoice{
	{"All learned words", quiz.Scope{Kind: quiz.ScopeAll}},
	{"Learned words added today", quiz.Scope{Kind: quiz.ScopeToday}},
	{"Easy", quiz.Scope{Kind: quiz.ScopeDifficulty, Difficulty: db.DifficultyEasy}},
	{"Medium", quiz.Scope{Kind: quiz.ScopeDifficulty, Difficulty: db.DifficultyMedium}},
	{"Hard", quiz.Scope{Kind: quiz.ScopeDifficulty, Difficulty: db.DifficultyHard}},
}

var wordFields = []string{"Headword", "Reading", "Definition", "Example sentence"}

// importResultMsg carries the result of an async document import
type importResultMsg struct {
	result *core.ImportResult
	err    error
}

// wordSavedMsg carries the result of an async word save
type wordSavedMsg struct {
	word db.Word
	err  error
}

type model struct {
	svc     *core.Service
	ownerID string

	view    view
	cursor  int
	err     error
	notice  string
	message string

	flashcards *quiz.FlashcardSession
	fill       *quiz.FillSession
	fillQuiz   quiz.FillQuiz
	feedback   *quiz.Feedback
	summary    progress.Summary
	imported   *core.ImportResult

	fields    []textinput.Model
	focus     int
	input     textinput.Model
	inputMode inputMode
	spinner   spinner.Model
}

func newModel(svc *core.Service, ownerID string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	fields := make([]textinput.Model, len(wordFields))
	for i, name := range wordFields {
		fields[i] = textinput.New()
		fields[i].Placeholder = name
		fields[i].CharLimit = 200
	}
	fields[len(fields)-1].CharLimit = 500

	return model{
		svc:     svc,
		ownerID: ownerID,
		view:    viewMenu,
		fields:  fields,
		input:   textinput.New(),
		spinner: s,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) toMenu() model {
	m.view = viewMenu
	m.cursor = 0
	m.err = nil
	m.notice = ""
	m.input.Reset()
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case importResultMsg:
		m.err = msg.err
		m.imported = msg.result
		m.message = ""
		m.view = viewResults
		return m, nil

	case wordSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = viewAddWord
			return m, m.fields[m.focus].Focus()
		}
		m.imported = nil
		m.message = "Saved " + msg.word.Headword
		m.view = viewResults
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.view != viewLoading {
				return m.toMenu(), nil
			}
			return m, nil
		}

		switch m.view {
		case viewMenu:
			return m.updateMenu(msg)
		case viewScope:
			return m.updateScope(msg)
		case viewFlashcards:
			return m.updateFlashcards(msg)
		case viewFill:
			return m.updateFill(msg)
		case viewAddWord:
			return m.updateAddWord(msg)
		case viewInput:
			if msg.String() == "enter" {
				return m.handleInputSubmission()
			}
		case viewDashboard, viewResults:
			if msg.String() == "enter" || msg.String() == "q" {
				return m.toMenu(), nil
			}
			return m, nil
		}
	}

	if m.view == viewInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}
	case "enter":
		return m.handleMenuSelection()
	}
	return m, nil
}

func (m model) handleMenuSelection() (tea.Model, tea.Cmd) {
	ctx := context.Background()
	m.err = nil

	switch m.cursor {
	case 0: // Flashcards
		m.view = viewScope
		m.cursor = 0

	case 1: // Fill in the blank
		fq, err := m.svc.BuildFillQuiz(ctx, m.ownerID)
		if err != nil {
			m.err = err
			m.view = viewResults
			return m, nil
		}
		m.fillQuiz = fq
		m.fill = quiz.NewFillSession(fq)
		m.feedback = nil
		m.cursor = 0
		m.view = viewFill

	case 2: // Dashboard
		summary, err := m.svc.Progress(ctx, m.ownerID)
		m.err = err
		m.summary = summary
		m.view = viewDashboard

	case 3: // Add word
		for i := range m.fields {
			m.fields[i].Reset()
			m.fields[i].Blur()
		}
		m.focus = 0
		m.view = viewAddWord
		return m, m.fields[0].Focus()

	case 4: // Import document
		m.view = viewInput
		m.inputMode = inputModeFilePath
		m.input.Placeholder = "Enter file path (PDF, DOCX or text)"
		m.input.Focus()
		return m, textinput.Blink

	case 5: // Export to JSON
		m.view = viewInput
		m.inputMode = inputModeExportPath
		m.input.Placeholder = "Enter export file path (default: kotoba_words.json)"
		m.input.Focus()
		return m, textinput.Blink

	case 6: // Exit
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateScope(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(scopeChoices)-1 {
			m.cursor++
		}
	case "enter":
		session, err := m.svc.StartFlashcards(context.Background(), m.ownerID, scopeChoices[m.cursor].scope)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.notice = ""
		m.flashcards = session
		if session.Empty() {
			// Stay on the scope list; the reason is rendered there.
			return m, nil
		}
		m.view = viewFlashcards
	}
	return m, nil
}

func (m model) updateFlashcards(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.flashcards
	if s.Phase() == quiz.PhaseFinished {
		switch msg.String() {
		case "r":
			if err := s.Restart(); err != nil {
				m.err = err
				return m, nil
			}
			m.view = viewScope
			m.cursor = 0
		case "enter", "q":
			return m.toMenu(), nil
		}
		return m, nil
	}

	switch msg.String() {
	case " ", "f":
		m.err = s.Flip()
	case "y":
		res, err := s.Answer(context.Background(), true)
		m.err = err
		m.notice = res.Notice
	case "n":
		res, err := s.Answer(context.Background(), false)
		m.err = err
		m.notice = res.Notice
	}
	return m, nil
}

func (m model) updateFill(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.fill
	switch s.Phase() {
	case quiz.PhaseFinished:
		if msg.String() == "enter" || msg.String() == "q" {
			return m.toMenu(), nil
		}

	case quiz.PhaseFeedback:
		if msg.String() == "enter" {
			if err := s.Next(); err != nil {
				m.err = err
				return m, nil
			}
			m.feedback = nil
			m.cursor = 0
		}

	case quiz.PhasePlaying:
		q, _ := s.Current()
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(q.Options)-1 {
				m.cursor++
			}
		case "enter":
			fb, err := s.Submit(q.Options[m.cursor])
			if err != nil {
				m.err = err
				return m, nil
			}
			m.feedback = &fb
		}
	}
	return m, nil
}

func (m model) updateAddWord(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m.focusField(m.focus + 1)
	case "shift+tab", "up":
		return m.focusField(m.focus - 1)
	case "enter":
		if m.focus < len(m.fields)-1 {
			return m.focusField(m.focus + 1)
		}
		return m.saveWord()
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m model) focusField(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.fields) {
		return m, nil
	}
	m.fields[m.focus].Blur()
	m.focus = i
	return m, m.fields[i].Focus()
}

func (m model) saveWord() (tea.Model, tea.Cmd) {
	in := core.WordInput{
		Headword:   m.fields[0].Value(),
		Reading:    m.fields[1].Value(),
		Definition: m.fields[2].Value(),
	}
	if s := strings.TrimSpace(m.fields[3].Value()); s != "" {
		in.ExampleSentences = []string{s}
	}

	m.err = nil
	m.view = viewLoading
	m.message = "Saving word..."
	svc, owner := m.svc, m.ownerID
	save := func() tea.Msg {
		w, err := svc.AddWord(context.Background(), owner, in)
		return wordSavedMsg{word: w, err: err}
	}
	return m, tea.Batch(save, m.spinner.Tick)
}

func (m model) handleInputSubmission() (tea.Model, tea.Cmd) {
	inputValue := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.err = nil
	m.imported = nil

	switch m.inputMode {
	case inputModeFilePath:
		m.view = viewLoading
		m.message = "Extracting vocabulary with AI..."
		svc, owner := m.svc, m.ownerID
		importCmd := func() tea.Msg {
			result, err := svc.ImportFile(context.Background(), owner, inputValue)
			return importResultMsg{result: result, err: err}
		}
		return m, tea.Batch(importCmd, m.spinner.Tick)

	case inputModeExportPath:
		if inputValue == "" {
			inputValue = "kotoba_words.json"
		}
		if err := m.svc.ExportWords(context.Background(), m.ownerID, inputValue); err != nil {
			m.err = err
		} else {
			m.message = "Exported to " + inputValue
		}
		m.view = viewResults
	}
	return m, nil
}
