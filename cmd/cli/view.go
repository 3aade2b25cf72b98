package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kotoba-study/kotoba/internal/quiz"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	normalStyle = lipgloss.NewStyle()

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 3).
			Width(48).
			Align(lipgloss.Center)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

const title = "Kotoba - Japanese Vocabulary Study"

func (m model) View() string {
	switch m.view {
	case viewMenu:
		return m.renderMenu()
	case viewScope:
		return m.renderScope()
	case viewFlashcards:
		return m.renderFlashcards()
	case viewFill:
		return m.renderFill()
	case viewDashboard:
		return m.renderDashboard()
	case viewAddWord:
		return m.renderAddWord()
	case viewInput:
		return m.renderInput()
	case viewLoading:
		return m.renderLoading()
	case viewResults:
		return m.renderResults()
	}
	return m.renderMenu()
}

func renderList(s *strings.Builder, items []string, cursor int) {
	for i, item := range items {
		if cursor == i {
			s.WriteString(selectedStyle.Render("> " + item))
		} else {
			s.WriteString(normalStyle.Render("  " + item))
		}
		s.WriteString("\n")
	}
}

func (m model) renderMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	renderList(&s, menuItems, m.cursor)
	s.WriteString("\n\n")
	s.WriteString(mutedStyle.Render("Use ↑/↓ arrows or j/k to navigate, Enter to select, q to quit"))

	return menuStyle.Render(s.String())
}

func (m model) renderScope() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Flashcards - choose a scope"))
	s.WriteString("\n\n")
	labels := make([]string, len(scopeChoices))
	for i, c := range scopeChoices {
		labels[i] = c.label
	}
	renderList(&s, labels, m.cursor)

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else if m.flashcards != nil && m.flashcards.Empty() {
		s.WriteString("\n")
		s.WriteString(mutedStyle.Render(m.flashcards.Reason()))
	}

	s.WriteString("\n\n")
	s.WriteString(mutedStyle.Render("Enter to start, Esc for menu"))
	return menuStyle.Render(s.String())
}

func (m model) renderFlashcards() string {
	var s strings.Builder
	st := m.flashcards.State()

	if st.Phase == quiz.PhaseFinished {
		s.WriteString(titleStyle.Render("Flashcards - finished"))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render(fmt.Sprintf("You knew %d of %d words", st.Score, st.Total)))
		m.renderNotices(&s)
		s.WriteString("\n\n")
		s.WriteString(mutedStyle.Render("r to choose another scope, Enter for menu"))
		return menuStyle.Render(s.String())
	}

	s.WriteString(titleStyle.Render(fmt.Sprintf("Flashcards  %d/%d  score %d", st.Index+1, st.Total, st.Score)))
	s.WriteString("\n\n")

	var card strings.Builder
	if st.Card != nil {
		card.WriteString(lipgloss.NewStyle().Bold(true).Render(st.Card.Headword))
		if st.Flipped {
			if st.Card.Reading != "" {
				card.WriteString("\n" + st.Card.Reading)
			}
			if st.Card.Definition != "" {
				card.WriteString("\n\n" + st.Card.Definition)
			}
			if st.Example != nil {
				card.WriteString("\n\n" + st.Example.Target)
				if st.Example.Gloss != "" {
					card.WriteString("\n" + mutedStyle.Render(st.Example.Gloss))
				}
			}
		}
	}
	s.WriteString(cardStyle.Render(card.String()))
	m.renderNotices(&s)
	s.WriteString("\n\n")
	s.WriteString(mutedStyle.Render("Space to flip, y knew it, n didn't know, Esc for menu"))
	return menuStyle.Render(s.String())
}

func (m model) renderNotices(s *strings.Builder) {
	if m.notice != "" {
		s.WriteString("\n\n")
		s.WriteString(mutedStyle.Render(m.notice))
	}
	if m.err != nil {
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}
}

func (m model) renderFill() string {
	var s strings.Builder
	st := m.fill.State()

	if m.fillQuiz.InsufficientData {
		s.WriteString(titleStyle.Render("Fill in the blank"))
		s.WriteString("\n\n")
		s.WriteString(m.fillQuiz.Reason)
		s.WriteString("\n\n")
		s.WriteString(mutedStyle.Render("Press Enter to return to menu"))
		return menuStyle.Render(s.String())
	}

	if st.Phase == quiz.PhaseFinished {
		s.WriteString(titleStyle.Render("Fill in the blank - finished"))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render(fmt.Sprintf("Score: %d / %d", st.Score, st.Total)))
		s.WriteString("\n\n")
		s.WriteString(mutedStyle.Render("Press Enter to return to menu"))
		return menuStyle.Render(s.String())
	}

	s.WriteString(titleStyle.Render(fmt.Sprintf("Fill in the blank  %d/%d  score %d", st.Index+1, st.Total, st.Score)))
	s.WriteString("\n\n")
	s.WriteString(cardStyle.Render(st.Blanked))
	s.WriteString("\n\n")

	if st.Phase == quiz.PhaseFeedback && st.Feedback != nil {
		for _, opt := range st.Options {
			switch {
			case opt == st.Feedback.Answer:
				s.WriteString(successStyle.Render("✓ " + opt))
			case opt == st.Feedback.Selected:
				s.WriteString(errorStyle.Render("✗ " + opt))
			default:
				s.WriteString(normalStyle.Render("  " + opt))
			}
			s.WriteString("\n")
		}
		s.WriteString("\n")
		if st.Feedback.Correct {
			s.WriteString(successStyle.Render("Correct!"))
		} else {
			s.WriteString(errorStyle.Render("The answer was " + st.Feedback.Answer))
		}
		s.WriteString("\n\n")
		s.WriteString(mutedStyle.Render("Press Enter for the next question"))
		return menuStyle.Render(s.String())
	}

	renderList(&s, st.Options, m.cursor)
	s.WriteString("\n")
	s.WriteString(mutedStyle.Render("↑/↓ to choose, Enter to answer, Esc for menu"))
	return menuStyle.Render(s.String())
}

func (m model) renderDashboard() string {
	var s strings.Builder
	sum := m.summary

	s.WriteString(titleStyle.Render("Dashboard"))
	s.WriteString("\n\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\nPress Enter to return to menu")
		return menuStyle.Render(s.String())
	}

	s.WriteString(fmt.Sprintf("Words: %d   Learned: %d\n", sum.Total, sum.Learned))
	s.WriteString(fmt.Sprintf("Today: %d / %d   Streak: %d days\n", sum.TodayCount, sum.DailyGoal, sum.CurrentStreak))
	s.WriteString(fmt.Sprintf("Studying for %d days\n", sum.DaysSinceFirstEntry))
	s.WriteString(fmt.Sprintf("Easy %d  Medium %d  Hard %d\n\n", sum.Difficulty.Easy, sum.Difficulty.Medium, sum.Difficulty.Hard))

	daily := sum.Daily
	if len(daily) > 7 {
		daily = daily[len(daily)-7:]
	}
	for _, d := range daily {
		s.WriteString(fmt.Sprintf("%s %s %d\n", d.Date, barStyle.Render(strings.Repeat("█", min(d.Count, 30))), d.Count))
	}

	if len(sum.GoalMetDays) > 0 {
		s.WriteString("\nGoal met on:\n")
		for i, d := range sum.GoalMetDays {
			if i >= 5 {
				s.WriteString(fmt.Sprintf("... and %d more days\n", len(sum.GoalMetDays)-5))
				break
			}
			s.WriteString(fmt.Sprintf("  %s (%d words)\n", d.Date, d.Count))
		}
	}

	s.WriteString("\n")
	s.WriteString(mutedStyle.Render("Press Enter to return to menu"))
	return menuStyle.Render(s.String())
}

func (m model) renderAddWord() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Add word"))
	s.WriteString("\n\n")
	for i, f := range m.fields {
		label := fmt.Sprintf("%-18s", wordFields[i])
		if i == m.focus {
			label = selectedStyle.Render(label)
		}
		s.WriteString(label + " " + f.View() + "\n")
	}
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	s.WriteString("\n\n")
	s.WriteString(mutedStyle.Render("Tab to move, Enter on the last field to save, Esc to cancel"))
	return menuStyle.Render(s.String())
}

func (m model) renderLoading() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(m.spinner.View())
	s.WriteString(" " + m.message)

	return menuStyle.Render(s.String())
}

func (m model) renderInput() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(m.input.View())
	s.WriteString("\n\n")
	s.WriteString(mutedStyle.Render("Press Enter to submit, Esc to cancel"))

	return menuStyle.Render(s.String())
}

func (m model) renderResults() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Results"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.imported != nil:
		s.WriteString(successStyle.Render("Import finished"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("New words added: %d\n", m.imported.NewWords))
		s.WriteString(fmt.Sprintf("Duplicates skipped: %d\n", m.imported.SkippedDuplicates))
		s.WriteString(fmt.Sprintf("Total processed: %d\n", m.imported.TotalProcessed))
	case m.message != "":
		s.WriteString(successStyle.Render(m.message))
	}

	s.WriteString("\n\nPress Enter to return to menu")
	return menuStyle.Render(s.String())
}
