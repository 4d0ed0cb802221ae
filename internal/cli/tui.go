package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// SearchModel - Live search progress
// =============================================================================

// attemptMsg carries one search attempt's outcome into the TUI.
type attemptMsg struct {
	Attempt    int
	Placed     int
	Violations int
}

// searchDoneMsg ends the TUI when the search completes.
type searchDoneMsg struct {
	Err error
}

// SearchModel is the bubbletea model for live placement-search progress.
type SearchModel struct {
	Budget     int // attempt budget
	TotalItems int

	attempt     int
	bestPlaced  int
	bestViols   int
	haveAttempt bool
	done        bool
	cancelled   bool
}

// NewSearchModel creates a search progress model.
func NewSearchModel(budget, totalItems int) SearchModel {
	return SearchModel{Budget: budget, TotalItems: totalItems}
}

func (m SearchModel) Init() tea.Cmd {
	return nil
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case attemptMsg:
		m.attempt = msg.Attempt
		// Track the best candidate: more placed wins, then fewer findings.
		if !m.haveAttempt ||
			msg.Placed > m.bestPlaced ||
			(msg.Placed == m.bestPlaced && msg.Violations < m.bestViols) {
			m.bestPlaced = msg.Placed
			m.bestViols = msg.Violations
		}
		m.haveAttempt = true
	case searchDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// Cancelled reports whether the user quit before the search finished.
func (m SearchModel) Cancelled() bool {
	return m.cancelled
}

func (m SearchModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Searching placements"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	b.WriteString("  " + progressBar(m.attempt+1, m.Budget, 32))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  attempt %d/%d", m.attempt+1, m.Budget)))
	b.WriteString("\n")

	if m.haveAttempt {
		placed := fmt.Sprintf("%d/%d placed", m.bestPlaced, m.TotalItems)
		findings := fmt.Sprintf("%d finding(s)", m.bestViols)
		style := StyleWarning
		if m.bestPlaced == m.TotalItems && m.bestViols == 0 {
			style = StyleSuccess
		}
		b.WriteString("  " + style.Render("best: "+placed+", "+findings))
		b.WriteString("\n")
	}

	return b.String()
}

// progressBar renders a fixed-width unicode bar.
func progressBar(current, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if current > total {
		current = total
	}
	filled := current * width / total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(colorCyan).Render(bar)
}
