package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderTabs renders the header bar with the active screen highlighted
func (m Model) renderTabs() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff"))
	tabStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Padding(0, 1)
	tabSelectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00d7ff")).Bold(true).Padding(0, 1)

	b.WriteString(titleStyle.Render("aicaps"))
	b.WriteString("  ")

	for _, item := range DefaultMenuItems() {
		label := fmt.Sprintf("[%s] %s", item.Key, item.Label)
		if item.Screen == m.currentScreen {
			b.WriteString(tabSelectedStyle.Render(label))
		} else {
			b.WriteString(tabStyle.Render(label))
		}
	}
	b.WriteString("\n\n")

	return b.String()
}

// renderFooter shows refresh state, the last error and key hints
func (m Model) renderFooter() string {
	var b strings.Builder

	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).MarginTop(1)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Bold(true)

	switch {
	case m.loading:
		b.WriteString(mutedStyle.Render(m.spinner.View() + " Collecting capabilities..."))
	case !m.updated.IsZero():
		b.WriteString(mutedStyle.Render("Updated " + m.updated.Format(time.TimeOnly)))
	}
	b.WriteString("\n")

	if m.lastError != "" {
		b.WriteString(errorStyle.Render("⚠ " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render("Tabs: 1-3, ←/→ | Refresh: r | Help: ? | Quit: q"))
	b.WriteString("\n")

	return b.String()
}

// renderHelpScreen renders the help screen
func (m Model) renderHelpScreen() string {
	var b strings.Builder

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af")).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(1)

	b.WriteString(sectionStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")

	shortcuts := [][2]string{
		{"1-3, ?      ", "Jump to a tab"},
		{"← / →, Tab  ", "Previous / next tab"},
		{"r           ", "Re-run all probes"},
		{"Esc         ", "Back to overview"},
		{"q / Ctrl+C  ", "Quit"},
	}
	for _, s := range shortcuts {
		b.WriteString(keyStyle.Render(s[0]))
		b.WriteString(descStyle.Render(s[1]))
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render("Press Esc to return to the overview"))
	b.WriteString("\n")

	return b.String()
}

// navigateLeft moves to the previous tab
func (m Model) navigateLeft() Model {
	if m.selection > 0 {
		m.selection--
	} else {
		// Wrap to last tab
		m.selection = len(DefaultMenuItems()) - 1
	}
	m.currentScreen = DefaultMenuItems()[m.selection].Screen
	return m
}

// navigateRight moves to the next tab
func (m Model) navigateRight() Model {
	maxIndex := len(DefaultMenuItems()) - 1
	if m.selection < maxIndex {
		m.selection++
	} else {
		// Wrap to first tab
		m.selection = 0
	}
	m.currentScreen = DefaultMenuItems()[m.selection].Screen
	return m
}

// selectMenuByKey handles direct tab selection by key press (1-3, ?)
func (m Model) selectMenuByKey(key string) Model {
	for i, item := range DefaultMenuItems() {
		if item.Key == key {
			m.selection = i
			m.currentScreen = item.Screen
			break
		}
	}
	return m
}
