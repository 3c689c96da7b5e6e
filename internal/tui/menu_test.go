package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel_NavigateRight(t *testing.T) {
	m, _ := newTestModel(t)

	m = m.navigateRight()

	if m.selection != 1 || m.currentScreen != ScreenAccelerators {
		t.Errorf("Expected accelerators tab, got selection %d screen %s", m.selection, m.currentScreen)
	}
}

func TestModel_NavigateRight_WrapAround(t *testing.T) {
	m, _ := newTestModel(t)
	m.selection = len(DefaultMenuItems()) - 1

	m = m.navigateRight()

	if m.selection != 0 || m.currentScreen != ScreenOverview {
		t.Errorf("Expected wrap to overview, got selection %d screen %s", m.selection, m.currentScreen)
	}
}

func TestModel_NavigateLeft_WrapAround(t *testing.T) {
	m, _ := newTestModel(t)

	m = m.navigateLeft()

	expectedIndex := len(DefaultMenuItems()) - 1
	if m.selection != expectedIndex {
		t.Errorf("Expected selection %d (wrap to last), got %d", expectedIndex, m.selection)
	}
	if m.currentScreen != ScreenHelp {
		t.Errorf("Expected help screen, got %s", m.currentScreen)
	}
}

func TestModel_SelectMenuByKey(t *testing.T) {
	tests := []struct {
		key    string
		screen Screen
	}{
		{"1", ScreenOverview},
		{"2", ScreenAccelerators},
		{"3", ScreenFrameworks},
		{"?", ScreenHelp},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, _ := newTestModel(t)
			m = m.selectMenuByKey(tt.key)

			if m.currentScreen != tt.screen {
				t.Errorf("Expected screen %s for key %s, got %s", tt.screen, tt.key, m.currentScreen)
			}
		})
	}
}

func TestModel_SelectMenuByKey_Unknown(t *testing.T) {
	m, _ := newTestModel(t)
	m = m.selectMenuByKey("9")

	if m.currentScreen != ScreenOverview {
		t.Errorf("Unknown key should not change screen, got %s", m.currentScreen)
	}
}

func TestModel_EscapeReturnsToOverview(t *testing.T) {
	m, _ := newTestModel(t)
	m = m.selectMenuByKey("3")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if m.currentScreen != ScreenOverview || m.selection != 0 {
		t.Errorf("Expected overview after Esc, got %s (selection %d)", m.currentScreen, m.selection)
	}
}

func TestRenderTabs_HighlightsCurrent(t *testing.T) {
	m, _ := newTestModel(t)
	tabs := m.renderTabs()

	for _, item := range DefaultMenuItems() {
		if !strings.Contains(tabs, item.Label) {
			t.Errorf("Expected tab %q in header: %s", item.Label, tabs)
		}
	}
}

func TestRenderHelpScreen(t *testing.T) {
	m, _ := newTestModel(t)
	help := m.renderHelpScreen()

	for _, expected := range []string{"Keyboard Shortcuts", "Re-run all probes", "Quit"} {
		if !strings.Contains(help, expected) {
			t.Errorf("Expected help to contain %q", expected)
		}
	}
}

func TestRenderFooter_Loading(t *testing.T) {
	m, _ := newTestModel(t)

	if !strings.Contains(m.renderFooter(), "Collecting capabilities...") {
		t.Error("Expected loading indicator in footer")
	}
}
