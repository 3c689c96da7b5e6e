package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aicaps/internal/capabilities"
	"aicaps/internal/logging"
)

// collectTimeout bounds one refresh; probes carry their own shorter deadlines
const collectTimeout = 30 * time.Second

// Collector produces a capabilities report
type Collector interface {
	Collect(ctx context.Context) (capabilities.Report, error)
}

// reportMsg delivers the result of a background collection
type reportMsg struct {
	report capabilities.Report
	err    error
	at     time.Time
}

// Model represents the TUI application state
type Model struct {
	collector Collector
	logger    *logging.Logger
	quitting  bool

	// UI State
	currentScreen Screen
	selection     int
	lastError     string

	// Report State
	report    capabilities.Report
	hasReport bool
	loading   bool
	updated   time.Time
	spinner   spinner.Model
}

// NewModel creates a TUI model; the first collection starts from Init
func NewModel(collector Collector, logger *logging.Logger) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#00d7ff"))

	return Model{
		collector:     collector,
		logger:        logger,
		currentScreen: ScreenOverview,
		loading:       true,
		spinner:       s,
	}
}

// Init starts the initial collection
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.collect(), m.spinner.Tick)
}

// collect runs the aggregator off the UI goroutine
func (m Model) collect() tea.Cmd {
	collector := m.collector
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
		defer cancel()

		report, err := collector.Collect(ctx)
		return reportMsg{report: report, err: err, at: time.Now()}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportMsg:
		return m.applyReport(msg), nil
	case spinner.TickMsg:
		// ticking stops once a collection completes
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) applyReport(msg reportMsg) Model {
	m.loading = false
	m.updated = msg.at

	if msg.err != nil {
		m.lastError = msg.err.Error()
		m.logger.Warn("tui.collect.failed", "Capability collection failed", map[string]interface{}{
			"error": msg.err.Error(),
		})
		return m
	}

	m.report = msg.report
	m.hasReport = true
	m.lastError = ""
	return m
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.collect(), m.spinner.Tick)
	case "esc":
		return m.selectMenuByKey("1"), nil
	case "tab", "right", "l":
		return m.navigateRight(), nil
	case "shift+tab", "left", "h":
		return m.navigateLeft(), nil
	}

	return m.selectMenuByKey(key), nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.renderTabs()

	switch m.currentScreen {
	case ScreenAccelerators:
		return header + m.renderAcceleratorsScreen()
	case ScreenFrameworks:
		return header + m.renderFrameworksScreen()
	case ScreenHelp:
		return header + m.renderHelpScreen()
	default:
		return header + m.renderOverviewScreen()
	}
}
