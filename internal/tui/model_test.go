package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"aicaps/internal/capabilities"
	"aicaps/internal/capacity"
	"aicaps/internal/frameworks"
	"aicaps/internal/gpu"
	"aicaps/internal/hostinfo"
	"aicaps/internal/logging"
)

type stubCollector struct {
	report capabilities.Report
	err    error
	calls  int
}

func (s *stubCollector) Collect(context.Context) (capabilities.Report, error) {
	s.calls++
	return s.report, s.err
}

func sampleReport() capabilities.Report {
	version := "12.2"
	return capabilities.Report{
		System: hostinfo.SystemFacts{
			Platform:        "linux-6.5.0-x86_64 (ubuntu 22.04)",
			Processor:       "AMD Ryzen 9 7950X",
			CPUCount:        16,
			CPUCountLogical: 32,
			MemoryTotal:     64 << 30,
			MemoryAvailable: 48 << 30,
			MemoryPercent:   25,
			RuntimeVersion:  "go1.25.4",
		},
		CUDA: gpu.CUDAReport{
			Status:   gpu.Status{Available: true},
			Version:  &version,
			GPUCount: 1,
			GPUs:     []gpu.CUDADevice{{ID: 0, Name: "NVIDIA GeForce RTX 4090", MemoryTotal: 24 << 30}},
		},
		NvidiaSMI: gpu.SMIReport{Status: gpu.Status{Error: "nvidia-smi not found"}, GPUs: []gpu.SMIDevice{}},
		ROCm:      gpu.ROCmReport{Status: gpu.Status{Error: "rocm-smi not found"}},
		Frameworks: frameworks.Report{Entries: []frameworks.Entry{
			{Name: "pytorch", Status: frameworks.Status{Available: true, Version: "2.3.1"}},
			{Name: "tensorflow"},
		}},
		TokenCapacity: capacity.Result{
			EstimatedMaxContextLength: 32768,
			SuggestedModels:           []string{"LLaMA 2 70B", "GPT-3.5 equivalent"},
			Basis:                     capacity.BasisGPU,
			MemoryGiB:                 24,
		},
	}
}

func newTestModel(t *testing.T) (Model, *stubCollector) {
	t.Helper()
	collector := &stubCollector{report: sampleReport()}
	logger := logging.NewLogger(logging.LevelError)
	return NewModel(collector, logger), collector
}

// loaded runs the initial collection and applies its result
func loaded(t *testing.T, m Model) Model {
	t.Helper()
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Expected Init to return a collection command")
	}
	return drain(t, m, cmd)
}

// drain executes cmd once, unpacking batches, and feeds every message back
// into the model. Follow-up commands such as spinner ticks are not run.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				m = drain(t, m, c)
			}
		}
		return m
	}
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestNewModel(t *testing.T) {
	m, collector := newTestModel(t)

	if m.quitting {
		t.Error("Expected quitting to be false initially")
	}
	if !m.loading {
		t.Error("Expected model to start in loading state")
	}
	if m.currentScreen != ScreenOverview {
		t.Errorf("Expected overview screen, got: %s", m.currentScreen)
	}
	if collector.calls != 0 {
		t.Error("NewModel must not collect synchronously")
	}
}

func TestModelInit_Collects(t *testing.T) {
	m, collector := newTestModel(t)
	m = loaded(t, m)

	if collector.calls != 1 {
		t.Errorf("Expected one collection, got: %d", collector.calls)
	}
	if !m.hasReport || m.loading {
		t.Error("Expected report to be applied and loading cleared")
	}
	if m.updated.IsZero() {
		t.Error("Expected updated timestamp to be set")
	}
}

func TestModelUpdate_CollectError(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(reportMsg{err: errors.New("no system facts available"), at: time.Now()})
	m = updated.(Model)

	if m.hasReport {
		t.Error("Expected no report after failed collection")
	}
	if m.lastError != "no system facts available" {
		t.Errorf("Expected last error to be recorded, got: %s", m.lastError)
	}
	if !strings.Contains(m.View(), "No report available") {
		t.Errorf("Expected error view, got: %s", m.View())
	}
}

func TestModelUpdate_QuitOnQ(t *testing.T) {
	m, _ := newTestModel(t)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := m.Update(msg)

	updatedM, ok := updatedModel.(Model)
	if !ok {
		t.Fatal("Expected Model type from Update")
	}

	if !updatedM.quitting {
		t.Error("Expected quitting to be true after 'q' key")
	}

	if cmd == nil {
		t.Error("Expected quit command to be returned")
	}
}

func TestModelUpdate_QuitOnCtrlC(t *testing.T) {
	m, _ := newTestModel(t)

	msg := tea.KeyMsg{Type: tea.KeyCtrlC}
	updatedModel, cmd := m.Update(msg)

	updatedM, ok := updatedModel.(Model)
	if !ok {
		t.Fatal("Expected Model type from Update")
	}

	if !updatedM.quitting {
		t.Error("Expected quitting to be true after Ctrl+C")
	}

	if cmd == nil {
		t.Error("Expected quit command to be returned")
	}
}

func TestModelUpdate_Refresh(t *testing.T) {
	m, collector := newTestModel(t)
	m = loaded(t, m)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	updatedModel, cmd := m.Update(msg)
	m = updatedModel.(Model)

	if !m.loading {
		t.Error("Expected loading after refresh")
	}
	if cmd == nil {
		t.Fatal("Expected collection command after refresh")
	}

	m = drain(t, m, cmd)
	if collector.calls != 2 {
		t.Errorf("Expected two collections, got: %d", collector.calls)
	}
	if m.loading {
		t.Error("Expected loading to clear after refresh completes")
	}
}

func TestModelUpdate_RefreshIgnoredWhileLoading(t *testing.T) {
	m, _ := newTestModel(t)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	_, cmd := m.Update(msg)

	if cmd != nil {
		t.Error("Expected no new collection while one is in flight")
	}
}

func TestModelUpdate_OtherKey(t *testing.T) {
	m, _ := newTestModel(t)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}}
	updatedModel, cmd := m.Update(msg)

	updatedM, ok := updatedModel.(Model)
	if !ok {
		t.Fatal("Expected Model type from Update")
	}

	if updatedM.quitting {
		t.Error("Expected quitting to remain false for non-quit key")
	}

	if cmd != nil {
		t.Error("Expected no command for unbound key")
	}
}

func TestModelView_Overview(t *testing.T) {
	m, _ := newTestModel(t)
	m = loaded(t, m)
	view := m.View()

	expectedStrings := []string{
		"Token Capacity",
		"32,768 tokens",
		"LLaMA 2 70B",
		"AMD Ryzen 9 7950X",
		"64 GiB total",
		"CUDA: ",
		"Not available: nvidia-smi not found",
		"Not available: rocm-smi not found",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(view, expected) {
			t.Errorf("Expected view to contain %q, but it didn't.\nView: %s", expected, view)
		}
	}
}

func TestModelView_Quitting(t *testing.T) {
	m, _ := newTestModel(t)
	m.quitting = true
	view := m.View()

	if view != "" {
		t.Errorf("Expected empty view when quitting, got: %s", view)
	}
}

func TestModelUpdate_SpinnerTicksOnlyWhileLoading(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(m.spinner.Tick())
	if cmd == nil {
		t.Error("Expected spinner to keep ticking while loading")
	}

	m = loaded(t, m)
	_, cmd = m.Update(m.spinner.Tick())
	if cmd != nil {
		t.Error("Expected spinner to stop once the report arrived")
	}
}
