// Package frameworks reports which machine-learning libraries the host
// Python environment can import, and at which version.
package frameworks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"aicaps/internal/logging"
	"aicaps/internal/probe"

	"golang.org/x/sync/errgroup"
)

const probeName = "frameworks"

// importScript imports sys.argv[1] and prints its __version__, if any
const importScript = `import importlib, sys
m = importlib.import_module(sys.argv[1])
print(getattr(m, "__version__", ""))`

// Framework maps a reported name to the module that provides it
type Framework struct {
	Name   string
	Module string
}

// Known is the fixed set of frameworks checked, in report order
var Known = []Framework{
	{Name: "pytorch", Module: "torch"},
	{Name: "tensorflow", Module: "tensorflow"},
	{Name: "transformers", Module: "transformers"},
	{Name: "onnxruntime", Module: "onnxruntime"},
}

// Status is the import result for one framework
type Status struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// Entry pairs a framework name with its status
type Entry struct {
	Name string
	Status
}

// Report lists every known framework in declaration order
type Report struct {
	Entries []Entry
}

// Get returns the status of a framework by name
func (r Report) Get(name string) (Status, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e.Status, true
		}
	}
	return Status{}, false
}

// IsAvailable reports whether at least one framework could be imported
func (r Report) IsAvailable() bool {
	for _, e := range r.Entries {
		if e.Available {
			return true
		}
	}
	return false
}

// Reason is empty when any framework is available
func (r Report) Reason() string {
	if r.IsAvailable() {
		return ""
	}
	return "no supported framework could be imported"
}

// MarshalJSON renders {"pytorch": {...}, ...} preserving declaration order
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Status)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Probe imports each framework in a separate interpreter process
type Probe struct {
	runner     probe.Runner
	python     string
	timeout    time.Duration
	frameworks []Framework
	logger     *logging.Logger
}

// NewProbe creates a framework probe using the given interpreter. Each
// import is bounded by timeout.
func NewProbe(runner probe.Runner, python string, timeout time.Duration, logger *logging.Logger) *Probe {
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	return &Probe{
		runner:     runner,
		python:     python,
		timeout:    timeout,
		frameworks: Known,
		logger:     logger,
	}
}

// Name identifies the probe in logs and timeout reasons
func (p *Probe) Name() string {
	return probeName
}

// Unavailable reports every framework as missing
func (p *Probe) Unavailable(_ string) Report {
	report := Report{Entries: make([]Entry, len(p.frameworks))}
	for i, fw := range p.frameworks {
		report.Entries[i] = Entry{Name: fw.Name}
	}
	return report
}

// Run checks all frameworks concurrently
func (p *Probe) Run(ctx context.Context) Report {
	report := p.Unavailable("")

	var g errgroup.Group
	for i, fw := range p.frameworks {
		g.Go(func() error {
			report.Entries[i].Status = p.check(ctx, fw)
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (p *Probe) check(ctx context.Context, fw Framework) Status {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.runner.Run(checkCtx, p.python, "-c", importScript, fw.Module)
	if err != nil {
		p.logger.Debug("frameworks.import.failed", "Framework not importable", map[string]interface{}{
			"framework": fw.Name,
			"module":    fw.Module,
			"error":     err.Error(),
		})
		return Status{}
	}

	version := lastLine(string(out))
	p.logger.Debug("frameworks.import.ok", "Framework found", map[string]interface{}{
		"framework": fw.Name,
		"version":   version,
	})
	return Status{Available: true, Version: version}
}

// lastLine skips any banner a module prints on import
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
