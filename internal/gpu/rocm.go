package gpu

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"aicaps/internal/logging"
	"aicaps/internal/probe"
)

const rocmProbeName = "rocm"

// ROCmProbe reports AMD GPUs through rocm-smi
type ROCmProbe struct {
	runner      probe.Runner
	path        string
	versionFile string
	logger      *logging.Logger
}

// NewROCmProbe creates a probe invoking rocm-smi at path. versionFile is
// the ROCm install's .info/version file; empty disables the version lookup.
func NewROCmProbe(runner probe.Runner, path, versionFile string, logger *logging.Logger) *ROCmProbe {
	return &ROCmProbe{
		runner:      runner,
		path:        path,
		versionFile: versionFile,
		logger:      logger,
	}
}

// Name identifies the probe in logs and timeout reasons
func (p *ROCmProbe) Name() string {
	return rocmProbeName
}

// Unavailable builds the report returned when the probe cannot complete
func (p *ROCmProbe) Unavailable(reason string) ROCmReport {
	return ROCmReport{Status: unavailable(reason)}
}

// Run lists AMD GPU product names
func (p *ROCmProbe) Run(ctx context.Context) ROCmReport {
	out, err := p.runner.Run(ctx, p.path, "--showproductname")
	if err != nil {
		p.logger.Info("gpu.rocm.unavailable", "rocm-smi query failed", map[string]interface{}{
			"error": err.Error(),
		})
		return p.Unavailable(err.Error())
	}

	report := ROCmReport{
		Status:  Status{Available: true},
		Version: p.readVersion(),
		Output:  strings.TrimSpace(string(out)),
	}

	p.logger.Debug("gpu.rocm.done", "rocm-smi query finished", map[string]interface{}{
		"has_version": report.Version != nil,
	})

	return report
}

func (p *ROCmProbe) readVersion() *string {
	if p.versionFile == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(p.versionFile))
	if err != nil {
		return nil
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return &line
}
