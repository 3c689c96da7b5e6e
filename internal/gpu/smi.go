package gpu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aicaps/internal/logging"
	"aicaps/internal/probe"
)

const smiProbeName = "nvidia_smi"

// SMIQueryArgs are the nvidia-smi arguments producing one CSV row per GPU
var SMIQueryArgs = []string{
	"--query-gpu=name,driver_version,memory.total,memory.used",
	"--format=csv,noheader",
}

// SMIProbe reports NVIDIA GPUs as seen by the nvidia-smi tool
type SMIProbe struct {
	runner probe.Runner
	path   string
	logger *logging.Logger
}

// NewSMIProbe creates a probe invoking the nvidia-smi binary at path
func NewSMIProbe(runner probe.Runner, path string, logger *logging.Logger) *SMIProbe {
	return &SMIProbe{
		runner: runner,
		path:   path,
		logger: logger,
	}
}

// Name identifies the probe in logs and timeout reasons
func (p *SMIProbe) Name() string {
	return smiProbeName
}

// Unavailable builds the report returned when the probe cannot complete
func (p *SMIProbe) Unavailable(reason string) SMIReport {
	return SMIReport{
		Status: unavailable(reason),
		GPUs:   []SMIDevice{},
	}
}

// Run queries nvidia-smi and parses its CSV output
func (p *SMIProbe) Run(ctx context.Context) SMIReport {
	out, err := p.runner.Run(ctx, p.path, SMIQueryArgs...)
	if err != nil {
		p.logger.Info("gpu.smi.unavailable", "nvidia-smi query failed", map[string]interface{}{
			"error": err.Error(),
		})
		return p.Unavailable(err.Error())
	}

	devices, err := ParseSMIOutput(string(out))
	if err != nil {
		p.logger.Warn("gpu.smi.parse.failed", "Failed to parse nvidia-smi output", map[string]interface{}{
			"error": err.Error(),
		})
		return p.Unavailable(err.Error())
	}

	p.logger.Debug("gpu.smi.done", "nvidia-smi query finished", map[string]interface{}{
		"count": len(devices),
	})

	return SMIReport{
		Status: Status{Available: true},
		GPUs:   devices,
	}
}

// ParseSMIOutput parses `nvidia-smi --format=csv,noheader` output. Every
// non-blank line must carry at least four comma-separated fields.
func ParseSMIOutput(output string) ([]SMIDevice, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, errors.New("nvidia-smi reported no GPUs")
	}

	devices := make([]SMIDevice, 0)
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			return nil, fmt.Errorf("unparseable nvidia-smi output: %s", trimmed)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		devices = append(devices, SMIDevice{
			Name:          fields[0],
			DriverVersion: fields[1],
			MemoryTotal:   fields[2],
			MemoryUsed:    fields[3],
		})
	}

	return devices, nil
}
