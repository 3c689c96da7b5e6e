// Package hostinfo collects CPU, memory and platform facts about the local
// machine through gopsutil.
package hostinfo

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"aicaps/internal/logging"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrNoSystemFacts is returned when none of the host sources could be read
var ErrNoSystemFacts = errors.New("no system facts available")

// CPUFreq holds CPU frequencies in MHz. Min and Max are zero when the
// platform does not expose them.
type CPUFreq struct {
	Current float64 `json:"current"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// SystemFacts is a point-in-time snapshot of the host. Memory values are bytes.
type SystemFacts struct {
	Platform        string   `json:"platform"`
	Processor       string   `json:"processor"`
	Architecture    string   `json:"architecture"`
	RuntimeVersion  string   `json:"runtime_version"`
	Hostname        string   `json:"hostname"`
	CPUCount        int      `json:"cpu_count"`
	CPUCountLogical int      `json:"cpu_count_logical"`
	CPUFreq         *CPUFreq `json:"cpu_freq"`
	MemoryTotal     uint64   `json:"memory_total"`
	MemoryAvailable uint64   `json:"memory_available"`
	MemoryPercent   float64  `json:"memory_percent"`
}

// Source abstracts the OS queries so tests can substitute fixed values
type Source interface {
	Memory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	CPUCounts(ctx context.Context, logical bool) (int, error)
	CPUInfo(ctx context.Context) ([]cpu.InfoStat, error)
	HostInfo(ctx context.Context) (*host.InfoStat, error)
}

// GopsutilSource reads the live system
type GopsutilSource struct{}

// Memory returns virtual memory statistics
func (GopsutilSource) Memory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

// CPUCounts returns physical (logical=false) or logical core counts
func (GopsutilSource) CPUCounts(ctx context.Context, logical bool) (int, error) {
	return cpu.CountsWithContext(ctx, logical)
}

// CPUInfo returns per-socket or per-core CPU descriptions
func (GopsutilSource) CPUInfo(ctx context.Context) ([]cpu.InfoStat, error) {
	return cpu.InfoWithContext(ctx)
}

// HostInfo returns OS and kernel details
func (GopsutilSource) HostInfo(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

// Probe gathers SystemFacts
type Probe struct {
	source Source
	logger *logging.Logger
}

// NewProbe creates a hardware probe reading the live system
func NewProbe(logger *logging.Logger) *Probe {
	return NewProbeWithSource(GopsutilSource{}, logger)
}

// NewProbeWithSource creates a hardware probe with a custom source (for testing)
func NewProbeWithSource(source Source, logger *logging.Logger) *Probe {
	return &Probe{source: source, logger: logger}
}

// Collect reads every source it can. Individual failures leave the
// corresponding fields zero; only a total failure is returned as an error.
func (p *Probe) Collect(ctx context.Context) (SystemFacts, error) {
	facts := SystemFacts{
		Architecture:   runtime.GOARCH,
		RuntimeVersion: runtime.Version(),
	}

	var failures []error
	fail := func(source string, err error) {
		failures = append(failures, fmt.Errorf("%s: %w", source, err))
		p.logger.Warn("hostinfo.source.failed", "Failed to read system source", map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
	}

	memOK := false
	if vm, err := p.source.Memory(ctx); err != nil {
		fail("memory", err)
	} else if vm != nil {
		facts.MemoryTotal = vm.Total
		facts.MemoryAvailable = vm.Available
		facts.MemoryPercent = vm.UsedPercent
		memOK = true
	}

	countsOK := false
	if physical, err := p.source.CPUCounts(ctx, false); err != nil {
		fail("cpu.physical", err)
	} else {
		facts.CPUCount = physical
		countsOK = true
	}
	if logical, err := p.source.CPUCounts(ctx, true); err != nil {
		fail("cpu.logical", err)
	} else {
		facts.CPUCountLogical = logical
		countsOK = true
	}

	if infos, err := p.source.CPUInfo(ctx); err != nil {
		fail("cpu.info", err)
	} else {
		facts.Processor, facts.CPUFreq = describeCPU(infos)
	}

	hostOK := false
	if hi, err := p.source.HostInfo(ctx); err != nil {
		fail("host", err)
	} else if hi != nil {
		facts.Platform = platformString(hi)
		facts.Hostname = hi.Hostname
		if hi.KernelArch != "" {
			facts.Architecture = hi.KernelArch
		}
		hostOK = true
	}

	if !memOK && !countsOK && !hostOK {
		return SystemFacts{}, fmt.Errorf("%w: %w", ErrNoSystemFacts, errors.Join(failures...))
	}

	p.logger.Debug("hostinfo.collect.done", "System facts collected", map[string]interface{}{
		"memory_total":      facts.MemoryTotal,
		"cpu_count_logical": facts.CPUCountLogical,
		"partial":           len(failures) > 0,
	})

	return facts, nil
}

// describeCPU returns the processor model and frequencies across all entries
func describeCPU(infos []cpu.InfoStat) (string, *CPUFreq) {
	if len(infos) == 0 {
		return "", nil
	}

	processor := infos[0].ModelName
	if processor == "" {
		processor = infos[0].VendorID
	}

	var freq *CPUFreq
	for _, info := range infos {
		if info.Mhz <= 0 {
			continue
		}
		if freq == nil {
			freq = &CPUFreq{Current: info.Mhz, Min: info.Mhz, Max: info.Mhz}
			continue
		}
		freq.Min = min(freq.Min, info.Mhz)
		freq.Max = max(freq.Max, info.Mhz)
	}

	return processor, freq
}

// platformString renders e.g. "linux-6.5.0-x86_64 (ubuntu 22.04)"
func platformString(hi *host.InfoStat) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{hi.OS, hi.KernelVersion, hi.KernelArch} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	platform := strings.Join(parts, "-")
	distro := strings.TrimSpace(hi.Platform + " " + hi.PlatformVersion)
	if distro != "" {
		platform = fmt.Sprintf("%s (%s)", platform, distro)
	}
	return platform
}
