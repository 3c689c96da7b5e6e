// Package capabilities runs every probe concurrently and merges the results
// with the capacity estimate into a single report.
package capabilities

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"aicaps/internal/capacity"
	"aicaps/internal/config"
	"aicaps/internal/frameworks"
	"aicaps/internal/gpu"
	"aicaps/internal/hostinfo"
	"aicaps/internal/logging"
	"aicaps/internal/probe"

	"golang.org/x/sync/errgroup"
)

// frameworksGrace lets per-import deadlines expire before the probe-level one
const frameworksGrace = config.CollectGraceSeconds * time.Second

// Report is the full capabilities document served at /api/capabilities
type Report struct {
	System        hostinfo.SystemFacts `json:"system"`
	CUDA          gpu.CUDAReport       `json:"cuda"`
	NvidiaSMI     gpu.SMIReport        `json:"nvidia_smi"`
	ROCm          gpu.ROCmReport       `json:"rocm"`
	Frameworks    frameworks.Report    `json:"frameworks"`
	TokenCapacity capacity.Result      `json:"token_capacity"`
}

// HardwareProbe collects system facts; an error means no facts at all
type HardwareProbe interface {
	Collect(ctx context.Context) (hostinfo.SystemFacts, error)
}

// Probes is the set of probes an Aggregator runs
type Probes struct {
	Hardware   HardwareProbe
	CUDA       probe.Probe[gpu.CUDAReport]
	NvidiaSMI  probe.Probe[gpu.SMIReport]
	ROCm       probe.Probe[gpu.ROCmReport]
	Frameworks probe.Probe[frameworks.Report]
}

// NewProbes wires the production probes from configuration
func NewProbes(cfg config.Config, runner probe.Runner, logger *logging.Logger) Probes {
	return Probes{
		Hardware:   hostinfo.NewProbe(logger),
		CUDA:       gpu.NewCUDAProbe(logger),
		NvidiaSMI:  gpu.NewSMIProbe(runner, cfg.Probes.NvidiaSMI, logger),
		ROCm:       gpu.NewROCmProbe(runner, cfg.Probes.ROCmSMI, cfg.Probes.ROCmVersionFile, logger),
		Frameworks: frameworks.NewProbe(runner, cfg.Probes.Python, cfg.ProbeTimeout(), logger),
	}
}

// Aggregator builds capability reports. It holds no state between calls.
type Aggregator struct {
	probes  Probes
	timeout time.Duration
	logger  *logging.Logger
}

// NewAggregator creates an aggregator bounding each probe by timeout
func NewAggregator(probes Probes, timeout time.Duration, logger *logging.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	return &Aggregator{
		probes:  probes,
		timeout: timeout,
		logger:  logger,
	}
}

// Collect runs all probes in parallel and waits for every one of them.
// Accelerator and framework failures are reported inside the result; only
// a failure to read any system facts is returned as an error.
func (a *Aggregator) Collect(ctx context.Context) (Report, error) {
	start := time.Now()

	var report Report
	var took timings

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		began := time.Now()
		defer func() { took.hardware = time.Since(began) }()

		facts, err := collectHardware(gctx, a.probes.Hardware, a.timeout)
		if err != nil {
			return fmt.Errorf("failed to collect system facts: %w", err)
		}
		report.System = facts
		return nil
	})
	g.Go(func() error {
		report.CUDA = execute(gctx, a.probes.CUDA, a.timeout, a.logger, &took.cuda)
		return nil
	})
	g.Go(func() error {
		report.NvidiaSMI = execute(gctx, a.probes.NvidiaSMI, a.timeout, a.logger, &took.nvidiaSMI)
		return nil
	})
	g.Go(func() error {
		report.ROCm = execute(gctx, a.probes.ROCm, a.timeout, a.logger, &took.rocm)
		return nil
	})
	g.Go(func() error {
		report.Frameworks = execute(gctx, a.probes.Frameworks, a.timeout+frameworksGrace, a.logger, &took.frameworks)
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("capabilities.collect.failed", "Capability collection failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Report{}, err
	}

	report.TokenCapacity = capacity.Estimate(report.System, report.CUDA)

	a.logger.Info("capabilities.collect.done", "Capability report collected", map[string]interface{}{
		"cuda":        probeSummary(report.CUDA, took.cuda),
		"nvidia_smi":  probeSummary(report.NvidiaSMI, took.nvidiaSMI),
		"rocm":        probeSummary(report.ROCm, took.rocm),
		"frameworks":  probeSummary(report.Frameworks, took.frameworks),
		"hardware_ms": took.hardware.Milliseconds(),
		"context":     report.TokenCapacity.EstimatedMaxContextLength,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return report, nil
}

// collectHardware bounds the hardware probe the way probe.Execute bounds the
// others. Without system facts there is no report, so an interrupted or
// panicking probe becomes an error rather than an unavailable result.
func collectHardware(ctx context.Context, hw HardwareProbe, timeout time.Duration) (hostinfo.SystemFacts, error) {
	hwCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		facts hostinfo.SystemFacts
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("hardware probe panicked: %v", r)}
			}
		}()
		facts, err := hw.Collect(hwCtx)
		done <- result{facts: facts, err: err}
	}()

	select {
	case res := <-done:
		return res.facts, res.err
	case <-hwCtx.Done():
		if errors.Is(hwCtx.Err(), context.DeadlineExceeded) {
			return hostinfo.SystemFacts{}, fmt.Errorf("hardware timed out after %s", timeout)
		}
		return hostinfo.SystemFacts{}, fmt.Errorf("hardware cancelled: %w", hwCtx.Err())
	}
}

// timings holds per-probe wall time; each field has a single writer
type timings struct {
	hardware   time.Duration
	cuda       time.Duration
	nvidiaSMI  time.Duration
	rocm       time.Duration
	frameworks time.Duration
}

func execute[R probe.Report](ctx context.Context, p probe.Probe[R], timeout time.Duration, logger *logging.Logger, took *time.Duration) R {
	began := time.Now()
	defer func() { *took = time.Since(began) }()
	return probe.Execute(ctx, p, timeout, logger)
}

func probeSummary(r probe.Report, took time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"available":   r.IsAvailable(),
		"duration_ms": took.Milliseconds(),
	}
}

// Switch serves collections from the most recently installed aggregator so
// probe settings can change while the server keeps running.
type Switch struct {
	current atomic.Pointer[Aggregator]
}

// NewSwitch starts with agg installed
func NewSwitch(agg *Aggregator) *Switch {
	s := &Switch{}
	s.current.Store(agg)
	return s
}

// Collect delegates to the installed aggregator
func (s *Switch) Collect(ctx context.Context) (Report, error) {
	return s.current.Load().Collect(ctx)
}

// Replace installs agg for subsequent collections; in-flight ones finish on
// the aggregator they started with.
func (s *Switch) Replace(agg *Aggregator) {
	s.current.Store(agg)
}
