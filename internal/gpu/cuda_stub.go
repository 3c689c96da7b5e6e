//go:build !cuda

package gpu

import (
	"context"

	"aicaps/internal/logging"
)

const reasonNoNVML = reasonNoRuntime + ": built without NVML support"

// CUDAProbe reports CUDA as unavailable in builds without the cuda tag.
type CUDAProbe struct {
	logger *logging.Logger
}

// NewCUDAProbe creates a CUDA probe that never touches NVML.
func NewCUDAProbe(logger *logging.Logger) *CUDAProbe {
	return &CUDAProbe{logger: logger}
}

// NewCUDAProbeWithNVML is provided for API compatibility; NVML is ignored when CUDA is disabled.
func NewCUDAProbeWithNVML(_ NVMLInterface, logger *logging.Logger) *CUDAProbe {
	return NewCUDAProbe(logger)
}

// Run returns a report indicating that NVML is unavailable in the current build.
func (p *CUDAProbe) Run(_ context.Context) CUDAReport {
	p.logger.Debug("gpu.cuda.disabled", "Skipping NVML detection (built without cuda tag)", nil)
	return p.Unavailable(reasonNoNVML)
}
