//go:build cuda

package gpu

import (
	"context"
	"fmt"

	"aicaps/internal/logging"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// CUDAProbe reports CUDA devices through NVML
type CUDAProbe struct {
	nvml   NVMLInterface
	logger *logging.Logger
}

// NewCUDAProbe creates a probe backed by the system NVML library
func NewCUDAProbe(logger *logging.Logger) *CUDAProbe {
	return &CUDAProbe{
		nvml:   NewRealNVML(),
		logger: logger,
	}
}

// NewCUDAProbeWithNVML creates a probe with a custom NVML interface (for testing)
func NewCUDAProbeWithNVML(nvmlInterface NVMLInterface, logger *logging.Logger) *CUDAProbe {
	return &CUDAProbe{
		nvml:   nvmlInterface,
		logger: logger,
	}
}

// Run enumerates CUDA devices and their memory
func (p *CUDAProbe) Run(ctx context.Context) CUDAReport {
	p.logger.Debug("gpu.cuda.start", "Starting CUDA detection", nil)

	ret := p.nvml.Init()
	if ret != nvml.SUCCESS {
		reason := fmt.Sprintf("%s: %s", reasonNoRuntime, nvml.ErrorString(ret))
		p.logger.Info("gpu.nvml.init.failed", "NVML initialization failed", map[string]interface{}{
			"error": reason,
		})
		return p.Unavailable(reason)
	}
	defer p.nvml.Shutdown()

	report := p.Unavailable("")

	cudaVersion, ret := p.nvml.SystemGetCudaDriverVersion()
	if ret == nvml.SUCCESS {
		version := formatCUDAVersion(cudaVersion)
		report.Version = &version
	} else {
		p.logger.Warn("gpu.cuda.version.failed", "Failed to get CUDA version", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
	}

	count, ret := p.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		report.Error = fmt.Sprintf("failed to get device count: %s", nvml.ErrorString(ret))
		p.logger.Error("gpu.device.count.failed", "Failed to get GPU count", map[string]interface{}{
			"error": report.Error,
		})
		return report
	}

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}

		device, ret := p.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			p.logger.Warn("gpu.device.handle.failed", "Failed to get device handle", map[string]interface{}{
				"index": i,
				"error": nvml.ErrorString(ret),
			})
			continue
		}

		info := CUDADevice{ID: i}
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			info.Name = name
		}
		readMemory(device, &info)

		report.GPUs = append(report.GPUs, info)

		p.logger.Debug("gpu.device.detected", "GPU device detected", map[string]interface{}{
			"index":        i,
			"name":         info.Name,
			"memory_total": info.MemoryTotal,
		})
	}

	if len(report.GPUs) == 0 {
		report.Error = reasonNoDevices
		return report
	}

	report.Available = true
	report.Error = ""
	// devices whose handle could not be read are not counted
	report.GPUCount = len(report.GPUs)
	return report
}

// readMemory prefers the v2 query, which also reports reserved memory
func readMemory(device DeviceInterface, info *CUDADevice) {
	if mem, ret := device.GetMemoryInfo_v2(); ret == nvml.SUCCESS {
		info.MemoryTotal = mem.Total
		info.MemoryAllocated = mem.Used
		info.MemoryCached = mem.Reserved
		return
	}
	if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
		info.MemoryTotal = mem.Total
		info.MemoryAllocated = mem.Used
	}
}
