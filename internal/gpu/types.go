package gpu

// Status is the availability block shared by every accelerator report
type Status struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// IsAvailable reports whether the probe found a usable accelerator
func (s Status) IsAvailable() bool {
	return s.Available
}

// Reason returns the human-readable failure reason, empty when available
func (s Status) Reason() string {
	return s.Error
}

func unavailable(reason string) Status {
	return Status{Available: false, Error: reason}
}

// CUDADevice describes one NVML-visible device. Memory values are bytes.
type CUDADevice struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	MemoryTotal     uint64 `json:"memory_total"`
	MemoryAllocated uint64 `json:"memory_allocated"`
	MemoryCached    uint64 `json:"memory_cached,omitempty"`
}

// CUDAReport is the result of the CUDA runtime probe
type CUDAReport struct {
	Status
	Version  *string      `json:"version"`
	GPUCount int          `json:"gpu_count"`
	GPUs     []CUDADevice `json:"gpus"`
}

// LargestDevice returns the device with the most total memory
func (r CUDAReport) LargestDevice() (CUDADevice, bool) {
	if len(r.GPUs) == 0 {
		return CUDADevice{}, false
	}
	best := r.GPUs[0]
	for _, dev := range r.GPUs[1:] {
		if dev.MemoryTotal > best.MemoryTotal {
			best = dev
		}
	}
	return best, true
}

// SMIDevice is one row of nvidia-smi output. Memory fields keep the tool's
// own formatting, e.g. "24564 MiB".
type SMIDevice struct {
	Name          string `json:"name"`
	DriverVersion string `json:"driver_version"`
	MemoryTotal   string `json:"memory_total"`
	MemoryUsed    string `json:"memory_used"`
}

// SMIReport is the result of the nvidia-smi probe
type SMIReport struct {
	Status
	GPUs []SMIDevice `json:"gpus"`
}

// ROCmReport is the result of the rocm-smi probe
type ROCmReport struct {
	Status
	Version *string `json:"version"`
	Output  string  `json:"output,omitempty"`
}
