package gpu

import "fmt"

const (
	cudaProbeName = "cuda"

	reasonNoRuntime = "no compatible runtime found"
	reasonNoDevices = "no CUDA devices found"
)

// Name identifies the probe in logs and timeout reasons
func (p *CUDAProbe) Name() string {
	return cudaProbeName
}

// Unavailable builds the report returned when the probe cannot complete
func (p *CUDAProbe) Unavailable(reason string) CUDAReport {
	return CUDAReport{
		Status: unavailable(reason),
		GPUs:   []CUDADevice{},
	}
}

// formatCUDAVersion turns NVML's integer encoding (12020) into "12.2"
func formatCUDAVersion(v int) string {
	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}
