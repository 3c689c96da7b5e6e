// Package capacity maps available memory to a heuristic maximum context
// length and a list of model families that should fit. The estimate is a
// lookup, not a measurement.
package capacity

import (
	"sort"

	"aicaps/internal/gpu"
	"aicaps/internal/hostinfo"
)

const bytesPerGiB = 1024 * 1024 * 1024

// Basis names the memory pool an estimate was derived from
type Basis string

const (
	BasisGPU  Basis = "gpu"
	BasisCPU  Basis = "cpu"
	BasisNone Basis = "none"
)

// Model is a suggested model family and its size in billions of parameters
type Model struct {
	Name    string
	ParamsB float64
}

// Tier applies when memory is at least MinGiB
type Tier struct {
	MinGiB        float64
	ContextLength int
	Models        []Model
}

// GPUTiers are checked against the largest CUDA device, highest first
var GPUTiers = []Tier{
	{MinGiB: 24, ContextLength: 32768, Models: []Model{{"LLaMA 2 70B", 70}, {"GPT-3.5 equivalent", 175}}},
	{MinGiB: 16, ContextLength: 16384, Models: []Model{{"LLaMA 2 13B", 13}, {"Mistral 7B", 7}}},
	{MinGiB: 8, ContextLength: 8192, Models: []Model{{"LLaMA 2 7B", 7}, {"Phi-2", 2.7}}},
	{MinGiB: 4, ContextLength: 4096, Models: []Model{{"Small quantized models", 3}}},
}

// CPUTiers are checked against total system memory, highest first
var CPUTiers = []Tier{
	{MinGiB: 32, ContextLength: 8192, Models: []Model{{"Small quantized models on CPU", 3}}},
	{MinGiB: 16, ContextLength: 4096, Models: []Model{{"Tiny quantized models on CPU", 1}}},
	{MinGiB: 8, ContextLength: 2048, Models: []Model{{"Very small models only", 0.5}}},
}

// Result is the token-capacity estimate returned to clients
type Result struct {
	EstimatedMaxContextLength int      `json:"estimated_max_context_length"`
	SuggestedModels           []string `json:"suggested_models"`
	Basis                     Basis    `json:"basis"`
	MemoryGiB                 float64  `json:"memory_gib"`
}

// Estimate picks the GPU tiers when CUDA reports at least one device and
// the CPU tiers otherwise. System memory is ignored on the GPU path and
// GPU fields are ignored on the CPU path.
func Estimate(system hostinfo.SystemFacts, cuda gpu.CUDAReport) Result {
	if cuda.Available {
		if dev, ok := cuda.LargestDevice(); ok {
			return lookup(GPUTiers, BasisGPU, toGiB(dev.MemoryTotal))
		}
	}
	return lookup(CPUTiers, BasisCPU, toGiB(system.MemoryTotal))
}

func lookup(tiers []Tier, basis Basis, memGiB float64) Result {
	for _, tier := range tiers {
		if memGiB >= tier.MinGiB {
			return Result{
				EstimatedMaxContextLength: tier.ContextLength,
				SuggestedModels:           modelNames(tier.Models),
				Basis:                     basis,
				MemoryGiB:                 memGiB,
			}
		}
	}

	return Result{
		SuggestedModels: []string{},
		Basis:           BasisNone,
		MemoryGiB:       memGiB,
	}
}

// modelNames orders suggestions from smallest to largest
func modelNames(models []Model) []string {
	sorted := make([]Model, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ParamsB < sorted[j].ParamsB
	})

	names := make([]string, len(sorted))
	for i, m := range sorted {
		names[i] = m.Name
	}
	return names
}

func toGiB(bytes uint64) float64 {
	return float64(bytes) / bytesPerGiB
}
