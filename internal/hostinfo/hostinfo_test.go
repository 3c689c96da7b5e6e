package hostinfo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"aicaps/internal/logging"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const gib = 1024 * 1024 * 1024

// fakeSource returns canned values; a non-nil error field fails that source
type fakeSource struct {
	memory    *mem.VirtualMemoryStat
	memErr    error
	physical  int
	logical   int
	countsErr error
	cpuInfo   []cpu.InfoStat
	cpuErr    error
	host      *host.InfoStat
	hostErr   error
}

func (f fakeSource) Memory(context.Context) (*mem.VirtualMemoryStat, error) {
	return f.memory, f.memErr
}

func (f fakeSource) CPUCounts(_ context.Context, logical bool) (int, error) {
	if f.countsErr != nil {
		return 0, f.countsErr
	}
	if logical {
		return f.logical, nil
	}
	return f.physical, nil
}

func (f fakeSource) CPUInfo(context.Context) ([]cpu.InfoStat, error) {
	return f.cpuInfo, f.cpuErr
}

func (f fakeSource) HostInfo(context.Context) (*host.InfoStat, error) {
	return f.host, f.hostErr
}

func healthySource() fakeSource {
	return fakeSource{
		memory:   &mem.VirtualMemoryStat{Total: 32 * gib, Available: 20 * gib, UsedPercent: 37.5},
		physical: 8,
		logical:  16,
		cpuInfo: []cpu.InfoStat{
			{ModelName: "AMD Ryzen 9 7950X 16-Core Processor", Mhz: 4500},
			{ModelName: "AMD Ryzen 9 7950X 16-Core Processor", Mhz: 3000},
		},
		host: &host.InfoStat{
			Hostname:        "workstation",
			OS:              "linux",
			Platform:        "ubuntu",
			PlatformVersion: "22.04",
			KernelVersion:   "6.5.0-35-generic",
			KernelArch:      "x86_64",
		},
	}
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError)
}

func TestProbe_Collect_Success(t *testing.T) {
	facts, err := NewProbeWithSource(healthySource(), testLogger()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if facts.MemoryTotal != 32*gib || facts.MemoryAvailable != 20*gib {
		t.Errorf("Unexpected memory: total=%d available=%d", facts.MemoryTotal, facts.MemoryAvailable)
	}
	if facts.MemoryPercent != 37.5 {
		t.Errorf("Expected memory percent 37.5, got: %f", facts.MemoryPercent)
	}
	if facts.CPUCount != 8 || facts.CPUCountLogical != 16 {
		t.Errorf("Unexpected core counts: %d/%d", facts.CPUCount, facts.CPUCountLogical)
	}
	if facts.Processor != "AMD Ryzen 9 7950X 16-Core Processor" {
		t.Errorf("Unexpected processor: %s", facts.Processor)
	}
	if facts.CPUFreq == nil || facts.CPUFreq.Current != 4500 || facts.CPUFreq.Min != 3000 || facts.CPUFreq.Max != 4500 {
		t.Errorf("Unexpected CPU frequency: %+v", facts.CPUFreq)
	}
	if facts.Platform != "linux-6.5.0-35-generic-x86_64 (ubuntu 22.04)" {
		t.Errorf("Unexpected platform: %s", facts.Platform)
	}
	if facts.Architecture != "x86_64" || facts.Hostname != "workstation" {
		t.Errorf("Unexpected host fields: arch=%s hostname=%s", facts.Architecture, facts.Hostname)
	}
	if !strings.HasPrefix(facts.RuntimeVersion, "go") && !strings.HasPrefix(facts.RuntimeVersion, "devel") {
		t.Errorf("Unexpected runtime version: %s", facts.RuntimeVersion)
	}
}

func TestProbe_Collect_PartialFailure(t *testing.T) {
	source := healthySource()
	source.cpuInfo = []cpu.InfoStat{{VendorID: "GenuineIntel"}}
	source.hostErr = errors.New("permission denied")

	facts, err := NewProbeWithSource(source, testLogger()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() should tolerate partial failure, got: %v", err)
	}

	if facts.CPUFreq != nil {
		t.Errorf("Expected nil CPU frequency without sensor data, got: %+v", facts.CPUFreq)
	}
	if facts.Processor != "GenuineIntel" {
		t.Errorf("Expected vendor fallback, got: %s", facts.Processor)
	}
	if facts.Platform != "" {
		t.Errorf("Expected empty platform when host info fails, got: %s", facts.Platform)
	}
	if facts.MemoryTotal != 32*gib {
		t.Errorf("Memory should still be populated, got: %d", facts.MemoryTotal)
	}
}

func TestProbe_Collect_TotalFailure(t *testing.T) {
	boom := errors.New("unsupported platform")
	source := fakeSource{memErr: boom, countsErr: boom, cpuErr: boom, hostErr: boom}

	_, err := NewProbeWithSource(source, testLogger()).Collect(context.Background())
	if err == nil {
		t.Fatal("Expected error when no source can be read")
	}
	if !errors.Is(err, ErrNoSystemFacts) {
		t.Errorf("Expected ErrNoSystemFacts, got: %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected underlying cause to be wrapped, got: %v", err)
	}
}

func TestPlatformString(t *testing.T) {
	tests := []struct {
		name string
		info host.InfoStat
		want string
	}{
		{"full", host.InfoStat{OS: "linux", KernelVersion: "6.1.0", KernelArch: "aarch64", Platform: "debian", PlatformVersion: "12"}, "linux-6.1.0-aarch64 (debian 12)"},
		{"no distro", host.InfoStat{OS: "darwin", KernelVersion: "23.4.0", KernelArch: "arm64"}, "darwin-23.4.0-arm64"},
		{"os only", host.InfoStat{OS: "windows"}, "windows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := platformString(&tt.info); got != tt.want {
				t.Errorf("platformString() = %q, want %q", got, tt.want)
			}
		})
	}
}
