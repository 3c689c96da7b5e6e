//go:build cuda

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// MockNVML is a mock implementation of NVMLInterface for testing
type MockNVML struct {
	InitReturn                   nvml.Return
	ShutdownReturn               nvml.Return
	ShutdownCalls                int
	DeviceCount                  int
	DeviceCountReturn            nvml.Return
	CudaVersion                  int
	CudaVersionReturn            nvml.Return
	Devices                      []MockDevice
	DeviceGetHandleByIndexReturn nvml.Return
}

// MockDevice represents a mock GPU device
type MockDevice struct {
	Name               string
	NameReturn         nvml.Return
	MemoryTotal        uint64
	MemoryUsed         uint64
	MemoryReserved     uint64
	MemoryInfoReturn   nvml.Return
	MemoryInfoV2Return nvml.Return
}

// NewMockNVML creates a new mock NVML instance
func NewMockNVML() *MockNVML {
	return &MockNVML{
		InitReturn:                   nvml.SUCCESS,
		ShutdownReturn:               nvml.SUCCESS,
		DeviceCountReturn:            nvml.SUCCESS,
		CudaVersionReturn:            nvml.SUCCESS,
		DeviceGetHandleByIndexReturn: nvml.SUCCESS,
		Devices:                      make([]MockDevice, 0),
	}
}

// Init mocks NVML initialization
func (m *MockNVML) Init() nvml.Return {
	return m.InitReturn
}

// Shutdown mocks NVML shutdown
func (m *MockNVML) Shutdown() nvml.Return {
	m.ShutdownCalls++
	return m.ShutdownReturn
}

// DeviceGetCount mocks getting device count
func (m *MockNVML) DeviceGetCount() (int, nvml.Return) {
	return m.DeviceCount, m.DeviceCountReturn
}

// DeviceGetHandleByIndex mocks getting device handle
func (m *MockNVML) DeviceGetHandleByIndex(index int) (DeviceInterface, nvml.Return) {
	if index < 0 || index >= len(m.Devices) {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}
	return mockDeviceImpl{device: &m.Devices[index]}, m.DeviceGetHandleByIndexReturn
}

// SystemGetCudaDriverVersion mocks getting CUDA version
func (m *MockNVML) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return m.CudaVersion, m.CudaVersionReturn
}

type mockDeviceImpl struct {
	device *MockDevice
}

func (m mockDeviceImpl) GetName() (string, nvml.Return) {
	return m.device.Name, m.device.NameReturn
}

func (m mockDeviceImpl) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{
		Total: m.device.MemoryTotal,
		Used:  m.device.MemoryUsed,
		Free:  m.device.MemoryTotal - m.device.MemoryUsed,
	}, m.device.MemoryInfoReturn
}

func (m mockDeviceImpl) GetMemoryInfo_v2() (nvml.Memory_v2, nvml.Return) {
	return nvml.Memory_v2{
		Total:    m.device.MemoryTotal,
		Used:     m.device.MemoryUsed,
		Reserved: m.device.MemoryReserved,
	}, m.device.MemoryInfoV2Return
}
