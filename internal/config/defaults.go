package config

import "time"

// MaxProbeTimeoutSeconds bounds a single external tool invocation
const MaxProbeTimeoutSeconds = 30

// CollectGraceSeconds is how long the framework probe may run past the
// per-tool timeout, so its own per-import deadlines report first
const CollectGraceSeconds = 1

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen:                 ":8000",
			ReadTimeoutSeconds:     5,
			WriteTimeoutSeconds:    60,
			ShutdownTimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Probes: ProbesConfig{
			TimeoutSeconds:  5,
			NvidiaSMI:       "nvidia-smi",
			ROCmSMI:         "rocm-smi",
			ROCmVersionFile: "/opt/rocm/.info/version",
			Python:          "python3",
		},
	}
}

// ProbeTimeout returns the per-tool timeout as a duration
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probes.TimeoutSeconds) * time.Second
}

// CollectBudget is the longest a single capabilities collection can take
func (c Config) CollectBudget() time.Duration {
	return c.ProbeTimeout() + CollectGraceSeconds*time.Second
}

// ShutdownTimeout returns the graceful shutdown budget
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
