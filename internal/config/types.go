package config

// Config represents the complete aicaps configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Probes  ProbesConfig  `yaml:"probes" toml:"probes"`
}

// ServerConfig represents the HTTP boundary configuration
type ServerConfig struct {
	Listen                 string `yaml:"listen" toml:"listen"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds" toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds" toml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	Format     string `yaml:"format" toml:"format"`
	File       string `yaml:"file" toml:"file"`
	Unbuffered bool   `yaml:"unbuffered" toml:"unbuffered"`
}

// ProbesConfig represents the external tool and runtime probe settings
type ProbesConfig struct {
	TimeoutSeconds  int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	NvidiaSMI       string `yaml:"nvidia_smi" toml:"nvidia_smi"`
	ROCmSMI         string `yaml:"rocm_smi" toml:"rocm_smi"`
	ROCmVersionFile string `yaml:"rocm_version_file" toml:"rocm_version_file"`
	Python          string `yaml:"python" toml:"python"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
