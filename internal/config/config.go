package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied last
const (
	EnvListen     = "AICAPS_LISTEN"
	EnvLogLevel   = "AICAPS_LOG_LEVEL"
	EnvUnbuffered = "AICAPS_UNBUFFERED"
	EnvPython     = "AICAPS_PYTHON"
)

// Load loads and merges configuration from system and user files
// Priority: defaults < system config < user config < environment; within a
// directory config.yaml is read before config.toml
func Load() (Config, error) {
	cfg := DefaultConfig()

	for _, path := range SystemConfigFiles() {
		if err := mergeConfigFile(&cfg, path); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load system config: %w", err)
		}
	}

	for _, path := range UserConfigFiles() {
		if err := mergeConfigFile(&cfg, path); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := ApplyEnvironment(&cfg); err != nil {
		return cfg, err
	}

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// LoadFrom loads configuration from a specific file path (YAML, or TOML by extension)
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := mergeConfigFile(&cfg, path); err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// ApplyEnvironment overlays AICAPS_* environment variables onto cfg
func ApplyEnvironment(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPython)); v != "" {
		cfg.Probes.Python = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUnbuffered)); v != "" {
		unbuffered, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvUnbuffered, v, err)
		}
		cfg.Logging.Unbuffered = unbuffered
	}
	return nil
}

// mergeConfigFile reads a config file and merges it into the existing config
func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is constructed from trusted sources
	if err != nil {
		return err
	}

	var overlay Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &overlay); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	mergeConfig(cfg, &overlay)

	return nil
}

// mergeConfig merges non-zero values from src into dst
func mergeConfig(dst, src *Config) {
	if src.Server.Listen != "" {
		dst.Server.Listen = src.Server.Listen
	}
	if src.Server.ReadTimeoutSeconds != 0 {
		dst.Server.ReadTimeoutSeconds = src.Server.ReadTimeoutSeconds
	}
	if src.Server.WriteTimeoutSeconds != 0 {
		dst.Server.WriteTimeoutSeconds = src.Server.WriteTimeoutSeconds
	}
	if src.Server.ShutdownTimeoutSeconds != 0 {
		dst.Server.ShutdownTimeoutSeconds = src.Server.ShutdownTimeoutSeconds
	}

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}
	if src.Logging.File != "" {
		dst.Logging.File = src.Logging.File
	}
	// a file can only switch unbuffered output on; the environment can do both
	if src.Logging.Unbuffered {
		dst.Logging.Unbuffered = true
	}

	if src.Probes.TimeoutSeconds != 0 {
		dst.Probes.TimeoutSeconds = src.Probes.TimeoutSeconds
	}
	if src.Probes.NvidiaSMI != "" {
		dst.Probes.NvidiaSMI = src.Probes.NvidiaSMI
	}
	if src.Probes.ROCmSMI != "" {
		dst.Probes.ROCmSMI = src.Probes.ROCmSMI
	}
	if src.Probes.ROCmVersionFile != "" {
		dst.Probes.ROCmVersionFile = src.Probes.ROCmVersionFile
	}
	if src.Probes.Python != "" {
		dst.Probes.Python = src.Probes.Python
	}
}

// formatValidationErrors formats validation errors for display
func formatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}
