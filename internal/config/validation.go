package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateProbes()...)
	errors = append(errors, c.validateCollectBudget()...)

	return errors
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if _, port, err := net.SplitHostPort(c.Server.Listen); err != nil || port == "" {
		errors = append(errors, ValidationError{
			Path:    "server.listen",
			Message: fmt.Sprintf("must be host:port, got '%s'", c.Server.Listen),
		})
	}

	timeouts := []struct {
		path  string
		value int
	}{
		{"server.read_timeout_seconds", c.Server.ReadTimeoutSeconds},
		{"server.write_timeout_seconds", c.Server.WriteTimeoutSeconds},
		{"server.shutdown_timeout_seconds", c.Server.ShutdownTimeoutSeconds},
	}
	for _, timeout := range timeouts {
		if timeout.value < 1 {
			errors = append(errors, ValidationError{
				Path:    timeout.path,
				Message: fmt.Sprintf("must be at least 1, got %d", timeout.value),
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		errors = append(errors, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
		})
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		errors = append(errors, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validFormats, c.Logging.Format),
		})
	}

	return errors
}

func (c *Config) validateProbes() []ValidationError {
	var errors []ValidationError

	if c.Probes.TimeoutSeconds < 1 || c.Probes.TimeoutSeconds > MaxProbeTimeoutSeconds {
		errors = append(errors, ValidationError{
			Path:    "probes.timeout_seconds",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxProbeTimeoutSeconds, c.Probes.TimeoutSeconds),
		})
	}

	tools := []struct {
		path  string
		value string
	}{
		{"probes.nvidia_smi", c.Probes.NvidiaSMI},
		{"probes.rocm_smi", c.Probes.ROCmSMI},
		{"probes.python", c.Probes.Python},
	}
	for _, tool := range tools {
		if strings.TrimSpace(tool.value) == "" {
			errors = append(errors, ValidationError{
				Path:    tool.path,
				Message: "must not be empty",
			})
		}
	}

	return errors
}

// validateCollectBudget keeps the response deadline above the slowest
// collection, so a hung tool still yields a report instead of a dropped
// connection.
func (c *Config) validateCollectBudget() []ValidationError {
	budget := c.Probes.TimeoutSeconds + CollectGraceSeconds
	if c.Server.WriteTimeoutSeconds < 1 || c.Probes.TimeoutSeconds < 1 {
		return nil
	}
	if c.Server.WriteTimeoutSeconds <= budget {
		return []ValidationError{{
			Path: "server.write_timeout_seconds",
			Message: fmt.Sprintf("must exceed probes.timeout_seconds + %d (%d), got %d",
				CollectGraceSeconds, budget, c.Server.WriteTimeoutSeconds),
		}}
	}
	return nil
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
