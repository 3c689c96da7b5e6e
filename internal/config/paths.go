package config

import (
	"os"
	"path/filepath"
)

// EnvConfigDir relocates the system config directory, mainly for containers and tests
const EnvConfigDir = "AICAPS_CONFIG_DIR"

const (
	defaultSystemDir = "/etc/aicaps"
	userDirName      = ".aicaps"
	configFileName   = "config.yaml"
	tomlFileName     = "config.toml"
)

// SystemDir returns the directory holding the system-wide config file
func SystemDir() string {
	if env := os.Getenv(EnvConfigDir); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	return defaultSystemDir
}

// SystemConfigPath returns the path to the system configuration file
func SystemConfigPath() string {
	return filepath.Join(SystemDir(), configFileName)
}

// UserConfigPath returns the per-user config file, or "" without a home directory
func UserConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ""
	}
	return filepath.Join(homeDir, userDirName, configFileName)
}

// SystemConfigFiles lists the system config candidates, YAML before TOML
func SystemConfigFiles() []string {
	return []string{SystemConfigPath(), filepath.Join(SystemDir(), tomlFileName)}
}

// UserConfigFiles lists the per-user config candidates, YAML before TOML
func UserConfigFiles() []string {
	yamlPath := UserConfigPath()
	if yamlPath == "" {
		return nil
	}
	return []string{yamlPath, filepath.Join(filepath.Dir(yamlPath), tomlFileName)}
}

// WatchPaths lists every file Load reads, in merge order
func WatchPaths() []string {
	return append(SystemConfigFiles(), UserConfigFiles()...)
}
