package fsutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"aicaps/internal/logging"
)

const (
	// DefaultDirPermissions is the permission used for created parent directories
	DefaultDirPermissions = 0o750
	// DefaultFilePermissions is the default permission for written report files
	DefaultFilePermissions = 0o600
)

// AtomicWriteFile writes data to a file atomically by first writing to a temp file
// and then renaming it to the target path. The file is never partially written.
func AtomicWriteFile(path string, data []byte, perm os.FileMode, logger *logging.Logger) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("fsutil.cleanup.failed", "Failed to remove temp file", map[string]interface{}{
				"path":  tmpPath,
				"error": removeErr.Error(),
			})
		}
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// WriteJSON marshals v with indentation and writes it atomically to path
func WriteJSON(path string, v interface{}, logger *logging.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := AtomicWriteFile(path, data, DefaultFilePermissions, logger); err != nil {
		return err
	}

	logger.Info("fsutil.json.saved", "JSON document saved", map[string]interface{}{
		"path":  path,
		"bytes": len(data),
	})
	return nil
}

// CloseWithError closes a resource and logs any error if a logger is provided.
func CloseWithError(closer func() error, logger *logging.Logger, resource string) {
	if err := closer(); err != nil {
		logger.Warn("fsutil.close.failed", fmt.Sprintf("Failed to close %s", resource), map[string]interface{}{
			"error": err.Error(),
		})
	}
}
