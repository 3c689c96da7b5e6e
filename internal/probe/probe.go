// Package probe defines the failure-isolated probe contract shared by every
// capability check: a probe always produces a report, never an error, and
// is bounded by its own deadline.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aicaps/internal/logging"
)

// DefaultTimeout bounds a probe when the caller does not supply a timeout
const DefaultTimeout = 5 * time.Second

// Report is the common surface of every probe result
type Report interface {
	IsAvailable() bool
	Reason() string
}

// Probe is a single-purpose capability check producing reports of type R
type Probe[R Report] interface {
	Name() string
	Run(ctx context.Context) R
	Unavailable(reason string) R
}

// Execute runs p under its own deadline. Panics and expired deadlines are
// converted into p.Unavailable reports; Execute itself never fails.
func Execute[R Report](ctx context.Context, p Probe[R], timeout time.Duration, logger *logging.Logger) R {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan R, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- p.Unavailable(fmt.Sprintf("%s probe panicked: %v", p.Name(), r))
			}
		}()
		done <- p.Run(runCtx)
	}()

	var report R
	select {
	case report = <-done:
	case <-runCtx.Done():
		// the probe goroutine drains into the buffered channel and exits on its own
		report = p.Unavailable(interruptReason(p.Name(), timeout, runCtx.Err()))
		logger.Warn("probe.interrupted", "Probe did not finish in time", map[string]interface{}{
			"probe":   p.Name(),
			"timeout": timeout.String(),
			"reason":  report.Reason(),
		})
	}

	logger.Debug("probe.done", "Probe finished", map[string]interface{}{
		"probe":       p.Name(),
		"available":   report.IsAvailable(),
		"reason":      report.Reason(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return report
}

func interruptReason(name string, timeout time.Duration, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s timed out after %s", name, timeout)
	}
	return fmt.Sprintf("%s cancelled: %v", name, err)
}
