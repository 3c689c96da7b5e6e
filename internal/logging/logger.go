package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

// Level represents log severity
type Level string

const (
	// LevelDebug indicates fine-grained diagnostic logging.
	LevelDebug Level = "debug"
	// LevelInfo indicates informational logging.
	LevelInfo Level = "info"
	// LevelWarn indicates non-fatal warnings.
	LevelWarn Level = "warn"
	// LevelError indicates error logging requiring attention.
	LevelError Level = "error"
)

const (
	// FormatJSON renders one JSON object per event.
	FormatJSON = "json"
	// FormatText renders human-readable console lines.
	FormatText = "text"

	diodeBufferSize   = 1000
	diodePollInterval = 10 * time.Millisecond
)

// Options controls where and how events are rendered
type Options struct {
	Format     string
	FilePath   string
	Unbuffered bool
}

// Logger provides structured event logging on top of zerolog
type Logger struct {
	minLevel Level
	zl       zerolog.Logger
	closers  []io.Closer
}

// NewLogger creates a new logger writing JSON events to stderr without buffering
func NewLogger(minLevel Level) *Logger {
	return NewLoggerWithWriter(minLevel, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger writing synchronously to w
func NewLoggerWithWriter(minLevel Level, w io.Writer) *Logger {
	return &Logger{
		minLevel: minLevel,
		zl:       zerolog.New(w),
	}
}

// New builds a logger from options. Buffered loggers write through a
// non-blocking diode and must be closed to flush pending events.
func New(minLevel Level, opts Options) (*Logger, error) {
	logger := &Logger{minLevel: minLevel}

	var out io.Writer = os.Stderr
	if opts.FilePath != "" {
		logFile, err := openLogFile(opts.FilePath)
		if err != nil {
			return nil, err
		}
		out = logFile
		logger.closers = append(logger.closers, logFile)
	}

	if opts.Format == FormatText {
		out = zerolog.ConsoleWriter{
			Out:          out,
			NoColor:      opts.FilePath != "",
			PartsExclude: []string{zerolog.TimestampFieldName},
		}
	}

	if !opts.Unbuffered {
		// diode closes a wrapped io.Closer itself; hide it so the file is
		// closed exactly once, after the diode has flushed
		dw := diode.NewWriter(writerOnly{out}, diodeBufferSize, diodePollInterval, func(missed int) {
			fmt.Fprintf(os.Stderr, "logger dropped %d events\n", missed)
		})
		out = dw
		logger.closers = append([]io.Closer{dw}, logger.closers...)
	}

	logger.zl = zerolog.New(out)
	return logger, nil
}

// writerOnly strips Close from the wrapped writer
type writerOnly struct {
	io.Writer
}

func openLogFile(logFilePath string) (*os.File, error) {
	logDir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Clean(logFilePath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logFile, nil
}

// ParseLevel converts a config string into a Level, defaulting to info
func ParseLevel(value string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(value))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "warning":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Close flushes buffered output and closes the log file if open
func (l *Logger) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}

// Log writes a structured log event
func (l *Logger) Log(level Level, eventType, message string, payload map[string]interface{}) {
	if l == nil || !l.shouldLog(level) {
		return
	}

	event := l.zl.WithLevel(zerologLevel(level)).
		Str("ts", time.Now().UTC().Format(time.RFC3339)).
		Str("type", eventType)
	if len(payload) > 0 {
		event = event.Interface("payload", payload)
	}
	event.Msg(message)
}

// Debug logs a debug-level event
func (l *Logger) Debug(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelDebug, eventType, message, payload)
}

// Info logs an info-level event
func (l *Logger) Info(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelInfo, eventType, message, payload)
}

// Warn logs a warn-level event
func (l *Logger) Warn(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelWarn, eventType, message, payload)
}

// Error logs an error-level event
func (l *Logger) Error(eventType, message string, payload map[string]interface{}) {
	l.Log(LevelError, eventType, message, payload)
}

// shouldLog determines if a log level should be output
func (l *Logger) shouldLog(level Level) bool {
	levels := map[Level]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return levels[level] >= levels[l.minLevel]
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
