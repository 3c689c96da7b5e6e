package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"aicaps/internal/capabilities"
	"aicaps/internal/config"
	"aicaps/internal/fsutil"
	"aicaps/internal/logging"
	"aicaps/internal/probe"
	"aicaps/internal/server"
	"aicaps/internal/tui"
)

const (
	version = "0.1.0-dev"

	defaultHealthURL   = "http://127.0.0.1:8000"
	healthCheckTimeout = 5 * time.Second
)

func main() {
	if len(os.Args) <= 1 {
		runServe()
		return
	}

	command := strings.ToLower(os.Args[1])
	if handler, ok := commandHandlers()[command]; ok {
		handler()
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
	printUsage()
	os.Exit(1)
}

func commandHandlers() map[string]func() {
	return map[string]func(){
		"serve":   runServe,
		"report":  runReport,
		"tui":     runTUI,
		"health":  runHealth,
		"config":  runConfig,
		"version": runVersion,
		"help":    printUsage,
		"--help":  printUsage,
		"-h":      printUsage,
	}
}

func runVersion() {
	fmt.Printf("aicaps version %s\n", version)
}

// bootstrap loads configuration and builds the logger every command shares
func bootstrap() (config.Config, *logging.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.ParseLevel(cfg.Logging.Level), logging.Options{
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.File,
		Unbuffered: cfg.Logging.Unbuffered,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

// closeLogger flushes the logger; a failure can only be reported on w
func closeLogger(logger io.Closer, w io.Writer) {
	if err := logger.Close(); err != nil {
		fmt.Fprintf(w, "Error closing logger: %v\n", err)
	}
}

func newAggregator(cfg config.Config, logger *logging.Logger) *capabilities.Aggregator {
	probes := capabilities.NewProbes(cfg, probe.NewExecRunner(), logger)
	return capabilities.NewAggregator(probes, cfg.ProbeTimeout(), logger)
}

func runServe() {
	cfg, logger := bootstrap()
	defer closeLogger(logger, os.Stderr)

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", cfg.Server.Listen, "address to listen on")
	_ = fs.Parse(subcommandArgs())
	cfg.Server.Listen = *listen
	listenFlagSet := false
	fs.Visit(func(f *flag.Flag) { listenFlagSet = listenFlagSet || f.Name == "listen" })

	startTime := time.Now()
	logger.Info("app.started", "Application started", map[string]interface{}{
		"version": version,
		"ts":      startTime.UTC().Format(time.RFC3339),
	})

	collector := capabilities.NewSwitch(newAggregator(cfg, logger))
	srv, err := server.New(collector, cfg.Server, version, logger)
	if err != nil {
		logger.Error("app.error", "Failed to create server", map[string]interface{}{
			"error": err.Error(),
		})
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := config.NewWatcher(config.WatchPaths(), logger)
	go func() {
		err := watcher.Run(ctx, func(next config.Config) {
			if listenFlagSet {
				next.Server.Listen = cfg.Server.Listen
			}
			applyReload(cfg, next, collector, logger)
		})
		if err != nil {
			logger.Warn("config.watch.failed", "Config reload disabled", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Error("app.error", "Server stopped with error", map[string]interface{}{
			"error": err.Error(),
		})
		fmt.Fprintf(os.Stderr, "Error running server: %v\n", err)
		stop()
		closeLogger(logger, os.Stderr)
		os.Exit(1)
	}

	logger.Info("app.exited", "Application exited", map[string]interface{}{
		"reason": "signal",
		"uptime": time.Since(startTime).Round(time.Second).String(),
	})
}

// applyReload swaps in probes built from next. Server and logging settings
// are bound at startup and only take effect after a restart, so probe
// settings that no longer fit the running write timeout are rejected.
func applyReload(current, next config.Config, collector *capabilities.Switch, logger *logging.Logger) bool {
	writeTimeout := time.Duration(current.Server.WriteTimeoutSeconds) * time.Second
	if next.CollectBudget() >= writeTimeout {
		logger.Warn("config.reload.rejected", "Probe timeout exceeds the running write timeout", map[string]interface{}{
			"collect_budget": next.CollectBudget().String(),
			"write_timeout":  writeTimeout.String(),
		})
		return false
	}
	if next.Server != current.Server || next.Logging != current.Logging {
		logger.Warn("config.reload.restart_required", "Server and logging changes apply after restart", nil)
	}
	collector.Replace(newAggregator(next, logger))
	logger.Info("config.reload.applied", "Probe settings updated", map[string]interface{}{
		"probe_timeout": next.ProbeTimeout().String(),
		"python":        next.Probes.Python,
	})
	return true
}

func runReport() {
	cfg, logger := bootstrap()

	fs := flag.NewFlagSet("report", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the report as JSON")
	savePath := fs.String("save", "", "also write the JSON report to this path")
	_ = fs.Parse(subcommandArgs())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	report, err := newAggregator(cfg, logger).Collect(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error collecting capabilities: %v\n", err)
		closeLogger(logger, os.Stderr)
		os.Exit(1)
	}

	if err := writeReport(os.Stdout, report, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		closeLogger(logger, os.Stderr)
		os.Exit(1)
	}

	if *savePath != "" {
		if err := fsutil.WriteJSON(*savePath, report, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save report: %v\n", err)
			closeLogger(logger, os.Stderr)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Report saved to: %s\n", *savePath)
	}

	closeLogger(logger, os.Stderr)
}

// writeReport renders a report either as indented JSON or as the plain-text
// sections the TUI overview uses.
func writeReport(w io.Writer, report capabilities.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err := fmt.Fprintln(w, tui.RenderReport(report))
	return err
}

func runTUI() {
	cfg, logger := bootstrap()
	defer closeLogger(logger, os.Stderr)

	startTime := time.Now()
	logger.Info("app.started", "Application started", map[string]interface{}{
		"version": version,
		"mode":    "tui",
		"ts":      startTime.UTC().Format(time.RFC3339),
	})

	p := tea.NewProgram(tui.NewModel(newAggregator(cfg, logger), logger), tea.WithAltScreen())

	exitReason := "normal"
	if _, err := p.Run(); err != nil {
		exitReason = "error"
		logger.Error("app.error", "Application error", map[string]interface{}{
			"error": err.Error(),
		})
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		closeLogger(logger, os.Stderr)
		os.Exit(1)
	}

	logger.Info("app.exited", "Application exited", map[string]interface{}{
		"ts":     time.Now().UTC().Format(time.RFC3339),
		"reason": exitReason,
	})
}

func runHealth() {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	baseURL := fs.String("url", defaultHealthURL, "base URL of a running aicaps server")
	_ = fs.Parse(subcommandArgs())

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	resp, err := checkHealth(ctx, http.DefaultClient, *baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Server unhealthy: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Server healthy (version %s)\n", resp.Version)
}

// checkHealth queries GET /health and fails unless the server reports healthy
func checkHealth(ctx context.Context, client *http.Client, baseURL string) (server.HealthResponse, error) {
	var health server.HealthResponse

	url := strings.TrimRight(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return health, fmt.Errorf("invalid url: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return health, err
	}
	defer fsutil.CloseWithError(resp.Body.Close, nil, "response body")

	if resp.StatusCode != http.StatusOK {
		return health, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, fmt.Errorf("invalid health response: %w", err)
	}
	if health.Status != "healthy" {
		return health, errors.New("status " + health.Status)
	}
	return health, nil
}

func runConfig() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: aicaps config <subcommand>\n")
		fmt.Fprintf(os.Stderr, "Subcommands:\n")
		fmt.Fprintf(os.Stderr, "  test [path]  Test configuration file for validity\n")
		os.Exit(1)
	}

	subcommand := strings.ToLower(os.Args[2])

	switch subcommand {
	case "test":
		runConfigTest()
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", subcommand)
		fmt.Fprintf(os.Stderr, "Valid subcommands: test\n")
		os.Exit(1)
	}
}

func runConfigTest() {
	logger := logging.NewLogger(logging.LevelInfo)

	var cfg config.Config
	var configErr error

	if len(os.Args) > 3 {
		path := os.Args[3]
		fmt.Printf("Testing configuration file: %s\n", path)
		cfg, configErr = config.LoadFrom(path)
	} else {
		fmt.Println("Testing configuration (system + user merge):")
		fmt.Printf("  System config: %s\n", config.SystemConfigPath())
		if userPath := config.UserConfigPath(); userPath != "" {
			fmt.Printf("  User config:   %s\n", userPath)
		}
		fmt.Println()

		cfg, configErr = config.Load()
	}

	if configErr != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation FAILED:\n")
		fmt.Fprintf(os.Stderr, "   %v\n", configErr)

		logger.Error("config.validation.error", "Configuration validation failed", map[string]interface{}{
			"error": configErr.Error(),
		})
		os.Exit(1)
	}

	fmt.Println("✓ Configuration is VALID")
	fmt.Println()
	printConfigSummary(os.Stdout, cfg)

	logger.Info("config.validation.ok", "Configuration validation passed", map[string]interface{}{
		"listen": cfg.Server.Listen,
	})
}

func printConfigSummary(w io.Writer, cfg config.Config) {
	fmt.Fprintln(w, "Configuration Summary:")
	fmt.Fprintf(w, "  Listen:               %s\n", cfg.Server.Listen)
	fmt.Fprintf(w, "  Log Level:            %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  Log Format:           %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "  Unbuffered:           %t\n", cfg.Logging.Unbuffered)
	fmt.Fprintf(w, "  Probe Timeout:        %s\n", cfg.ProbeTimeout())
	fmt.Fprintf(w, "  nvidia-smi:           %s\n", cfg.Probes.NvidiaSMI)
	fmt.Fprintf(w, "  rocm-smi:             %s\n", cfg.Probes.ROCmSMI)
	fmt.Fprintf(w, "  Python:               %s\n", cfg.Probes.Python)
}

// subcommandArgs returns the arguments after the command name
func subcommandArgs() []string {
	if len(os.Args) < 3 {
		return nil
	}
	return os.Args[2:]
}

func printUsage() {
	fmt.Printf(`aicaps - AI capabilities diagnostics (version %s)

Usage:
  aicaps                           Start the HTTP server (default)
  aicaps serve [--listen addr]     Start the HTTP server (dashboard, /api/capabilities, /health)
  aicaps report [--json] [--save path]  Collect capabilities once and print them
  aicaps tui                       Start the interactive TUI
  aicaps health [--url base]       Check a running server via GET /health
  aicaps config test [path]        Test configuration file for validity (defaults to system/user configs)
  aicaps version                   Print version information
  aicaps help                      Show this help message

Environment:
  AICAPS_LISTEN        Override server.listen
  AICAPS_LOG_LEVEL     Override logging.level
  AICAPS_UNBUFFERED    Write log events synchronously (true/false)
  AICAPS_PYTHON        Python interpreter used for framework detection
  AICAPS_CONFIG_DIR    Directory holding the system config.yaml
`, version)
}
