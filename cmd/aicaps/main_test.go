package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"aicaps/internal/capabilities"
	"aicaps/internal/capacity"
	"aicaps/internal/config"
	"aicaps/internal/frameworks"
	"aicaps/internal/gpu"
	"aicaps/internal/hostinfo"
	"aicaps/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() capabilities.Report {
	return capabilities.Report{
		System: hostinfo.SystemFacts{
			Platform:        "linux-6.5.0-x86_64 (ubuntu 22.04)",
			CPUCount:        8,
			CPUCountLogical: 16,
			MemoryTotal:     32 << 30,
		},
		CUDA:      gpu.CUDAReport{Status: gpu.Status{Error: "no compatible runtime found"}, GPUs: []gpu.CUDADevice{}},
		NvidiaSMI: gpu.SMIReport{Status: gpu.Status{Error: "nvidia-smi not found"}, GPUs: []gpu.SMIDevice{}},
		ROCm:      gpu.ROCmReport{Status: gpu.Status{Error: "rocm-smi not found"}},
		Frameworks: frameworks.Report{Entries: []frameworks.Entry{
			{Name: "pytorch"},
		}},
		TokenCapacity: capacity.Result{
			EstimatedMaxContextLength: 2048,
			SuggestedModels:           []string{"Phi-2"},
			Basis:                     capacity.BasisCPU,
			MemoryGiB:                 32,
		},
	}
}

func TestCommandHandlers(t *testing.T) {
	handlers := commandHandlers()
	for _, name := range []string{"serve", "report", "tui", "health", "config", "version", "help", "--help", "-h"} {
		if _, ok := handlers[name]; !ok {
			t.Errorf("Expected handler for command %q", name)
		}
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, testReport(), true))

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"system", "cuda", "nvidia_smi", "rocm", "frameworks", "token_capacity"} {
		assert.Contains(t, decoded, key)
	}
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, testReport(), false))

	output := buf.String()
	assert.Contains(t, output, "Not available: nvidia-smi not found")
	assert.Contains(t, output, "Phi-2")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(output), "{"))
}

func TestCheckHealth_Healthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","version":"1.2.3"}`))
	}))
	defer ts.Close()

	resp, err := checkHealth(context.Background(), ts.Client(), ts.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestCheckHealth_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `{}`, "unexpected status 500"},
		{"bad body", http.StatusOK, `not json`, "invalid health response"},
		{"degraded", http.StatusOK, `{"status":"degraded","version":"1"}`, "status degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := checkHealth(context.Background(), ts.Client(), ts.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckHealth_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := checkHealth(context.Background(), http.DefaultClient, url)
	assert.Error(t, err)
}

func TestPrintConfigSummary(t *testing.T) {
	var buf bytes.Buffer
	printConfigSummary(&buf, config.DefaultConfig())

	output := buf.String()
	assert.Contains(t, output, ":8000")
	assert.Contains(t, output, "5s")
	assert.Contains(t, output, "python3")
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("file already closed") }

func TestCloseLogger_ReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	closeLogger(failingCloser{}, &buf)
	assert.Contains(t, buf.String(), "Error closing logger: file already closed")
}

func TestCloseLogger_BufferedFileLoggerClosesCleanly(t *testing.T) {
	logger, err := logging.New(logging.LevelInfo, logging.Options{
		Format:   logging.FormatJSON,
		FilePath: filepath.Join(t.TempDir(), "aicaps.log"),
	})
	require.NoError(t, err)
	logger.Info("test.close", "closing", nil)

	var buf bytes.Buffer
	closeLogger(logger, &buf)
	assert.Empty(t, buf.String())
}

func TestApplyReload_RejectsProbeTimeoutBeyondWriteTimeout(t *testing.T) {
	current := config.DefaultConfig()
	current.Server.WriteTimeoutSeconds = 10

	next := current
	next.Probes.TimeoutSeconds = 20

	// a nil aggregator is never collected from when the reload is rejected
	collector := capabilities.NewSwitch(nil)
	if applyReload(current, next, collector, logging.NewLogger(logging.LevelError)) {
		t.Error("Expected reload to be rejected when a collection could outlast the write timeout")
	}
}
