package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hylla/granska/internal/config"
)

// TestRunVersionFlag verifies behavior for the covered scenario.
func TestRunVersionFlag(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-version"}, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "granska") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"bogus"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	args := []string{"-config", filepath.Join(root, "config.toml"), "-root", root, "paths"}
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "ledger: "+filepath.Join(root, ".review.json")) {
		t.Fatalf("expected resolved ledger path, got %q", text)
	}
	if !strings.Contains(text, "assignments: "+filepath.Join(root, "workfile.xlsx")) {
		t.Fatalf("expected resolved assignment path, got %q", text)
	}
	if !strings.Contains(text, "log: ") {
		t.Fatalf("expected resolved log path, got %q", text)
	}
}

// TestRuntimeLoggerDefaultsToPlatformLogPath verifies that dev mode opens the
// platform log file when the config names no dev file.
func TestRuntimeLoggerDefaultsToPlatformLogPath(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(root, "state", "granska-dev.log")

	logger, err := newRuntimeLogger(io.Discard, true, config.Default(root), logPath, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger: %v", err)
	}
	defer func() { _ = logger.Close() }()

	if logger.devLog != logPath {
		t.Fatalf("dev log path %q, want %q", logger.devLog, logPath)
	}
	logger.Info("wired")
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("expected dev log file: %v", err)
	}
}

// TestRunMergeCommand verifies behavior for the covered scenario.
func TestRunMergeCommand(t *testing.T) {
	root := t.TempDir()
	basePath := filepath.Join(root, "base.json")
	overlayPath := filepath.Join(root, "overlay.json")
	outPath := filepath.Join(root, "merged.json")

	base := `[{"path":"./pkg","filename":"a.json","task_done":true,"tasked_by":"alice","tasked_at":"2026-03-01T10:00:00Z","review_done":false,"reviewed_by":"","reviewed_at":""}]`
	overlay := `[{"path":"./pkg","filename":"b.json","task_done":false,"tasked_by":"","tasked_at":"","review_done":true,"reviewed_by":"bob","reviewed_at":"2026-03-02T10:00:00Z"}]`
	if err := os.WriteFile(basePath, []byte(base), 0o644); err != nil {
		t.Fatalf("write base: %v", err)
	}
	if err := os.WriteFile(overlayPath, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	args := []string{
		"-config", filepath.Join(root, "config.toml"), "-root", root,
		"merge", "-base", basePath, "-overlay", overlayPath, "-out", outPath,
	}
	if err := run(context.Background(), args, io.Discard, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	merged, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	if !strings.Contains(string(merged), "a.json") || !strings.Contains(string(merged), "b.json") {
		t.Fatalf("expected records from both ledgers, got %s", merged)
	}
}

// TestRunMergeRequiresOverlay verifies behavior for the covered scenario.
func TestRunMergeRequiresOverlay(t *testing.T) {
	root := t.TempDir()
	args := []string{"-config", filepath.Join(root, "config.toml"), "-root", root, "merge"}
	err := run(context.Background(), args, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--overlay is required") {
		t.Fatalf("expected overlay requirement error, got %v", err)
	}
}

// TestRunWorkerPersistsSelection verifies behavior for the covered scenario.
func TestRunWorkerPersistsSelection(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "config.toml")
	args := []string{"-config", configPath, "-root", root, "worker", "alice"}
	var out bytes.Buffer
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(content), "alice") {
		t.Fatalf("expected persisted worker, got %s", content)
	}
	if !strings.Contains(out.String(), "worker set") {
		t.Fatalf("expected confirmation output, got %q", out.String())
	}
}

// TestRunWorkerListWithoutWorkbook verifies behavior for the covered scenario.
func TestRunWorkerListWithoutWorkbook(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	args := []string{"-config", filepath.Join(root, "config.toml"), "-root", root, "worker"}
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "no workers found") {
		t.Fatalf("expected empty worker list output, got %q", out.String())
	}
}

// TestRunReportCommand verifies behavior for the covered scenario.
func TestRunReportCommand(t *testing.T) {
	root := t.TempDir()
	ledger := `[{"path":"./pkg","filename":"a.json","task_done":true,"tasked_by":"alice","tasked_at":"2026-03-01T10:00:00Z","review_done":false,"reviewed_by":"","reviewed_at":""}]`
	if err := os.WriteFile(filepath.Join(root, ".review.json"), []byte(ledger), 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}

	var out bytes.Buffer
	args := []string{"-config", filepath.Join(root, "config.toml"), "-root", root, "-worker", "alice", "report"}
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "worker: alice") {
		t.Fatalf("expected worker header, got %q", text)
	}
	if !strings.Contains(text, "pkg/a.json") {
		t.Fatalf("expected ledger entry in report, got %q", text)
	}
}
