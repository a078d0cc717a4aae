package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/ws")
	if cfg.Workspace.Root != "/tmp/ws" {
		t.Fatalf("unexpected root %q", cfg.Workspace.Root)
	}
	if cfg.Workspace.LedgerFile != ".review.json" {
		t.Fatalf("unexpected ledger file %q", cfg.Workspace.LedgerFile)
	}
	if cfg.Workspace.AssignmentFile != "workfile.xlsx" {
		t.Fatalf("unexpected assignment file %q", cfg.Workspace.AssignmentFile)
	}
	if len(cfg.Tracking.Extensions) != 1 || cfg.Tracking.Extensions[0] != ".json" {
		t.Fatalf("unexpected extensions %v", cfg.Tracking.Extensions)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/ws")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workspace.Root != defaults.Workspace.Root {
		t.Fatalf("expected default root, got %q", cfg.Workspace.Root)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[workspace]
root = "/custom/ws"
ledger_file = ".review.json"
assignment_file = "assign.xlsx"

[worker]
name = "alice"

[tracking]
extensions = [".json", ".jsonl"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/ws"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workspace.Root != "/custom/ws" {
		t.Fatalf("unexpected root %q", cfg.Workspace.Root)
	}
	if cfg.Worker.Name != "alice" {
		t.Fatalf("unexpected worker %q", cfg.Worker.Name)
	}
	if len(cfg.Tracking.Extensions) != 2 {
		t.Fatalf("unexpected extensions %v", cfg.Tracking.Extensions)
	}
	if cfg.AssignmentPath() != filepath.Join("/custom/ws", "assign.xlsx") {
		t.Fatalf("unexpected assignment path %q", cfg.AssignmentPath())
	}
}

func TestLoadRejectsBadExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[workspace]
root = "/ws"

[tracking]
extensions = ["json"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/ws")); err == nil {
		t.Fatal("expected error for extension without dot")
	}
}

func TestLoadRejectsPathyLedgerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[workspace]
root = "/ws"
ledger_file = "sub/.review.json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/ws")); err == nil {
		t.Fatal("expected error for ledger file with separators")
	}
}

func TestUpsertWorkerPreservesOtherTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[workspace]
root = "/ws"

[worker]
name = "alice"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := UpsertWorker(path, "bob"); err != nil {
		t.Fatalf("UpsertWorker() error = %v", err)
	}

	cfg, err := Load(path, Default("/fallback"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Worker.Name != "bob" {
		t.Fatalf("worker not updated: %q", cfg.Worker.Name)
	}
	if cfg.Workspace.Root != "/ws" {
		t.Fatalf("workspace table lost: %q", cfg.Workspace.Root)
	}
}

func TestUpsertWorkerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := UpsertWorker(path, "carol"); err != nil {
		t.Fatalf("UpsertWorker() error = %v", err)
	}
	cfg, err := Load(path, Default("/ws"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Worker.Name != "carol" {
		t.Fatalf("unexpected worker %q", cfg.Worker.Name)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
