package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Worker    WorkerConfig    `toml:"worker"`
	Tracking  TrackingConfig  `toml:"tracking"`
	Logging   LoggingConfig   `toml:"logging"`
	Server    ServerConfig    `toml:"server"`
}

type WorkspaceConfig struct {
	Root           string `toml:"root"`
	LedgerFile     string `toml:"ledger_file"`
	AssignmentFile string `toml:"assignment_file"`
}

type WorkerConfig struct {
	Name string `toml:"name"`
}

type TrackingConfig struct {
	Extensions []string `toml:"extensions"`
}

type LoggingConfig struct {
	Level   string `toml:"level"` // debug | info | warn | error
	DevFile string `toml:"dev_file"`
}

type ServerConfig struct {
	Listen   string `toml:"listen"`
	Endpoint string `toml:"endpoint"`
}

func Default(workspaceRoot string) Config {
	return Config{
		Workspace: WorkspaceConfig{
			Root:           workspaceRoot,
			LedgerFile:     ".review.json",
			AssignmentFile: "workfile.xlsx",
		},
		Tracking: TrackingConfig{
			Extensions: []string{".json"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Listen:   "localhost:8790",
			Endpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return errors.New("workspace root is required")
	}
	if strings.TrimSpace(c.Workspace.LedgerFile) == "" {
		return errors.New("workspace.ledger_file is required")
	}
	if strings.ContainsAny(c.Workspace.LedgerFile, `/\`) {
		return fmt.Errorf("workspace.ledger_file must be a bare file name: %q", c.Workspace.LedgerFile)
	}
	if strings.TrimSpace(c.Workspace.AssignmentFile) == "" {
		return errors.New("workspace.assignment_file is required")
	}
	if strings.ContainsAny(c.Workspace.AssignmentFile, `/\`) {
		return fmt.Errorf("workspace.assignment_file must be a bare file name: %q", c.Workspace.AssignmentFile)
	}

	if len(c.Tracking.Extensions) == 0 {
		return errors.New("tracking.extensions must include at least one extension")
	}
	for i, ext := range c.Tracking.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("tracking.extensions[%d] must start with a dot: %q", i, ext)
		}
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen is required")
	}
	if !strings.HasPrefix(c.Server.Endpoint, "/") {
		return fmt.Errorf("server.endpoint must start with /: %q", c.Server.Endpoint)
	}

	return nil
}

// LedgerPath resolves the ledger file inside the workspace root.
func (c Config) LedgerPath() string {
	return filepath.Join(c.Workspace.Root, c.Workspace.LedgerFile)
}

// AssignmentPath resolves the assignment spreadsheet inside the workspace root.
func (c Config) AssignmentPath() string {
	return filepath.Join(c.Workspace.Root, c.Workspace.AssignmentFile)
}

// UpsertWorker rewrites only the worker table of the config file at path,
// creating the file when absent. Unknown keys already present in the file are
// preserved.
func UpsertWorker(path, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("worker name is required")
	}

	doc := map[string]any{}
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}
	if len(content) > 0 {
		if err := toml.Unmarshal(content, &doc); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	}

	workerTable, _ := doc["worker"].(map[string]any)
	if workerTable == nil {
		workerTable = map[string]any{}
	}
	workerTable["name"] = name
	doc["worker"] = workerTable

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
