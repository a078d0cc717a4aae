package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hylla/granska/internal/adapters/assignment/xlsxsource"
	"github.com/hylla/granska/internal/adapters/server"
	"github.com/hylla/granska/internal/adapters/storage/ledgerjson"
	"github.com/hylla/granska/internal/adapters/watch"
	"github.com/hylla/granska/internal/app"
	"github.com/hylla/granska/internal/config"
	"github.com/hylla/granska/internal/platform"
	"github.com/hylla/granska/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
	Send(tea.Msg)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("granska", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		rootPath   string
		workerName string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("GRANSKA_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&rootPath, "root", "", "workspace root containing the ledger and assignment files")
	fs.StringVar(&workerName, "worker", "", "worker identity override")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (granska-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "granska %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{DevMode: devMode})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "", "paths", "report", "merge", "worker", "serve":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("GRANSKA_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if rootPath == "" {
		if envRoot := strings.TrimSpace(os.Getenv("GRANSKA_ROOT")); envRoot != "" {
			rootPath = envRoot
		} else if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			rootPath = cwd
		} else {
			rootPath = "."
		}
	}

	cfg, err := config.Load(configPath, config.Default(rootPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if strings.TrimSpace(rootPath) != "" {
		cfg.Workspace.Root = rootPath
	}
	if strings.TrimSpace(workerName) != "" {
		cfg.Worker.Name = strings.TrimSpace(workerName)
	}

	if command == "paths" {
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "log: %s\n", paths.LogPath)
		_, _ = fmt.Fprintf(stdout, "workspace: %s\n", cfg.Workspace.Root)
		_, _ = fmt.Fprintf(stdout, "ledger: %s\n", cfg.LedgerPath())
		_, _ = fmt.Fprintf(stdout, "assignments: %s\n", cfg.AssignmentPath())
		return nil
	}

	logger, err := newRuntimeLogger(stderr, devMode, cfg, paths.LogPath, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink
		// while the browser is active.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.consoleEnabled {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "workspace", cfg.Workspace.Root)
	logger.Info("configuration loaded", "ledger", cfg.LedgerPath(), "assignments", cfg.AssignmentPath(), "worker", cfg.Worker.Name, "log_level", cfg.Logging.Level)

	switch command {
	case "merge":
		logger.Info("command flow start", "command", "merge")
		if err := runMerge(ctx, cfg, fs.Args()[1:], logger.AdapterSink()); err != nil {
			logger.Error("command flow failed", "command", "merge", "err", err)
			return fmt.Errorf("run merge command: %w", err)
		}
		logger.Info("command flow complete", "command", "merge")
		return nil
	case "worker":
		logger.Info("command flow start", "command", "worker")
		if err := runWorker(ctx, cfg, configPath, fs.Args()[1:], stdout, logger.AdapterSink()); err != nil {
			logger.Error("command flow failed", "command", "worker", "err", err)
			return fmt.Errorf("run worker command: %w", err)
		}
		logger.Info("command flow complete", "command", "worker")
		return nil
	}

	svcLogger := logger.AdapterSink()
	store := ledgerjson.NewStore(cfg.LedgerPath(), svcLogger)
	reader := xlsxsource.NewReader(cfg.AssignmentPath(), svcLogger)
	bridge := tui.NewSurfaceBridge()

	svc := app.NewService(store, reader, bridge, uuid.NewString, time.Now, app.ServiceConfig{
		Worker:            cfg.Worker.Name,
		WorkspaceRoot:     cfg.Workspace.Root,
		LedgerFile:        cfg.Workspace.LedgerFile,
		TrackedExtensions: cfg.Tracking.Extensions,
	})
	if err := svc.Bootstrap(ctx); err != nil {
		logger.Error("service bootstrap failed", "err", err)
		return fmt.Errorf("bootstrap service: %w", err)
	}
	logger.Debug("application service initialized", "worker", cfg.Worker.Name, "extensions", strings.Join(cfg.Tracking.Extensions, ","))

	switch command {
	case "report":
		logger.Info("command flow start", "command", "report")
		if err := runReport(svc, stdout); err != nil {
			logger.Error("command flow failed", "command", "report", "err", err)
			return fmt.Errorf("run report command: %w", err)
		}
		logger.Info("command flow complete", "command", "report")
		return nil
	case "serve":
		logger.Info("command flow start", "command", "serve", "listen", cfg.Server.Listen, "endpoint", cfg.Server.Endpoint)
		err := server.Run(ctx, server.Config{
			HTTPBind:      cfg.Server.Listen,
			MCPEndpoint:   cfg.Server.Endpoint,
			ServerName:    "granska",
			ServerVersion: version,
		}, svc, svcLogger)
		if err != nil {
			logger.Error("command flow failed", "command", "serve", "err", err)
			return fmt.Errorf("run serve command: %w", err)
		}
		logger.Info("command flow complete", "command", "serve")
		return nil
	}

	logger.Info("command flow start", "command", "tui")
	watcher, err := watch.New(cfg.Workspace.Root, cfg.Workspace.LedgerFile, cfg.Workspace.AssignmentFile, watch.Handlers{
		LedgerChanged: func(ctx context.Context) {
			if err := svc.RefreshLedger(ctx); err != nil {
				logger.Warn("ledger refresh failed", "err", err)
			}
		},
		LedgerRemoved: func(context.Context) { svc.ResetLedger() },
		AssignmentChanged: func(ctx context.Context) {
			if err := svc.RefreshAssignments(ctx); err != nil {
				logger.Warn("assignment refresh failed", "err", err)
			}
		},
		AssignmentRemoved: func(context.Context) { svc.ClearAssignments() },
	}, svcLogger)
	if err != nil {
		logger.Warn("workspace watcher unavailable", "root", cfg.Workspace.Root, "err", err)
	} else {
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("workspace watcher start failed", "root", cfg.Workspace.Root, "err", err)
		}
		defer watcher.Stop()
	}

	m := tui.NewModel(svc)
	p := programFactory(m)
	bridge.Attach(p)
	if _, err := p.Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runMerge runs the requested command flow.
func runMerge(ctx context.Context, cfg config.Config, args []string, logger *charmLog.Logger) error {
	fs := flag.NewFlagSet("granska merge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var basePath, overlayPath, outPath string
	fs.StringVar(&basePath, "base", "", "base ledger path (defaults to the workspace ledger)")
	fs.StringVar(&overlayPath, "overlay", "", "overlay ledger path")
	fs.StringVar(&outPath, "out", "", "output path (defaults to the base ledger)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse merge flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected merge arguments: %v", fs.Args())
	}

	if basePath == "" {
		basePath = cfg.LedgerPath()
	}
	if overlayPath == "" {
		return errors.New("--overlay is required")
	}
	if outPath == "" {
		outPath = basePath
	}
	if err := ledgerjson.MergeFiles(ctx, basePath, overlayPath, outPath, logger); err != nil {
		return fmt.Errorf("merge ledgers: %w", err)
	}
	return nil
}

// runWorker lists workers from the assignment source, or persists a selection
// when a name argument is given.
func runWorker(ctx context.Context, cfg config.Config, configPath string, args []string, stdout io.Writer, logger *charmLog.Logger) error {
	reader := xlsxsource.NewReader(cfg.AssignmentPath(), logger)

	if len(args) > 0 {
		name := strings.TrimSpace(strings.Join(args, " "))
		if name == "" {
			return errors.New("worker name is required")
		}
		if err := config.UpsertWorker(configPath, name); err != nil {
			return fmt.Errorf("persist worker selection: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "worker set to %q in %s\n", name, configPath)
		return nil
	}

	names, err := reader.Workers(ctx)
	if err != nil {
		return fmt.Errorf("list workers: %w", err)
	}
	if len(names) == 0 {
		_, _ = fmt.Fprintln(stdout, "no workers found in", cfg.AssignmentPath())
		return nil
	}
	for _, name := range names {
		marker := " "
		if name == cfg.Worker.Name {
			marker = "*"
		}
		_, _ = fmt.Fprintf(stdout, "%s %s\n", marker, name)
	}
	return nil
}

// runReport prints the classification table for every known key.
func runReport(svc *app.Service, stdout io.Writer) error {
	if worker := svc.Worker(); worker != "" {
		_, _ = fmt.Fprintf(stdout, "worker: %s\n", worker)
	}
	entries := svc.Entries()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(stdout, "no tracked files")
		return nil
	}
	for _, entry := range entries {
		badge := entry.Decoration.Badge
		if badge == "" {
			badge = "-"
		}
		_, _ = fmt.Fprintf(stdout, "%s\t%s\t%s\t%s\n", badge, entry.Key, entry.Decoration.Class, entry.Decoration.Tooltip)
	}
	return nil
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional
// dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state. In dev
// mode the file sink defaults to the platform log path when the config names
// no dev file.
func newRuntimeLogger(stderr io.Writer, devMode bool, cfg config.Config, defaultLogPath string, now func() time.Time) (*runtimeLogger, error) {
	levelName := strings.TrimSpace(cfg.Logging.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Logging.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          "granska",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode {
		return logger, nil
	}

	devLogPath := strings.TrimSpace(cfg.Logging.DevFile)
	defaulted := devLogPath == ""
	if defaulted {
		devLogPath = strings.TrimSpace(defaultLogPath)
	}
	if devLogPath == "" {
		return logger, nil
	}
	if !filepath.IsAbs(devLogPath) {
		devLogPath = filepath.Join(cfg.Workspace.Root, devLogPath)
	}
	logFile, err := openDevLog(devLogPath)
	if err != nil {
		if defaulted {
			// Only an explicitly configured dev file is a hard error.
			logger.Warn("dev file logging unavailable", "path", devLogPath, "err", err)
			return logger, nil
		}
		return nil, err
	}

	// Keep file output parseable and unstyled while preserving styled console
	// logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          "granska",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	logger.Info("dev file logging enabled", "path", devLogPath, "started_at", now().UTC().Format(time.RFC3339))
	return logger, nil
}

// openDevLog creates the dev log directory and opens the file for append.
func openDevLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	return f, nil
}

// AdapterSink returns the single sink adapters should log through: the dev
// file when open, otherwise the console while it is enabled.
func (l *runtimeLogger) AdapterSink() *charmLog.Logger {
	if l == nil {
		return charmLog.New(io.Discard)
	}
	if len(l.sinks) > 1 {
		return l.sinks[len(l.sinks)-1]
	}
	if l.consoleEnabled {
		return l.consoleSink
	}
	return charmLog.New(io.Discard)
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}
