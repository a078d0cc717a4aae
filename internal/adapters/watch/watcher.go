package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Signal names which external source changed and how.
type Signal int

const (
	SignalNone Signal = iota
	SignalLedgerChanged
	SignalLedgerRemoved
	SignalAssignmentChanged
	SignalAssignmentRemoved
)

// Handlers receives routed change signals. Each callback runs on the watch
// goroutine; implementations hand off to the service, which serializes.
type Handlers struct {
	LedgerChanged     func(ctx context.Context)
	LedgerRemoved     func(ctx context.Context)
	AssignmentChanged func(ctx context.Context)
	AssignmentRemoved func(ctx context.Context)
}

// Watcher observes the workspace root for changes to the ledger file and the
// assignment workbook. Events for other files are dropped.
type Watcher struct {
	root           string
	ledgerFile     string
	assignmentFile string
	handlers       Handlers
	logger         *log.Logger

	fw       *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// New constructs a watcher over the workspace root. ledgerFile and
// assignmentFile are bare file names resolved against root.
func New(root, ledgerFile, assignmentFile string, handlers Handlers, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		root:           root,
		ledgerFile:     ledgerFile,
		assignmentFile: assignmentFile,
		handlers:       handlers,
		logger:         logger,
		fw:             fw,
		done:           make(chan struct{}),
	}, nil
}

// Start watches the root directory and dispatches routed events until the
// context is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	go w.loop(ctx)
	return nil
}

// Stop closes the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fw.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.dispatch(ctx, routeEvent(event.Name, event.Op, w.ledgerFile, w.assignmentFile))
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, sig Signal) {
	switch sig {
	case SignalLedgerChanged:
		if w.handlers.LedgerChanged != nil {
			w.handlers.LedgerChanged(ctx)
		}
	case SignalLedgerRemoved:
		if w.handlers.LedgerRemoved != nil {
			w.handlers.LedgerRemoved(ctx)
		}
	case SignalAssignmentChanged:
		if w.handlers.AssignmentChanged != nil {
			w.handlers.AssignmentChanged(ctx)
		}
	case SignalAssignmentRemoved:
		if w.handlers.AssignmentRemoved != nil {
			w.handlers.AssignmentRemoved(ctx)
		}
	}
}

// routeEvent maps one fsnotify event to a Signal. Create and Write count as
// changes; Remove and Rename count as removals.
func routeEvent(name string, op fsnotify.Op, ledgerFile, assignmentFile string) Signal {
	base := filepath.Base(name)

	var changed, removed Signal
	switch base {
	case ledgerFile:
		changed, removed = SignalLedgerChanged, SignalLedgerRemoved
	case assignmentFile:
		changed, removed = SignalAssignmentChanged, SignalAssignmentRemoved
	default:
		return SignalNone
	}

	switch {
	case op.Has(fsnotify.Create) || op.Has(fsnotify.Write):
		return changed
	case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
		return removed
	default:
		return SignalNone
	}
}
