package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hylla/granska/internal/domain"
)

// IDGenerator returns unique identifiers for new sessions.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Worker            string
	WorkspaceRoot     string
	LedgerFile        string
	TrackedExtensions []string
}

// Service owns the in-memory ledger mirror, the assignment set, and the open
// form sessions. Every mutation is serialized behind one mutex so that watch
// events, TUI actions, and server calls never interleave a read-modify-write.
//
// SurfaceHost calls are never made while the mutex is held: host
// implementations may block on an event loop that itself calls back into
// mutex-taking service methods. State changes happen under the lock; the
// resulting host calls run after Unlock.
type Service struct {
	mu          sync.Mutex
	repo        LedgerRepository
	assignments AssignmentSource
	host        SurfaceHost
	classifier  domain.Classifier
	idGen       IDGenerator
	clock       Clock

	worker   string
	root     string
	ledger   domain.Ledger
	set      domain.AssignmentSet
	sessions map[domain.PathKey]*FormSession
}

// delivery is one pending host Deliver call collected under the lock.
type delivery struct {
	key domain.PathKey
	msg FormMessage
}

// NewService constructs a new value for this package.
func NewService(repo LedgerRepository, assignments AssignmentSource, host SurfaceHost, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.LedgerFile == "" {
		cfg.LedgerFile = ".review.json"
	}
	if len(cfg.TrackedExtensions) == 0 {
		cfg.TrackedExtensions = []string{".json"}
	}

	return &Service{
		repo:        repo,
		assignments: assignments,
		host:        host,
		classifier: domain.Classifier{
			TrackedExtensions: cfg.TrackedExtensions,
			LedgerFile:        cfg.LedgerFile,
		},
		idGen:    idGen,
		clock:    clock,
		worker:   cfg.Worker,
		root:     cfg.WorkspaceRoot,
		set:      domain.AssignmentSet{},
		sessions: map[domain.PathKey]*FormSession{},
	}
}

// Bootstrap loads the ledger and assignment set. Load-level degradation
// (missing or malformed files) is absorbed by the adapters; only hard I/O
// failures surface here.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.RefreshLedger(ctx); err != nil {
		return err
	}
	return s.RefreshAssignments(ctx)
}

// Worker returns the currently selected worker name.
func (s *Service) Worker() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worker
}

// RefreshLedger reloads the persisted ledger and invalidates all derived
// decoration state.
func (s *Service) RefreshLedger(ctx context.Context) error {
	ledger, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	s.mu.Lock()
	s.ledger = ledger
	s.mu.Unlock()

	s.host.Invalidate(domain.InvalidateAllEvent())
	return nil
}

// ResetLedger clears the in-memory ledger, used when the persisted file is
// deleted out from under the session.
func (s *Service) ResetLedger() {
	s.mu.Lock()
	s.ledger = domain.Ledger{}
	s.mu.Unlock()

	s.host.Invalidate(domain.InvalidateAllEvent())
}

// RefreshAssignments re-reads the tabular source and replaces the assignment
// set wholesale. Open sessions are re-evaluated for read-only access.
func (s *Service) RefreshAssignments(ctx context.Context) error {
	rows, err := s.assignments.Rows(ctx)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}

	s.mu.Lock()
	s.set = domain.BuildAssignmentSet(rows, s.worker)
	pending := s.reevaluateSessionsLocked()
	s.mu.Unlock()

	s.deliverAll(pending)
	s.host.Invalidate(domain.InvalidateAllEvent())
	s.host.Notify("assignments refreshed")
	return nil
}

// ClearAssignments empties the assignment set, used when the tabular source
// is deleted.
func (s *Service) ClearAssignments() {
	s.mu.Lock()
	s.set = domain.AssignmentSet{}
	pending := s.reevaluateSessionsLocked()
	s.mu.Unlock()

	s.deliverAll(pending)
	s.host.Invalidate(domain.InvalidateAllEvent())
	s.host.Notify("assignment source removed")
}

// SelectWorker switches the active worker, rebuilds the assignment set, and
// re-evaluates every open session's access.
func (s *Service) SelectWorker(ctx context.Context, worker string) error {
	if worker == "" {
		return ErrNoWorker
	}
	rows, err := s.assignments.Rows(ctx)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}

	s.mu.Lock()
	s.worker = worker
	s.set = domain.BuildAssignmentSet(rows, worker)
	pending := s.reevaluateSessionsLocked()
	s.mu.Unlock()

	s.deliverAll(pending)
	s.host.Invalidate(domain.InvalidateAllEvent())
	return nil
}

// Workers enumerates the worker names present in the tabular source.
func (s *Service) Workers(ctx context.Context) ([]string, error) {
	return s.assignments.Workers(ctx)
}

// Classify computes the decoration for a key from current state. The second
// return is false when the file does not participate in tracking.
func (s *Service) Classify(key domain.PathKey) (domain.Decoration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classifyLocked(key)
}

func (s *Service) classifyLocked(key domain.PathKey) (domain.Decoration, bool) {
	return s.classifier.Classify(key, s.set, s.ledger.AsMap())
}

// DirHasAssigned reports whether any assigned file lives under the directory.
func (s *Service) DirHasAssigned(dir domain.PathKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.ContainsDir(dir)
}

// Entry pairs a ledger key with its record and decoration for reporting.
type Entry struct {
	Key        domain.PathKey
	Record     domain.ReviewRecord
	Decoration domain.Decoration
	Tracked    bool
}

// Entries returns one row per ledger record, in ledger order, plus one row
// per assigned key that has no record yet (sorted, appended after).
func (s *Service) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[domain.PathKey]struct{}{}
	out := make([]Entry, 0, len(s.ledger)+len(s.set))
	for _, rec := range s.ledger {
		key := rec.Key()
		deco, ok := s.classifyLocked(key)
		out = append(out, Entry{Key: key, Record: rec, Decoration: deco, Tracked: ok})
		seen[key] = struct{}{}
	}
	for _, key := range s.set.Keys() {
		if _, ok := seen[key]; ok {
			continue
		}
		deco, ok := s.classifyLocked(key)
		out = append(out, Entry{Key: key, Decoration: deco, Tracked: ok})
	}
	return out
}

// Record returns the non-empty ledger record for a key, if present.
func (s *Service) Record(key domain.PathKey) (domain.ReviewRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ledger.AsMap()[key]
	return rec, ok
}

// NormalizeKey canonicalizes a path against the workspace root.
func (s *Service) NormalizeKey(p string) domain.PathKey {
	return domain.NormalizePathKey(s.root, p)
}

// OpenReview opens the file and its companion status form. When a session
// already exists for the key the existing form is revealed and refreshed
// instead of duplicated.
func (s *Service) OpenReview(ctx context.Context, p string) (FormSession, error) {
	key := s.NormalizeKey(p)

	s.mu.Lock()
	if existing, ok := s.sessions[key]; ok {
		session := *existing
		s.mu.Unlock()

		if err := s.host.RevealForm(session); err != nil {
			return FormSession{}, fmt.Errorf("reveal form: %w", err)
		}
		s.host.Deliver(key, FormMessage{Command: CommandUpdateMode, Mode: session.Mode()})
		return session, nil
	}

	deco, tracked := s.classifyLocked(key)
	readOnly := !tracked || deco.Class.ReadOnly()

	session := &FormSession{
		ID:       s.idGen(),
		Key:      key,
		ReadOnly: readOnly,
		Worker:   s.worker,
	}
	if rec, ok := s.ledger.AsMap()[key]; ok {
		session.Record = &rec
	}
	s.sessions[key] = session
	snapshot := *session
	s.mu.Unlock()

	if err := s.host.OpenFile(key, readOnly); err != nil {
		s.forgetSession(key)
		return FormSession{}, fmt.Errorf("open file: %w", err)
	}
	if err := s.host.OpenForm(snapshot); err != nil {
		s.forgetSession(key)
		s.host.CloseFile(key)
		return FormSession{}, fmt.Errorf("open form: %w", err)
	}
	s.host.Deliver(key, snapshot.InitialData())
	return snapshot, nil
}

// SaveStatus handles a form submission for an open session. Read-only
// sessions reject the save outright. On success both surfaces close and the
// form receives a completion message; on failure both stay open so the edit
// is not lost.
func (s *Service) SaveStatus(ctx context.Context, key domain.PathKey, req SaveStatusRequest) error {
	s.mu.Lock()

	session, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoSession, key)
	}
	if session.ReadOnly {
		s.mu.Unlock()
		s.host.Notify("file is read-only; status not saved")
		return fmt.Errorf("%w: %s", ErrSessionReadOnly, key)
	}

	if err := s.persistLocked(ctx, domain.StatusInput{
		Key:        key,
		TaskDone:   req.TaskDone,
		ReviewDone: req.ReviewDone,
		Comment:    req.Comment,
		Reporting:  req.Reporting,
		Worker:     session.Worker,
	}); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.sessions, key)
	s.mu.Unlock()

	s.host.Deliver(key, FormMessage{Command: CommandSaveComplete})
	s.host.CloseForm(key)
	s.host.CloseFile(key)
	s.host.Invalidate(domain.InvalidateAllEvent())
	return nil
}

// SaveStatusDirect persists a status change without an open session, used by
// the server surface. The same access rules apply: saves against read-only
// classifications are rejected.
func (s *Service) SaveStatusDirect(ctx context.Context, key domain.PathKey, req SaveStatusRequest) error {
	s.mu.Lock()

	if s.worker == "" {
		s.mu.Unlock()
		return ErrNoWorker
	}
	if deco, tracked := s.classifyLocked(key); !tracked || deco.Class.ReadOnly() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionReadOnly, key)
	}

	err := s.persistLocked(ctx, domain.StatusInput{
		Key:        key,
		TaskDone:   req.TaskDone,
		ReviewDone: req.ReviewDone,
		Comment:    req.Comment,
		Reporting:  req.Reporting,
		Worker:     s.worker,
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.host.Invalidate(domain.InvalidateAllEvent())
	return nil
}

// persistLocked applies the status to a fresh disk snapshot and writes it
// back. The in-memory ledger is replaced only after a successful save.
func (s *Service) persistLocked(ctx context.Context, in domain.StatusInput) error {
	disk, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	var prev domain.ReviewRecord
	if i := disk.Find(in.Key); i >= 0 {
		prev = disk[i]
	}
	rec := domain.ApplyStatus(prev, in, s.clock())
	next := disk.Upsert(rec)

	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	s.ledger = next
	return nil
}

// CloseForm handles a user-dismissed form: nothing is written, and the
// companion file surface closes with it.
func (s *Service) CloseForm(key domain.PathKey) {
	if !s.forgetSession(key) {
		return
	}
	s.host.CloseForm(key)
	s.host.CloseFile(key)
}

// CloseFile handles the file surface closing first; the bound form surface
// closes with it.
func (s *Service) CloseFile(key domain.PathKey) {
	if !s.forgetSession(key) {
		return
	}
	s.host.CloseForm(key)
}

// forgetSession drops the session for key, reporting whether one existed.
func (s *Service) forgetSession(key domain.PathKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		return false
	}
	delete(s.sessions, key)
	return true
}

// Session returns the open session for a key, if any.
func (s *Service) Session(key domain.PathKey) (FormSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	if !ok {
		return FormSession{}, false
	}
	return *session, true
}

// reevaluateSessionsLocked recomputes each open session's access level and
// returns the setReadOnly/updateMode messages to deliver once the lock is
// released.
func (s *Service) reevaluateSessionsLocked() []delivery {
	var pending []delivery
	for key, session := range s.sessions {
		deco, tracked := s.classifyLocked(key)
		readOnly := !tracked || deco.Class.ReadOnly()
		if readOnly == session.ReadOnly {
			continue
		}
		session.ReadOnly = readOnly
		session.Worker = s.worker
		pending = append(pending,
			delivery{key: key, msg: FormMessage{Command: CommandSetReadOnly, Value: readOnly}},
			delivery{key: key, msg: FormMessage{Command: CommandUpdateMode, Mode: session.Mode()}},
		)
	}
	return pending
}

// deliverAll forwards collected messages to the host, outside the lock.
func (s *Service) deliverAll(pending []delivery) {
	for _, d := range pending {
		s.host.Deliver(d.key, d.msg)
	}
}
