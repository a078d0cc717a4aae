package ledgerjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/hylla/granska/internal/domain"
)

// Store persists the review ledger as a pretty-printed JSON array. Loads are
// lenient: a missing or malformed file yields an empty ledger with a warning,
// never an error, so a bad file cannot take the host down.
type Store struct {
	path   string
	logger *log.Logger
}

// NewStore constructs a store for the ledger file at path.
func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the ledger file location.
func (s *Store) Path() string { return s.path }

// persistedRecord accepts the legacy field spellings alongside the converged
// schema. Legacy values fill the converged fields only when those are empty.
type persistedRecord struct {
	domain.ReviewRecord
	ReviewComment string `json:"review_comment,omitempty"`
	Notice        string `json:"notice,omitempty"`
}

func (p persistedRecord) migrated() domain.ReviewRecord {
	rec := p.ReviewRecord
	if rec.Comment == "" && p.ReviewComment != "" {
		rec.Comment = p.ReviewComment
	}
	if rec.Reporting == "" && p.Notice != "" {
		rec.Reporting = p.Notice
	}
	return rec
}

// Load reads the persisted ledger. Records missing their path or filename are
// dropped with a warning. Only hard I/O failures (other than absence) return
// an error.
func (s *Store) Load(_ context.Context) (domain.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Ledger{}, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(data) == 0 {
		return domain.Ledger{}, nil
	}

	var raw []persistedRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("ledger file is malformed, starting empty", "path", s.path, "err", err)
		return domain.Ledger{}, nil
	}

	ledger := make(domain.Ledger, 0, len(raw))
	for i, p := range raw {
		if p.Path == "" || p.Filename == "" {
			s.logger.Warn("dropping ledger record without path/filename", "index", i)
			continue
		}
		ledger = append(ledger, p.migrated())
	}
	return ledger, nil
}

// Save writes the full ledger pretty-printed, replacing the prior file
// atomically via a temp file in the same directory.
func (s *Store) Save(_ context.Context, ledger domain.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// MergeFiles reconciles the ledgers at basePath and overlayPath into outPath.
// A missing overlay leaves the base untouched; a missing base copies the
// overlay wholesale.
func MergeFiles(ctx context.Context, basePath, overlayPath, outPath string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	base := NewStore(basePath, logger)
	overlay := NewStore(overlayPath, logger)

	if _, err := os.Stat(overlayPath); errors.Is(err, os.ErrNotExist) {
		logger.Info("overlay ledger missing, nothing to merge", "path", overlayPath)
		if outPath == basePath {
			return nil
		}
		baseLedger, err := base.Load(ctx)
		if err != nil {
			return err
		}
		return NewStore(outPath, logger).Save(ctx, baseLedger)
	}

	baseLedger, err := base.Load(ctx)
	if err != nil {
		return err
	}
	overlayLedger, err := overlay.Load(ctx)
	if err != nil {
		return err
	}

	merged := domain.MergeLedgers(baseLedger, overlayLedger)
	return NewStore(outPath, logger).Save(ctx, merged)
}
