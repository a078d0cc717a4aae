package app

import (
	"context"

	"github.com/hylla/granska/internal/domain"
)

// LedgerRepository represents the persisted ledger used by this package.
type LedgerRepository interface {
	Load(context.Context) (domain.Ledger, error)
	Save(context.Context, domain.Ledger) error
	Path() string
}

// AssignmentSource yields assignment rows from the tabular source.
type AssignmentSource interface {
	Rows(context.Context) ([]domain.AssignmentRow, error)
	Workers(context.Context) ([]string, error)
}

// SurfaceHost is the editor-like environment that shows file and form
// surfaces. Implementations must tolerate repeated open/close calls for the
// same key.
type SurfaceHost interface {
	OpenFile(key domain.PathKey, readOnly bool) error
	CloseFile(key domain.PathKey)
	OpenForm(session FormSession) error
	RevealForm(session FormSession) error
	CloseForm(key domain.PathKey)
	Deliver(key domain.PathKey, msg FormMessage)
	Invalidate(inv domain.Invalidation)
	Notify(text string)
}
