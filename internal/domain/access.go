package domain

import (
	"slices"
	"strings"
)

// AccessClass is the derived visibility and edit-permission category for one
// tracked file. It is computed fresh on every query and never stored.
type AccessClass string

const (
	ClassUnassignedUntracked AccessClass = "unassigned-untracked"
	ClassUnassignedReadonly  AccessClass = "unassigned-readonly"
	ClassPending             AccessClass = "pending"
	ClassInProgress          AccessClass = "in-progress"
	ClassCompleted           AccessClass = "completed"
	ClassDelivered           AccessClass = "delivered"
	ClassInconsistent        AccessClass = "inconsistent"
)

// ReadOnly reports whether files of this class open without write access.
func (c AccessClass) ReadOnly() bool {
	return c == ClassUnassignedUntracked || c == ClassUnassignedReadonly || c == ClassDelivered
}

// Decoration is the badge rendered next to a classified file.
type Decoration struct {
	Class     AccessClass
	Badge     string
	Tooltip   string
	Annotated bool
}

// Classifier computes AccessClass decorations. TrackedExtensions holds the
// lower-cased extensions (with dot) that participate in tracking; LedgerFile
// is the ledger's own base name, which is never decorated.
type Classifier struct {
	TrackedExtensions []string
	LedgerFile        string
}

// Classify derives the decoration for key from the current assignment set and
// ledger map. The second return is false when the file is not subject to
// classification at all (untracked extension, or the ledger file itself),
// which is distinct from every AccessClass. Pure function of its inputs.
func (c Classifier) Classify(key PathKey, set AssignmentSet, records map[PathKey]ReviewRecord) (Decoration, bool) {
	name := string(key)
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if name == c.LedgerFile || !slices.Contains(c.TrackedExtensions, key.Ext()) {
		return Decoration{}, false
	}

	assigned := set.Contains(key)
	rec, tracked := records[key]

	if !tracked {
		if !assigned {
			return Decoration{
				Class:   ClassUnassignedUntracked,
				Tooltip: "not assigned, no history",
			}, true
		}
		return Decoration{
			Class:   ClassPending,
			Badge:   "◌",
			Tooltip: "not started",
		}, true
	}

	if rec.Delivered {
		return annotate(Decoration{
			Class:   ClassDelivered,
			Badge:   "🔒",
			Tooltip: "delivered",
		}, rec), true
	}

	if !assigned {
		return annotate(Decoration{
			Class:   ClassUnassignedReadonly,
			Badge:   "⛔",
			Tooltip: "not assigned to current worker",
		}, rec), true
	}

	var deco Decoration
	switch {
	case !rec.TaskDone && !rec.ReviewDone:
		deco = Decoration{Class: ClassPending, Badge: "◌", Tooltip: "not started"}
	case rec.TaskDone && !rec.ReviewDone:
		deco = Decoration{Class: ClassInProgress, Badge: "T", Tooltip: "task done, review pending"}
	case rec.TaskDone && rec.ReviewDone:
		deco = Decoration{Class: ClassCompleted, Badge: "✓", Tooltip: "task and review complete"}
	default:
		deco = Decoration{Class: ClassInconsistent, Badge: "❌", Tooltip: "review done before task"}
	}
	return annotate(deco, rec), true
}

// annotate appends the comment/reporting marker without changing the class.
func annotate(deco Decoration, rec ReviewRecord) Decoration {
	hasComment := strings.TrimSpace(rec.Comment) != ""
	hasReporting := strings.TrimSpace(rec.Reporting) != ""
	if !hasComment && !hasReporting {
		return deco
	}
	deco.Annotated = true
	deco.Badge += "💬"
	if hasComment {
		deco.Tooltip += " (has comment)"
	}
	if hasReporting {
		deco.Tooltip += " (has reporting)"
	}
	return deco
}
