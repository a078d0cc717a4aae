package domain

import (
	"slices"
	"strings"
)

// AssignmentRow is one data row of the assignment source: a file located by
// (directory, filename) assigned to a named worker. Rows with any blank cell
// never qualify.
type AssignmentRow struct {
	Directory string
	Filename  string
	Worker    string
}

// Key derives the canonical PathKey for the row.
func (r AssignmentRow) Key() PathKey {
	return JoinKey(r.Directory, r.Filename)
}

// AssignmentSet is the set of keys assigned to the current worker. Membership
// decides write access; the set is replaced wholesale on every refresh.
type AssignmentSet map[PathKey]struct{}

// BuildAssignmentSet filters rows down to the given worker. The worker match
// is exact: no trimming, no case folding. Rows with a blank directory,
// filename, or worker are skipped. A blank worker argument yields an empty
// set, since no row can match it.
func BuildAssignmentSet(rows []AssignmentRow, worker string) AssignmentSet {
	set := make(AssignmentSet)
	if worker == "" {
		return set
	}
	for _, row := range rows {
		if row.Directory == "" || row.Filename == "" || row.Worker == "" {
			continue
		}
		if row.Worker != worker {
			continue
		}
		set[row.Key()] = struct{}{}
	}
	return set
}

// Contains reports membership of a single key.
func (s AssignmentSet) Contains(key PathKey) bool {
	_, ok := s[key]
	return ok
}

// ContainsDir reports whether any assigned key lives under the directory.
func (s AssignmentSet) ContainsDir(dir PathKey) bool {
	for key := range s {
		if key.HasPrefixDir(dir) {
			return true
		}
	}
	return false
}

// Keys returns the assigned keys in sorted order.
func (s AssignmentSet) Keys() []PathKey {
	out := make([]PathKey, 0, len(s))
	for key := range s {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}

// Workers enumerates the distinct worker names present in the rows, sorted.
// Blank cells are skipped the same way qualification does.
func Workers(rows []AssignmentRow) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		name := row.Worker
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
