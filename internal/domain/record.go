package domain

import (
	"strings"
	"time"
)

// ReviewRecord is one entry in the persisted ledger. Path holds the
// ledger-style directory ("./dir/subdir"), Filename the base name; together
// they derive the record's PathKey. Timestamps are RFC 3339 strings, empty
// when the corresponding flag has never been set.
type ReviewRecord struct {
	Path       string `json:"path"`
	Filename   string `json:"filename"`
	TaskDone   bool   `json:"task_done"`
	TaskedBy   string `json:"tasked_by"`
	TaskedAt   string `json:"tasked_at"`
	ReviewDone bool   `json:"review_done"`
	ReviewedBy string `json:"reviewed_by"`
	ReviewedAt string `json:"reviewed_at"`
	Comment    string `json:"comment,omitempty"`
	Reporting  string `json:"reporting,omitempty"`
	Daily      *bool  `json:"daily,omitempty"`
	Delivered  bool   `json:"delivered,omitempty"`
}

// StatusInput carries the editable fields of a status form submission.
type StatusInput struct {
	Key        PathKey
	TaskDone   bool
	ReviewDone bool
	Comment    string
	Reporting  string
	Worker     string
}

// Key derives the canonical PathKey for the record.
func (r ReviewRecord) Key() PathKey {
	return JoinKey(r.Path, r.Filename)
}

// IsEmpty reports whether the record carries no information: both flags
// false and no comment or reporting text. Empty records are treated as
// absent when classifying, though they survive in the persisted array.
func (r ReviewRecord) IsEmpty() bool {
	return !r.TaskDone && !r.ReviewDone &&
		strings.TrimSpace(r.Comment) == "" &&
		strings.TrimSpace(r.Reporting) == ""
}

// ApplyStatus merges a form submission into an existing record (the zero
// ReviewRecord when the file was never tracked). Timestamps obey the
// transition rule: a stamp is written only when a flag flips from false to
// true. Once set, a stamp is preserved even if the flag later flips false;
// the next false-to-true transition overwrites it with a fresh one.
func ApplyStatus(prev ReviewRecord, in StatusInput, now time.Time) ReviewRecord {
	dir, name := SplitKey(in.Key)
	rec := ReviewRecord{
		Path:       dir,
		Filename:   name,
		TaskDone:   in.TaskDone,
		TaskedBy:   prev.TaskedBy,
		TaskedAt:   prev.TaskedAt,
		ReviewDone: in.ReviewDone,
		ReviewedBy: prev.ReviewedBy,
		ReviewedAt: prev.ReviewedAt,
		Comment:    in.Comment,
		Reporting:  in.Reporting,
		Daily:      prev.Daily,
		Delivered:  prev.Delivered,
	}

	stamp := now.UTC().Format(time.RFC3339)
	if in.TaskDone && !prev.TaskDone {
		rec.TaskedBy = in.Worker
		rec.TaskedAt = stamp
	}
	if in.ReviewDone && !prev.ReviewDone {
		rec.ReviewedBy = in.Worker
		rec.ReviewedAt = stamp
	}
	return rec
}
