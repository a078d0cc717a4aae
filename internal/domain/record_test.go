package domain

import (
	"testing"
	"time"
)

func TestApplyStatusStampsOnTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := StatusInput{
		Key:      PathKey("data/f.json"),
		TaskDone: true,
		Worker:   "alice",
	}

	rec := ApplyStatus(ReviewRecord{}, in, now)
	if !rec.TaskDone {
		t.Fatal("task_done not set")
	}
	if rec.TaskedBy != "alice" || rec.TaskedAt != "2026-03-01T10:00:00Z" {
		t.Fatalf("task stamp: got (%q, %q)", rec.TaskedBy, rec.TaskedAt)
	}
	if rec.ReviewedAt != "" || rec.ReviewedBy != "" {
		t.Fatalf("review stamp set without transition: (%q, %q)", rec.ReviewedBy, rec.ReviewedAt)
	}
	if rec.Path != "./data" || rec.Filename != "f.json" {
		t.Fatalf("location: got (%q, %q)", rec.Path, rec.Filename)
	}
}

func TestApplyStatusPreservesStampWhileTrue(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := now.Add(48 * time.Hour)
	in := StatusInput{Key: PathKey("data/f.json"), TaskDone: true, Worker: "alice"}

	first := ApplyStatus(ReviewRecord{}, in, now)
	in.Worker = "bob"
	second := ApplyStatus(first, in, later)

	if second.TaskedAt != first.TaskedAt || second.TaskedBy != "alice" {
		t.Fatalf("stamp not preserved: (%q, %q)", second.TaskedBy, second.TaskedAt)
	}
}

func TestApplyStatusNewStampAfterRetransition(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)
	key := PathKey("data/f.json")

	rec := ApplyStatus(ReviewRecord{}, StatusInput{Key: key, TaskDone: true, Worker: "alice"}, t0)
	rec = ApplyStatus(rec, StatusInput{Key: key, TaskDone: false, Worker: "alice"}, t1)
	if rec.TaskDone {
		t.Fatal("flag not cleared")
	}
	if rec.TaskedAt != "2026-03-01T10:00:00Z" {
		t.Fatalf("stamp cleared with flag: %q", rec.TaskedAt)
	}

	rec = ApplyStatus(rec, StatusInput{Key: key, TaskDone: true, Worker: "bob"}, t2)
	if rec.TaskedAt != "2026-03-01T12:00:00Z" || rec.TaskedBy != "bob" {
		t.Fatalf("retransition stamp: (%q, %q)", rec.TaskedBy, rec.TaskedAt)
	}
}

func TestApplyStatusKeepsDeliveredAndDaily(t *testing.T) {
	daily := true
	prev := ReviewRecord{Path: "./data", Filename: "f.json", Delivered: true, Daily: &daily}
	rec := ApplyStatus(prev, StatusInput{Key: prev.Key(), Comment: "c"}, time.Now())
	if !rec.Delivered || rec.Daily == nil || !*rec.Daily {
		t.Fatal("delivered/daily not carried through")
	}
}

func TestIsEmpty(t *testing.T) {
	if !(ReviewRecord{Path: "./d", Filename: "f.json"}).IsEmpty() {
		t.Fatal("zero-status record should be empty")
	}
	if (ReviewRecord{Path: "./d", Filename: "f.json", Comment: "x"}).IsEmpty() {
		t.Fatal("commented record is not empty")
	}
	if (ReviewRecord{Path: "./d", Filename: "f.json", TaskDone: true}).IsEmpty() {
		t.Fatal("flagged record is not empty")
	}
}
