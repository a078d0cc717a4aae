package domain

import "testing"

func TestBuildAssignmentSetFiltersByWorker(t *testing.T) {
	rows := []AssignmentRow{
		{Directory: "./data/ko", Filename: "a.json", Worker: "alice"},
		{Directory: "./data/ko", Filename: "b.json", Worker: "bob"},
		{Directory: "./data/en", Filename: "c.json", Worker: "alice"},
	}

	set := BuildAssignmentSet(rows, "alice")
	if len(set) != 2 {
		t.Fatalf("got %d keys", len(set))
	}
	if !set.Contains(PathKey("data/ko/a.json")) || !set.Contains(PathKey("data/en/c.json")) {
		t.Fatalf("unexpected membership: %v", set.Keys())
	}
	if set.Contains(PathKey("data/ko/b.json")) {
		t.Fatal("other worker's row leaked in")
	}
}

func TestBuildAssignmentSetExactWorkerMatch(t *testing.T) {
	rows := []AssignmentRow{
		{Directory: "./d", Filename: "a.json", Worker: "Alice"},
		{Directory: "./d", Filename: "b.json", Worker: "alice "},
	}
	if set := BuildAssignmentSet(rows, "alice"); len(set) != 0 {
		t.Fatalf("worker match must be byte-for-byte, got %v", set.Keys())
	}
}

func TestBuildAssignmentSetSkipsBlankCells(t *testing.T) {
	rows := []AssignmentRow{
		{Directory: "", Filename: "a.json", Worker: "alice"},
		{Directory: "./d", Filename: "", Worker: "alice"},
		{Directory: "./d", Filename: "b.json", Worker: ""},
	}
	if set := BuildAssignmentSet(rows, "alice"); len(set) != 0 {
		t.Fatalf("blank rows must not qualify, got %v", set.Keys())
	}
}

func TestBuildAssignmentSetOrderIndependent(t *testing.T) {
	rows := []AssignmentRow{
		{Directory: "./d", Filename: "a.json", Worker: "alice"},
		{Directory: "./d", Filename: "b.json", Worker: "alice"},
	}
	reversed := []AssignmentRow{rows[1], rows[0]}

	a := BuildAssignmentSet(rows, "alice").Keys()
	b := BuildAssignmentSet(reversed, "alice").Keys()
	if len(a) != len(b) {
		t.Fatalf("sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row order changed the set: %v vs %v", a, b)
		}
	}
}

func TestContainsDir(t *testing.T) {
	set := BuildAssignmentSet([]AssignmentRow{
		{Directory: "./data/ko/train", Filename: "a.json", Worker: "alice"},
	}, "alice")

	if !set.ContainsDir(PathKey("data")) || !set.ContainsDir(PathKey("data/ko/train")) {
		t.Fatal("ancestor directories should be flagged")
	}
	if set.ContainsDir(PathKey("data/en")) {
		t.Fatal("sibling directory flagged")
	}
}

func TestWorkersDistinctSorted(t *testing.T) {
	rows := []AssignmentRow{
		{Directory: "./d", Filename: "a", Worker: "bob"},
		{Directory: "./d", Filename: "b", Worker: "alice"},
		{Directory: "./d", Filename: "c", Worker: "bob"},
		{Directory: "./d", Filename: "d", Worker: "  "},
	}
	got := Workers(rows)
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("got %v", got)
	}
}
