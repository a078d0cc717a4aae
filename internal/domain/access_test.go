package domain

import "testing"

func testClassifier() Classifier {
	return Classifier{TrackedExtensions: []string{".json"}, LedgerFile: ".review.json"}
}

func TestClassifyNotApplicable(t *testing.T) {
	c := testClassifier()
	if _, ok := c.Classify(PathKey("data/readme.md"), nil, nil); ok {
		t.Fatal("untracked extension should not classify")
	}
	if _, ok := c.Classify(PathKey(".review.json"), nil, nil); ok {
		t.Fatal("the ledger file itself should not classify")
	}
	if _, ok := c.Classify(PathKey("data/.review.json"), nil, nil); ok {
		t.Fatal("the ledger file should not classify regardless of directory")
	}
}

func TestClassifyNoRecord(t *testing.T) {
	c := testClassifier()
	key := PathKey("data/f.json")

	deco, ok := c.Classify(key, AssignmentSet{key: {}}, nil)
	if !ok || deco.Class != ClassPending || deco.Badge != "◌" {
		t.Fatalf("assigned without record: %+v (ok=%v)", deco, ok)
	}

	deco, ok = c.Classify(key, AssignmentSet{}, nil)
	if !ok || deco.Class != ClassUnassignedUntracked {
		t.Fatalf("unassigned without record: %+v (ok=%v)", deco, ok)
	}
	if !deco.Class.ReadOnly() {
		t.Fatal("untracked class must be read-only")
	}
}

func TestClassifyDeliveredOverridesAll(t *testing.T) {
	c := testClassifier()
	key := PathKey("data/f.json")
	records := map[PathKey]ReviewRecord{
		key: {Path: "./data", Filename: "f.json", TaskDone: true, ReviewDone: true, Delivered: true},
	}

	deco, ok := c.Classify(key, AssignmentSet{key: {}}, records)
	if !ok || deco.Class != ClassDelivered {
		t.Fatalf("got %+v", deco)
	}
	if !deco.Class.ReadOnly() {
		t.Fatal("delivered must be read-only")
	}
}

func TestClassifyUnassignedRecordIsReadOnly(t *testing.T) {
	c := testClassifier()
	key := PathKey("data/f.json")
	records := map[PathKey]ReviewRecord{
		key: {Path: "./data", Filename: "f.json", TaskDone: true, ReviewDone: true},
	}

	deco, ok := c.Classify(key, AssignmentSet{}, records)
	if !ok || deco.Class != ClassUnassignedReadonly || deco.Badge != "⛔" {
		t.Fatalf("completed-shaped record for another worker: %+v", deco)
	}
}

func TestClassifyFlagPairs(t *testing.T) {
	c := testClassifier()
	key := PathKey("data/f.json")
	set := AssignmentSet{key: {}}

	cases := []struct {
		taskDone, reviewDone bool
		want                 AccessClass
		badge                string
	}{
		{false, false, ClassPending, "◌"},
		{true, false, ClassInProgress, "T"},
		{true, true, ClassCompleted, "✓"},
		{false, true, ClassInconsistent, "❌"},
	}
	for _, tc := range cases {
		records := map[PathKey]ReviewRecord{
			key: {Path: "./data", Filename: "f.json", TaskDone: tc.taskDone, ReviewDone: tc.reviewDone, Comment: "x"},
		}
		deco, ok := c.Classify(key, set, records)
		if !ok || deco.Class != tc.want {
			t.Fatalf("(%v,%v): got %+v", tc.taskDone, tc.reviewDone, deco)
		}
		if deco.Badge != tc.badge+"💬" {
			t.Fatalf("(%v,%v): badge %q", tc.taskDone, tc.reviewDone, deco.Badge)
		}
		if !deco.Annotated {
			t.Fatalf("(%v,%v): annotated flag missing", tc.taskDone, tc.reviewDone)
		}
	}
}

func TestClassifyPure(t *testing.T) {
	c := testClassifier()
	key := PathKey("data/f.json")
	set := AssignmentSet{key: {}}
	records := map[PathKey]ReviewRecord{
		key: {Path: "./data", Filename: "f.json", TaskDone: true, ReviewDone: true},
	}

	first, ok1 := c.Classify(key, set, records)
	second, ok2 := c.Classify(key, set, records)
	if ok1 != ok2 || first != second {
		t.Fatalf("not pure: %+v vs %+v", first, second)
	}
	if first.Class != ClassCompleted {
		t.Fatalf("got %+v", first)
	}

	// removing assignment membership alone flips the class
	deco, _ := c.Classify(key, AssignmentSet{}, records)
	if deco.Class != ClassUnassignedReadonly {
		t.Fatalf("membership removal: got %+v", deco)
	}
}
