package tui

import (
	"strings"
	"testing"
)

// TestNotePreviewSections verifies that only non-blank notes produce labeled
// preview blocks.
func TestNotePreviewSections(t *testing.T) {
	var p notePreview

	if got := p.sections("", "  ", 80); len(got) != 0 {
		t.Fatalf("blank notes produced %d blocks", len(got))
	}

	got := p.sections("did the thing", "", 80)
	if len(got) != 1 || !strings.HasPrefix(got[0], "comment\n") {
		t.Fatalf("comment-only sections: %q", got)
	}

	got = p.sections("did the thing", "needs follow-up", 80)
	if len(got) != 2 || !strings.HasPrefix(got[1], "reporting\n") {
		t.Fatalf("both-notes sections: %q", got)
	}
}

// TestNotePreviewRenderBlank verifies that empty input renders to "".
func TestNotePreviewRenderBlank(t *testing.T) {
	var p notePreview
	if got := p.render("   ", 80); got != "" {
		t.Fatalf("blank note rendered %q", got)
	}
}
