package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minNoteWrap keeps previewed notes readable on very narrow terminals.
const minNoteWrap = 24

// notePreview renders the free-text notes of a review record as markdown for
// the read-only form view. The glamour renderer is rebuilt only when the wrap
// width changes.
type notePreview struct {
	wrapWidth int
	renderer  *glamour.TermRenderer
}

// sections returns one labeled preview block per non-blank note, in the order
// the form shows the fields.
func (p *notePreview) sections(comment, reporting string, width int) []string {
	var out []string
	if s := p.render(comment, width); s != "" {
		out = append(out, "comment\n"+s)
	}
	if s := p.render(reporting, width); s != "" {
		out = append(out, "reporting\n"+s)
	}
	return out
}

// render converts one note into ANSI-styled terminal text. Blank notes yield
// ""; when glamour is unavailable the raw text comes back unstyled.
func (p *notePreview) render(note string, width int) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return ""
	}
	if width < minNoteWrap {
		width = minNoteWrap
	}

	if p.renderer == nil || p.wrapWidth != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return note
		}
		p.renderer = renderer
		p.wrapWidth = width
	}

	styled, err := p.renderer.Render(note)
	if err != nil {
		return note
	}
	return strings.TrimRight(styled, "\n")
}
