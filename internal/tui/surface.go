package tui

import (
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/granska/internal/app"
	"github.com/hylla/granska/internal/domain"
)

// Sender delivers messages into a running bubbletea program. *tea.Program
// satisfies it; tests substitute a recorder.
type Sender interface {
	Send(tea.Msg)
}

// fileOpenedMsg signals that a file surface opened.
type fileOpenedMsg struct {
	key      domain.PathKey
	readOnly bool
}

// fileClosedMsg signals that a file surface closed.
type fileClosedMsg struct {
	key domain.PathKey
}

// formOpenedMsg signals a new form session.
type formOpenedMsg struct {
	session app.FormSession
}

// formRevealedMsg refocuses an existing form session.
type formRevealedMsg struct {
	session app.FormSession
}

// formClosedMsg signals that a form surface closed.
type formClosedMsg struct {
	key domain.PathKey
}

// formDeliveryMsg carries one protocol message to an open form.
type formDeliveryMsg struct {
	key domain.PathKey
	msg app.FormMessage
}

// invalidateMsg asks the browser to re-derive decorations.
type invalidateMsg struct {
	inv domain.Invalidation
}

// noticeMsg carries a user-visible notice line.
type noticeMsg struct {
	text string
}

// SurfaceBridge adapts the app.SurfaceHost port onto bubbletea messages. The
// sender is attached after the program is constructed; calls before
// attachment are dropped, which only happens during startup before the model
// is visible.
type SurfaceBridge struct {
	mu     sync.Mutex
	sender Sender
}

// NewSurfaceBridge constructs an unattached bridge.
func NewSurfaceBridge() *SurfaceBridge {
	return &SurfaceBridge{}
}

// Attach binds the bridge to a running program.
func (b *SurfaceBridge) Attach(sender Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = sender
}

func (b *SurfaceBridge) send(msg tea.Msg) {
	b.mu.Lock()
	sender := b.sender
	b.mu.Unlock()
	if sender != nil {
		sender.Send(msg)
	}
}

// OpenFile implements app.SurfaceHost.
func (b *SurfaceBridge) OpenFile(key domain.PathKey, readOnly bool) error {
	b.send(fileOpenedMsg{key: key, readOnly: readOnly})
	return nil
}

// CloseFile implements app.SurfaceHost.
func (b *SurfaceBridge) CloseFile(key domain.PathKey) {
	b.send(fileClosedMsg{key: key})
}

// OpenForm implements app.SurfaceHost.
func (b *SurfaceBridge) OpenForm(session app.FormSession) error {
	b.send(formOpenedMsg{session: session})
	return nil
}

// RevealForm implements app.SurfaceHost.
func (b *SurfaceBridge) RevealForm(session app.FormSession) error {
	b.send(formRevealedMsg{session: session})
	return nil
}

// CloseForm implements app.SurfaceHost.
func (b *SurfaceBridge) CloseForm(key domain.PathKey) {
	b.send(formClosedMsg{key: key})
}

// Deliver implements app.SurfaceHost.
func (b *SurfaceBridge) Deliver(key domain.PathKey, msg app.FormMessage) {
	b.send(formDeliveryMsg{key: key, msg: msg})
}

// Invalidate implements app.SurfaceHost.
func (b *SurfaceBridge) Invalidate(inv domain.Invalidation) {
	b.send(invalidateMsg{inv: inv})
}

// Notify implements app.SurfaceHost.
func (b *SurfaceBridge) Notify(text string) {
	b.send(noticeMsg{text: text})
}
