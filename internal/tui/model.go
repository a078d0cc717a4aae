package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/hylla/granska/internal/app"
	"github.com/hylla/granska/internal/domain"
)

// Service represents service data used by this package.
type Service interface {
	Entries() []app.Entry
	Worker() string
	Record(key domain.PathKey) (domain.ReviewRecord, bool)
	DirHasAssigned(dir domain.PathKey) bool
	OpenReview(ctx context.Context, p string) (app.FormSession, error)
	SaveStatus(ctx context.Context, key domain.PathKey, req app.SaveStatusRequest) error
	CloseForm(key domain.PathKey)
	Workers(ctx context.Context) ([]string, error)
	SelectWorker(ctx context.Context, worker string) error
	RefreshLedger(ctx context.Context) error
	RefreshAssignments(ctx context.Context) error
}

// inputMode represents a selectable mode.
type inputMode int

// modeBrowse and related constants define package defaults.
const (
	modeBrowse inputMode = iota
	modeForm
	modeWorkers
)

// form field indexes used by keyboard focus logic.
const (
	fieldTaskDone = iota
	fieldReviewDone
	fieldComment
	fieldReporting
	fieldCount
)

// browseRow is one rendered line of the review browser: either a directory
// header or a file entry.
type browseRow struct {
	isDir bool
	dir   domain.PathKey
	entry app.Entry
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string
	notice string

	help help.Model
	keys keyMap

	writeClipboard  func(string) error
	markdownPreview bool
	preview         notePreview

	rows   []browseRow
	cursor int

	mode       inputMode
	session    app.FormSession
	readOnly   bool
	taskDone   bool
	reviewDone bool
	formFocus  int

	commentInput   textinput.Model
	reportingInput textinput.Model

	workers     []string
	workerIndex int
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	entries []app.Entry
}

// sessionMsg carries the result of an open-review request.
type sessionMsg struct {
	session app.FormSession
	err     error
}

// savedMsg carries the result of a save request.
type savedMsg struct {
	key domain.PathKey
	err error
}

// workersMsg carries the worker list for the picker.
type workersMsg struct {
	names []string
	err   error
}

// reloadedMsg carries the result of a full source reload.
type reloadedMsg struct {
	err error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	commentInput := textinput.New()
	commentInput.Prompt = ""
	commentInput.Placeholder = "comment"
	commentInput.CharLimit = 500
	reportingInput := textinput.New()
	reportingInput.Prompt = ""
	reportingInput.Placeholder = "reporting"
	reportingInput.CharLimit = 500

	m := Model{
		svc:             svc,
		status:          "loading...",
		help:            h,
		keys:            newKeyMap(),
		writeClipboard:  clipboard.WriteAll,
		markdownPreview: true,
		commentInput:    commentInput,
		reportingInput:  reportingInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.rows = buildRows(msg.entries, m.svc.DirHasAssigned)
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}
		m.status = "ready"
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		return m, m.loadData

	case invalidateMsg:
		return m, m.loadData

	case noticeMsg:
		m.notice = msg.text
		return m, nil

	case formOpenedMsg:
		return m.enterForm(msg.session), nil

	case formRevealedMsg:
		return m.enterForm(msg.session), nil

	case formClosedMsg:
		if m.mode == modeForm && m.session.Key == msg.key {
			m.mode = modeBrowse
		}
		return m, nil

	case fileOpenedMsg, fileClosedMsg:
		// The browser itself is the file surface; the form drives state.
		return m, nil

	case formDeliveryMsg:
		return m.handleFormDelivery(msg), nil

	case sessionMsg:
		if msg.err != nil {
			m.status = "open failed: " + msg.err.Error()
			return m, nil
		}
		return m.enterForm(msg.session), nil

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.mode = modeBrowse
		m.status = "saved " + string(msg.key)
		return m, m.loadData

	case workersMsg:
		if msg.err != nil {
			m.status = "workers: " + msg.err.Error()
			return m, nil
		}
		if len(msg.names) == 0 {
			m.status = "no workers in assignment source"
			return m, nil
		}
		m.mode = modeWorkers
		m.workers = msg.names
		m.workerIndex = 0
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeForm:
			return m.handleFormKey(msg)
		case modeWorkers:
			return m.handleWorkersKey(msg)
		default:
			return m.handleBrowseKey(msg)
		}

	default:
		return m, nil
	}
}

// enterForm switches into form mode for the given session.
func (m Model) enterForm(session app.FormSession) Model {
	m.mode = modeForm
	m.session = session
	m.readOnly = session.ReadOnly
	m.formFocus = fieldTaskDone
	m.taskDone = false
	m.reviewDone = false
	m.commentInput.SetValue("")
	m.reportingInput.SetValue("")
	if session.Record != nil {
		m.taskDone = session.Record.TaskDone
		m.reviewDone = session.Record.ReviewDone
		m.commentInput.SetValue(session.Record.Comment)
		m.reportingInput.SetValue(session.Record.Reporting)
	}
	m.commentInput.Blur()
	m.reportingInput.Blur()
	return m
}

// handleFormDelivery applies one host-to-form protocol message. Messages only
// land on the form they address; anything else is dropped.
func (m Model) handleFormDelivery(msg formDeliveryMsg) Model {
	if m.mode != modeForm || m.session.Key != msg.key {
		return m
	}
	switch msg.msg.Command {
	case app.CommandSetReadOnly:
		m.readOnly = msg.msg.Value
	case app.CommandUpdateMode:
		m.readOnly = msg.msg.Mode == "readonly"
	case app.CommandSaveComplete:
		m.status = "saved " + string(msg.key)
	case app.CommandInitialData:
		if msg.msg.Data != nil {
			m.taskDone = msg.msg.Data.TaskDone
			m.reviewDone = msg.msg.Data.ReviewDone
			m.commentInput.SetValue(msg.msg.Data.Comment)
			m.reportingInput.SetValue(msg.msg.Data.Reporting)
		}
		m.readOnly = msg.msg.IsReadonly
	}
	return m
}

func (m Model) handleBrowseKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.reloadSources
	case key.Matches(msg, m.keys.moveUp):
		m.cursor = max(0, m.cursor-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.cursor = min(max(0, len(m.rows)-1), m.cursor+1)
		return m, nil
	case key.Matches(msg, m.keys.copyPath):
		if row, ok := m.selectedRow(); ok && !row.isDir {
			if err := m.writeClipboard(string(row.entry.Key)); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "copied " + string(row.entry.Key)
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.workers):
		return m, m.loadWorkers
	case key.Matches(msg, m.keys.open):
		if row, ok := m.selectedRow(); ok && !row.isDir {
			return m, m.openReview(row.entry.Key)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.dismiss):
		sessionKey := m.session.Key
		m.mode = modeBrowse
		return m, func() tea.Msg {
			m.svc.CloseForm(sessionKey)
			return nil
		}
	case key.Matches(msg, m.keys.save):
		if m.readOnly {
			m.status = "read-only; cannot save"
			return m, nil
		}
		return m, m.saveStatus()
	case key.Matches(msg, m.keys.nextField):
		m.formFocus = (m.formFocus + 1) % fieldCount
		m.syncFocus()
		return m, nil
	case key.Matches(msg, m.keys.toggle) && m.formFocus < fieldComment:
		if m.readOnly {
			m.status = "read-only; flags locked"
			return m, nil
		}
		if m.formFocus == fieldTaskDone {
			m.taskDone = !m.taskDone
		} else {
			m.reviewDone = !m.reviewDone
		}
		return m, nil
	}

	if m.readOnly {
		return m, nil
	}
	var cmd tea.Cmd
	switch m.formFocus {
	case fieldComment:
		m.commentInput, cmd = m.commentInput.Update(msg)
	case fieldReporting:
		m.reportingInput, cmd = m.reportingInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleWorkersKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.dismiss):
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.workerIndex = max(0, m.workerIndex-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.workerIndex = min(len(m.workers)-1, m.workerIndex+1)
		return m, nil
	case key.Matches(msg, m.keys.open):
		if m.workerIndex < len(m.workers) {
			worker := m.workers[m.workerIndex]
			m.mode = modeBrowse
			return m, func() tea.Msg {
				if err := m.svc.SelectWorker(context.Background(), worker); err != nil {
					return noticeMsg{text: "select worker: " + err.Error()}
				}
				return noticeMsg{text: "worker: " + worker}
			}
		}
		return m, nil
	}
	return m, nil
}

// syncFocus moves textinput focus to match the form focus index.
func (m *Model) syncFocus() {
	m.commentInput.Blur()
	m.reportingInput.Blur()
	switch m.formFocus {
	case fieldComment:
		m.commentInput.Focus()
	case fieldReporting:
		m.reportingInput.Focus()
	}
}

func (m Model) selectedRow() (browseRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return browseRow{}, false
	}
	return m.rows[m.cursor], true
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	return loadedMsg{entries: m.svc.Entries()}
}

// reloadSources re-reads both external sources before rebuilding the list.
func (m Model) reloadSources() tea.Msg {
	ctx := context.Background()
	if err := m.svc.RefreshLedger(ctx); err != nil {
		return reloadedMsg{err: err}
	}
	if err := m.svc.RefreshAssignments(ctx); err != nil {
		return reloadedMsg{err: err}
	}
	return reloadedMsg{}
}

func (m Model) loadWorkers() tea.Msg {
	names, err := m.svc.Workers(context.Background())
	return workersMsg{names: names, err: err}
}

func (m Model) openReview(key domain.PathKey) tea.Cmd {
	return func() tea.Msg {
		session, err := m.svc.OpenReview(context.Background(), string(key))
		return sessionMsg{session: session, err: err}
	}
}

func (m Model) saveStatus() tea.Cmd {
	key := m.session.Key
	req := app.SaveStatusRequest{
		TaskDone:   m.taskDone,
		ReviewDone: m.reviewDone,
		Comment:    m.commentInput.Value(),
		Reporting:  m.reportingInput.Value(),
	}
	return func() tea.Msg {
		return savedMsg{key: key, err: m.svc.SaveStatus(context.Background(), key, req)}
	}
}

// buildRows groups entries under directory headers, keeping entry order
// within each directory.
func buildRows(entries []app.Entry, dirAssigned func(domain.PathKey) bool) []browseRow {
	rows := make([]browseRow, 0, len(entries)*2)
	var lastDir domain.PathKey = "\x00"
	for _, entry := range entries {
		dir, _ := domain.SplitKey(entry.Key)
		dirKey := domain.PathKey(strings.TrimPrefix(dir, "./"))
		if dirKey != lastDir {
			row := browseRow{isDir: true, dir: dirKey}
			if dirAssigned != nil && dirAssigned(dirKey) {
				row.entry.Decoration.Badge = "⚑"
			}
			rows = append(rows, row)
			lastDir = dirKey
		}
		rows = append(rows, browseRow{entry: entry})
	}
	return rows
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	var content string
	switch m.mode {
	case modeForm:
		content = m.viewForm()
	case modeWorkers:
		content = m.viewWorkers()
	default:
		content = m.viewBrowse()
	}

	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

func (m Model) viewBrowse() string {
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	dirStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	mutedStyle := lipgloss.NewStyle().Foreground(muted)
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	header := titleStyle.Render("granska")
	if worker := m.svc.Worker(); worker != "" {
		header += mutedStyle.Render("  worker: " + worker)
	}
	header += mutedStyle.Render("  " + m.status)

	lines := []string{header, ""}
	if len(m.rows) == 0 {
		lines = append(lines, "no tracked files", "press r to reload • w to pick a worker")
	}
	for i, row := range m.rows {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		if row.isDir {
			label := string(row.dir)
			if label == "" {
				label = "."
			}
			line := dirStyle.Render(label + "/")
			if row.entry.Decoration.Badge != "" {
				line += " " + row.entry.Decoration.Badge
			}
			lines = append(lines, prefix+line)
			continue
		}
		name := string(row.entry.Key)
		if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
			name = name[idx+1:]
		}
		badge := row.entry.Decoration.Badge
		if badge == "" {
			badge = " "
		}
		line := fmt.Sprintf("%s %s  %s", badge, name, mutedStyle.Render(row.entry.Decoration.Tooltip))
		lines = append(lines, prefix+"  "+line)
	}

	if m.notice != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render(m.notice))
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	lines = append(lines, "", mutedStyle.Render(helpBubble.View(m.keys)))
	return strings.Join(lines, "\n")
}

func (m Model) viewForm() string {
	muted := lipgloss.Color("241")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	mutedStyle := lipgloss.NewStyle().Foreground(muted)
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	header := titleStyle.Render("status: " + string(m.session.Key))
	if m.readOnly {
		header += mutedStyle.Render("  [read-only]")
	}

	check := func(v bool) string {
		if v {
			return "[x]"
		}
		return "[ ]"
	}
	label := func(i int, text string) string {
		if i == m.formFocus {
			return focusStyle.Render(text)
		}
		return text
	}

	lines := []string{
		header,
		"",
		label(fieldTaskDone, check(m.taskDone)+" task done"),
		label(fieldReviewDone, check(m.reviewDone)+" review done"),
		label(fieldComment, "comment:   ") + m.commentInput.View(),
		label(fieldReporting, "reporting: ") + m.reportingInput.View(),
	}

	if m.readOnly && m.markdownPreview {
		preview := m.preview
		for _, block := range preview.sections(m.commentInput.Value(), m.reportingInput.Value(), m.width-4) {
			lines = append(lines, "", block)
		}
	}

	if m.status != "" {
		lines = append(lines, "", mutedStyle.Render(m.status))
	}
	lines = append(lines, "", mutedStyle.Render("tab next • space toggle • ctrl+s save • esc close"))
	return strings.Join(lines, "\n")
}

func (m Model) viewWorkers() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	lines := []string{titleStyle.Render("select worker"), ""}
	for i, name := range m.workers {
		prefix := "  "
		if i == m.workerIndex {
			prefix = cursorStyle.Render("> ")
		}
		lines = append(lines, prefix+name)
	}
	lines = append(lines, "", "enter select • esc cancel")
	return strings.Join(lines, "\n")
}
