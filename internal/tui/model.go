package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/hylla/rota/internal/domain"
	"github.com/hylla/rota/internal/editor"
)

// doubleClickWindow is the longest gap between two clicks that still opens the editor.
const doubleClickWindow = 400 * time.Millisecond

// actionTimeout bounds pdf, stats, and reload callbacks.
const actionTimeout = time.Minute

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeEdit
	modeStats
)

// sessionChangedMsg reports that the editor session changed behind the model's back.
type sessionChangedMsg struct{}

// pdfExportedMsg carries the pdf callback result.
type pdfExportedMsg struct {
	path string
	err  error
}

// statsLoadedMsg carries fairness statistics for the overlay.
type statsLoadedMsg struct {
	stats []domain.DutyStats
	err   error
}

// reloadedMsg carries a freshly loaded layout.
type reloadedMsg struct {
	layout domain.Layout
	err    error
}

// Model is the terminal schedule editor.
type Model struct {
	session *editor.Session
	state   editor.State

	keys   keyMap
	help   help.Model
	styles cellStyles
	input  textinput.Model
	md     *markdownRenderer

	ready  bool
	width  int
	height int
	mode   inputMode
	status string

	cursor    editor.CellID
	keyDrag   bool
	mouseDrag bool
	dropOver  *editor.CellID
	hovered   *editor.CellID
	lastClick editor.CellID
	clickedAt time.Time

	statsText string

	exportPDF      func(context.Context) (string, error)
	loadStats      func(context.Context) ([]domain.DutyStats, error)
	reload         func(context.Context) (domain.Layout, error)
	writeClipboard func(string) error
	now            func() time.Time
}

// NewModel constructs the editor model over session.
func NewModel(session *editor.Session, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 80
	m := Model{
		session:        session,
		keys:           newKeyMap(),
		help:           h,
		styles:         newCellStyles(),
		input:          input,
		md:             &markdownRenderer{},
		status:         "ready",
		writeClipboard: clipboard.WriteAll,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.refresh()
	m.cursor = firstEditable(m.state.Board)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// waitForChange turns the next session change signal into a message.
func (m Model) waitForChange() tea.Cmd {
	changes := m.session.Changes()
	return func() tea.Msg {
		<-changes
		return sessionChangedMsg{}
	}
}

// refresh re-reads the session snapshot.
func (m *Model) refresh() {
	m.state = m.session.State()
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case pdfExportedMsg:
		if msg.err != nil {
			m.status = "pdf failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "pdf saved to " + msg.path
		return m, nil

	case statsLoadedMsg:
		if msg.err != nil {
			m.mode = modeNone
			m.status = "stats failed: " + msg.err.Error()
			return m, nil
		}
		m.statsText = m.md.render(StatsMarkdown(msg.stats), max(40, m.width-12))
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		m.session.Load(msg.layout)
		m.resetPointer()
		m.refresh()
		m.cursor = firstEditable(m.state.Board)
		m.status = "reloaded"
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeEdit:
			return m.handleEditKey(msg)
		case modeStats:
			return m.handleStatsKey(msg)
		}
		return m.handleBoardKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// handleBoardKey handles keys while no input is focused.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.keyDrag {
			m.endDrag()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.moveRight):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.moveUp):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.moveDown):
		m.moveCursor(1, 0)
	case key.Matches(msg, m.keys.lift):
		if m.keyDrag || m.mouseDrag {
			return m, nil
		}
		m.clearHover()
		if err := m.session.DragStart(m.cursor); err != nil {
			m.status = "cannot lift: " + err.Error()
			break
		}
		m.keyDrag = true
		m.status = "moving: arrows pick a target, enter drops, esc cancels"
	case key.Matches(msg, m.keys.drop):
		if !m.keyDrag {
			return m.startEdit()
		}
		if m.session.Drop(m.cursor) {
			m.status = "swapped"
		} else {
			m.status = "nothing to swap"
		}
		m.endDrag()
	case key.Matches(msg, m.keys.cancel):
		if m.keyDrag {
			m.endDrag()
			m.status = "move cancelled"
		}
	case key.Matches(msg, m.keys.edit):
		if m.keyDrag {
			return m, nil
		}
		return m.startEdit()
	case key.Matches(msg, m.keys.commit):
		m.session.Commit()
		m.status = "commit requested"
	case key.Matches(msg, m.keys.pdf):
		if m.exportPDF == nil {
			m.status = "pdf export is not configured"
			break
		}
		m.status = "rendering pdf…"
		m.refresh()
		return m, m.exportPDFCmd()
	case key.Matches(msg, m.keys.copyValue):
		m.copyCursorValue()
	case key.Matches(msg, m.keys.stats):
		if m.loadStats == nil {
			m.status = "stats are not configured"
			break
		}
		m.mode = modeStats
		m.statsText = "loading…"
		return m, m.loadStatsCmd()
	case key.Matches(msg, m.keys.reload):
		if m.reload == nil || m.keyDrag || m.mouseDrag {
			break
		}
		m.status = "reloading…"
		return m, m.reloadCmd()
	}
	m.refresh()
	return m, nil
}

// handleEditKey routes keys to the focused input.
func (m Model) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		accepted, saved := m.session.Enter(m.cursor)
		m.stopEdit()
		switch {
		case accepted != "":
			m.status = "accepted " + accepted
		case saved:
			m.status = "edited"
		default:
			m.status = "unchanged"
		}
		m.refresh()
		return m, nil
	case "esc":
		saved := m.session.Blur(m.cursor)
		m.stopEdit()
		if saved {
			m.status = "edited"
		} else {
			m.status = "unchanged"
		}
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if err := m.session.Type(m.cursor, m.input.Value()); err != nil {
		m.status = "edit failed: " + err.Error()
	}
	m.refresh()
	return m, cmd
}

// handleStatsKey closes the stats overlay.
func (m Model) handleStatsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.stats), key.Matches(msg, m.keys.quit):
		m.mode = modeNone
		m.statsText = ""
	}
	return m, nil
}

// handleMouseClick lifts the clicked cell, or opens it for editing on a double click.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.mode == modeStats || m.keyDrag {
		return m, nil
	}
	id, ok := cellAt(m.state.Board, msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	if m.mode == modeEdit {
		if id == m.cursor {
			return m, nil
		}
		m.session.Blur(m.cursor)
		m.stopEdit()
	}
	now := m.now()
	double := id == m.lastClick && !m.clickedAt.IsZero() && now.Sub(m.clickedAt) <= doubleClickWindow
	m.lastClick, m.clickedAt = id, now
	m.cursor = id
	if double {
		m.clickedAt = time.Time{}
		return m.startEdit()
	}
	m.clearHover()
	if err := m.session.DragStart(id); err == nil {
		m.mouseDrag = true
		m.trackDropTarget(id, true)
	}
	m.refresh()
	return m, nil
}

// handleMouseMotion tracks the drop candidate while dragging and hover otherwise.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone {
		return m, nil
	}
	id, ok := cellAt(m.state.Board, msg.X, msg.Y)
	switch {
	case m.mouseDrag:
		m.trackDropTarget(id, ok)
	case !m.keyDrag:
		m.trackHover(id, ok)
	}
	m.refresh()
	return m, nil
}

// handleMouseRelease drops onto the cell under the pointer and ends the drag.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !m.mouseDrag {
		return m, nil
	}
	if id, ok := cellAt(m.state.Board, msg.X, msg.Y); ok {
		if m.session.Drop(id) {
			m.status = "swapped"
			m.cursor = id
		}
	}
	m.endDrag()
	m.refresh()
	return m, nil
}

// moveCursor steps the cursor across rows and sections, carrying the drop target or hover with it.
func (m *Model) moveCursor(dRow, dCol int) {
	next, ok := stepCursor(m.state.Board, m.cursor, dRow, dCol)
	if !ok {
		return
	}
	m.cursor = next
	if m.keyDrag {
		m.trackDropTarget(next, true)
		return
	}
	m.trackHover(next, true)
}

// trackDropTarget moves the drop candidate mark from the previous cell to id.
func (m *Model) trackDropTarget(id editor.CellID, ok bool) {
	if m.dropOver != nil && (!ok || *m.dropOver != id) {
		m.session.DragLeave(*m.dropOver)
		m.dropOver = nil
	}
	if ok && m.dropOver == nil {
		m.session.DragEnter(id)
		over := id
		m.dropOver = &over
	}
}

// trackHover moves the matching-value highlight from the previous cell to id.
func (m *Model) trackHover(id editor.CellID, ok bool) {
	if m.hovered != nil && (!ok || *m.hovered != id) {
		m.session.Unhover(*m.hovered)
		m.hovered = nil
	}
	if ok && m.hovered == nil {
		m.session.Hover(id)
		hovered := id
		m.hovered = &hovered
	}
}

// clearHover removes any hover highlight.
func (m *Model) clearHover() {
	if m.hovered != nil {
		m.session.Unhover(*m.hovered)
		m.hovered = nil
	}
}

// endDrag runs drag-end cleanup on the lifted cell.
func (m *Model) endDrag() {
	if source, ok := m.session.DragSource(); ok {
		m.session.DragEnd(source)
	}
	m.keyDrag = false
	m.mouseDrag = false
	m.dropOver = nil
}

// resetPointer forgets drag, hover, and edit state after the board is replaced.
func (m *Model) resetPointer() {
	m.keyDrag = false
	m.mouseDrag = false
	m.dropOver = nil
	m.hovered = nil
	m.stopEdit()
}

// startEdit focuses the cursor cell's input.
func (m Model) startEdit() (tea.Model, tea.Cmd) {
	if err := m.session.Focus(m.cursor); err != nil {
		m.status = "cannot edit: " + err.Error()
		return m, nil
	}
	m.clearHover()
	cell, _ := m.state.Board.Cell(m.cursor)
	m.mode = modeEdit
	m.input.Reset()
	if cell != nil {
		m.input.Placeholder = cell.Input.Value
	}
	cmd := m.input.Focus()
	m.status = "editing: enter accepts the first suggestion, esc keeps the text"
	m.refresh()
	return m, cmd
}

// stopEdit leaves edit mode.
func (m *Model) stopEdit() {
	m.mode = modeNone
	m.input.Blur()
	m.input.Reset()
}

// copyCursorValue copies the cursor cell's value to the clipboard.
func (m *Model) copyCursorValue() {
	cell, ok := m.state.Board.Cell(m.cursor)
	if !ok || !cell.Editable() {
		return
	}
	if err := m.writeClipboard(cell.Input.Attr); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("copied %q", cell.Input.Attr)
}

// exportPDFCmd runs the pdf callback off the update loop.
func (m Model) exportPDFCmd() tea.Cmd {
	export := m.exportPDF
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		path, err := export(ctx)
		return pdfExportedMsg{path: path, err: err}
	}
}

// loadStatsCmd runs the stats callback off the update loop.
func (m Model) loadStatsCmd() tea.Cmd {
	load := m.loadStats
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		stats, err := load(ctx)
		return statsLoadedMsg{stats: stats, err: err}
	}
}

// reloadCmd runs the reload callback off the update loop.
func (m Model) reloadCmd() tea.Cmd {
	reload := m.reload
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		layout, err := reload(ctx)
		return reloadedMsg{layout: layout, err: err}
	}
}

// View handles view.
func (m Model) View() tea.View {
	return m.newView(m.render())
}

// render draws the full screen as text.
func (m Model) render() string {
	if !m.ready {
		return "loading..."
	}
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	board := m.state.Board
	sections := []string{
		titleStyle.Render(board.Title),
		"",
		renderBoard(board, gridView{cursor: m.cursor, editing: m.mode == modeEdit, inputView: m.input.View()}, m.styles),
	}
	if m.mode == modeEdit {
		sections = append(sections, m.suggestionLine(muted))
	}
	if toast := m.toastLine(); toast != "" {
		sections = append(sections, toast)
	}
	sections = append(sections, statusStyle.Render(m.status))
	if err := m.state.LastError; err != nil {
		sections = append(sections, errorStyle.Render("error: "+err.Error()))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	if m.mode == modeStats {
		overlay := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Render(m.statsText + "\n\n" + statusStyle.Render("esc closes"))
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

// newView wraps content with the terminal modes the editor needs.
func (m Model) newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeAllMotion
	v.AltScreen = true
	return v
}

// toastLine renders the toast; a hidden toast stays faintly visible.
func (m Model) toastLine() string {
	toast := m.state.Toast
	if toast.Message == "" {
		return ""
	}
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	if !toast.Visible {
		style = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	}
	return style.Render(toast.Message)
}

// suggestionLine lists the suggestions matching the typed text.
func (m Model) suggestionLine(muted color.Color) string {
	cell, ok := m.state.Board.Cell(m.cursor)
	if !ok {
		return ""
	}
	partial := strings.ToLower(m.input.Value())
	matches := make([]string, 0, 8)
	for _, option := range m.state.Suggestions[cell.Duty] {
		if partial == "" || strings.Contains(strings.ToLower(option), partial) {
			matches = append(matches, option)
		}
	}
	return lipgloss.NewStyle().Foreground(muted).Render("suggestions: " + strings.Join(matches, ", "))
}

// firstEditable returns the first cell holding a date task.
func firstEditable(board editor.Board) editor.CellID {
	var (
		found editor.CellID
		ok    bool
	)
	board.Each(func(c *editor.Cell) {
		if !ok && c.Editable() {
			found, ok = c.ID, true
		}
	})
	return found
}

// stepCursor moves one cell, crossing into neighboring rows and sections.
func stepCursor(board editor.Board, from editor.CellID, dRow, dCol int) (editor.CellID, bool) {
	type rowRef struct{ section, row int }
	rows := make([]rowRef, 0, 16)
	at := -1
	for si, section := range board.Sections {
		for ri := range section.Rows {
			if si == from.Section && ri == from.Row {
				at = len(rows)
			}
			rows = append(rows, rowRef{si, ri})
		}
	}
	if at < 0 {
		return editor.CellID{}, false
	}
	target := at + dRow
	if target < 0 || target >= len(rows) {
		return editor.CellID{}, false
	}
	ref := rows[target]
	cells := board.Sections[ref.section].Rows[ref.row].Cells
	if len(cells) == 0 {
		return editor.CellID{}, false
	}
	col := from.Col + dCol
	if dRow != 0 {
		col = min(col, len(cells)-1)
	}
	if col < 0 || col >= len(cells) {
		return editor.CellID{}, false
	}
	return editor.CellID{Section: ref.section, Row: ref.row, Col: col}, true
}
