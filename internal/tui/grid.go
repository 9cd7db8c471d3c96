package tui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hylla/rota/internal/editor"
)

// Grid geometry shared by rendering and mouse hit testing.
const (
	labelWidth = 16
	cellWidth  = 12
	cellGap    = 1
	boardTop   = 2
)

// cellStyles groups the styles a grid cell can take.
type cellStyles struct {
	base      lipgloss.Style
	padding   lipgloss.Style
	lifted    lipgloss.Style
	over      lipgloss.Style
	highlight lipgloss.Style
	editing   lipgloss.Style
	label     lipgloss.Style
	header    lipgloss.Style
	section   lipgloss.Style
}

// newCellStyles builds the grid palette.
func newCellStyles() cellStyles {
	base := lipgloss.NewStyle().Width(cellWidth).MaxWidth(cellWidth)
	return cellStyles{
		base:      base,
		padding:   base.Foreground(lipgloss.Color("237")),
		lifted:    base.Faint(true).Italic(true),
		over:      base.Underline(true).Foreground(lipgloss.Color("62")),
		highlight: base.Bold(true).Foreground(lipgloss.Color("212")),
		editing:   base.Background(lipgloss.Color("236")),
		label:     lipgloss.NewStyle().Width(labelWidth).MaxWidth(labelWidth).Foreground(lipgloss.Color("245")),
		header:    base.Bold(true).Foreground(lipgloss.Color("241")),
		section:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
	}
}

// rowY returns the screen line of a board row.
func rowY(board editor.Board, section, row int) int {
	y := boardTop
	for si := range board.Sections {
		y += 2 // section title and column header
		if si == section {
			return y + row
		}
		y += len(board.Sections[si].Rows) + 1
	}
	return -1
}

// colX returns the first screen column of a cell.
func colX(col int) int {
	return labelWidth + cellGap + col*(cellWidth+cellGap)
}

// cellAt maps a screen position onto the board.
func cellAt(board editor.Board, x, y int) (editor.CellID, bool) {
	if x < labelWidth+cellGap {
		return editor.CellID{}, false
	}
	col := (x - labelWidth - cellGap) / (cellWidth + cellGap)
	if x >= colX(col)+cellWidth {
		return editor.CellID{}, false
	}
	for si, section := range board.Sections {
		for ri, row := range section.Rows {
			if rowY(board, si, ri) != y {
				continue
			}
			if col >= len(row.Cells) {
				return editor.CellID{}, false
			}
			return editor.CellID{Section: si, Row: ri, Col: col}, true
		}
	}
	return editor.CellID{}, false
}

// gridView describes what the renderer needs beyond the board.
type gridView struct {
	cursor    editor.CellID
	editing   bool
	inputView string
}

// renderBoard draws every section as an aligned grid.
func renderBoard(board editor.Board, view gridView, styles cellStyles) string {
	lines := make([]string, 0, 64)
	for si, section := range board.Sections {
		lines = append(lines, styles.section.Render(section.Title))
		header := make([]string, 0, len(section.Columns)+1)
		header = append(header, styles.label.Render(""))
		for _, col := range section.Columns {
			header = append(header, styles.header.Render(truncate(col, cellWidth)))
		}
		lines = append(lines, strings.Join(header, strings.Repeat(" ", cellGap)))
		for ri, row := range section.Rows {
			parts := make([]string, 0, len(row.Cells)+1)
			parts = append(parts, styles.label.Render(truncate(row.Label, labelWidth)))
			for ci, cell := range row.Cells {
				id := editor.CellID{Section: si, Row: ri, Col: ci}
				parts = append(parts, renderCell(cell, id == view.cursor, view, styles))
			}
			lines = append(lines, strings.Join(parts, strings.Repeat(" ", cellGap)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderCell draws one cell with its drag, hover, and cursor affordances.
func renderCell(cell editor.Cell, atCursor bool, view gridView, styles cellStyles) string {
	if !cell.Editable() {
		return styles.padding.Render("·")
	}
	if atCursor && view.editing {
		return styles.editing.Render(truncate(view.inputView, cellWidth))
	}
	text := cell.Input.Value
	if text == "" {
		text = "-"
	}
	style := styles.base
	switch {
	case cell.Opacity < editor.OpacityFull:
		style = styles.lifted
	case cell.Over:
		style = styles.over
	case cell.Input.Highlight:
		style = styles.highlight
	}
	if atCursor {
		style = style.Reverse(true)
	}
	return style.Render(truncate(text, cellWidth))
}

// fitLines pads or truncates content to an exact line count.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay on top of base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(baseLayer)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
