package editor

import (
	"time"

	"github.com/hylla/rota/internal/domain"
)

// Opacity levels for a cell.
const (
	OpacityFull   = 1.0
	OpacityLifted = 0.4
)

// CellID addresses a cell by section, row, and column.
type CellID struct {
	Section int
	Row     int
	Col     int
}

// Input is the editable field inside a cell.
// Value is the live field content and Attr is the durable value that saves carry.
type Input struct {
	Value       string
	Attr        string
	Placeholder string
	Highlight   bool
}

// Cell is one slot of the board. Cells without a key are padding.
type Cell struct {
	ID      CellID
	Key     string
	Duty    string
	Input   Input
	Opacity float64
	Over    bool
}

// Editable reports whether the cell holds a date task.
func (c Cell) Editable() bool {
	return c.Key != ""
}

// Row is one duty's run of cells.
type Row struct {
	Duty  string
	Label string
	Cells []Cell
}

// Section is one table of the board.
type Section struct {
	Title   string
	Columns []string
	Rows    []Row
}

// Board is the editable grid for one month.
type Board struct {
	Year     int
	Month    time.Month
	Title    string
	Sections []Section
}

// NewBoard builds a board from a layout.
func NewBoard(layout domain.Layout) Board {
	board := Board{
		Year:     layout.Year,
		Month:    layout.Month,
		Title:    layout.Title,
		Sections: make([]Section, 0, len(layout.Sections)),
	}
	for si, ls := range layout.Sections {
		section := Section{
			Title:   ls.Title,
			Columns: append([]string(nil), ls.Columns...),
			Rows:    make([]Row, 0, len(ls.Rows)),
		}
		for ri, lr := range ls.Rows {
			row := Row{Duty: lr.Duty, Label: lr.Label, Cells: make([]Cell, 0, len(lr.Slots))}
			for ci, slot := range lr.Slots {
				cell := Cell{
					ID:      CellID{Section: si, Row: ri, Col: ci},
					Key:     slot.Key,
					Opacity: OpacityFull,
				}
				if slot.Key != "" {
					cell.Duty = lr.Duty
					cell.Input = Input{Value: slot.Value, Attr: slot.Value}
				}
				row.Cells = append(row.Cells, cell)
			}
			section.Rows = append(section.Rows, row)
		}
		board.Sections = append(board.Sections, section)
	}
	return board
}

// Cell returns a pointer to the addressed cell.
func (b *Board) Cell(id CellID) (*Cell, bool) {
	if id.Section < 0 || id.Section >= len(b.Sections) {
		return nil, false
	}
	section := &b.Sections[id.Section]
	if id.Row < 0 || id.Row >= len(section.Rows) {
		return nil, false
	}
	row := &section.Rows[id.Row]
	if id.Col < 0 || id.Col >= len(row.Cells) {
		return nil, false
	}
	return &row.Cells[id.Col], true
}

// Each visits every cell in reading order.
func (b *Board) Each(fn func(*Cell)) {
	for si := range b.Sections {
		for ri := range b.Sections[si].Rows {
			for ci := range b.Sections[si].Rows[ri].Cells {
				fn(&b.Sections[si].Rows[ri].Cells[ci])
			}
		}
	}
}

// Assignments collects the durable value of every editable cell.
func (b *Board) Assignments() domain.Assignments {
	out := domain.Assignments{}
	b.Each(func(c *Cell) {
		if c.Editable() {
			out[c.Key] = c.Input.Attr
		}
	})
	return out
}

// Find returns the first editable cell holding key.
func (b *Board) Find(key string) (CellID, bool) {
	var (
		found CellID
		ok    bool
	)
	b.Each(func(c *Cell) {
		if !ok && c.Key == key {
			found, ok = c.ID, true
		}
	})
	return found, ok
}

// Clone returns a deep copy safe to hand to renderers.
func (b Board) Clone() Board {
	out := b
	out.Sections = make([]Section, len(b.Sections))
	for si, section := range b.Sections {
		cp := section
		cp.Columns = append([]string(nil), section.Columns...)
		cp.Rows = make([]Row, len(section.Rows))
		for ri, row := range section.Rows {
			r := row
			r.Cells = append([]Cell(nil), row.Cells...)
			cp.Rows[ri] = r
		}
		out.Sections[si] = cp
	}
	return out
}
