package editor_test

import (
	"testing"
	"time"

	"github.com/hylla/rota/internal/domain"
	"github.com/hylla/rota/internal/editor"
	"github.com/hylla/rota/internal/editor/editortest"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// testLayout is a two-row section with one padding cell.
func testLayout() domain.Layout {
	return domain.Layout{
		Year:  2026,
		Month: time.March,
		Title: "March 2026",
		Sections: []domain.Section{{
			Title:   "Worship (Sunday)",
			Columns: []string{"1", "8", "15"},
			Rows: []domain.LayoutRow{
				{Duty: "song_leader", Label: "Song Leader", Slots: []domain.Slot{
					{Key: "2026-3-1-song_leader", Value: "Alice"},
					{Key: "2026-3-8-song_leader", Value: "Bob"},
					{},
				}},
				{Duty: "prayer", Label: "Opening Prayer", Slots: []domain.Slot{
					{Key: "2026-3-1-prayer", Value: "Carl"},
					{Key: "2026-3-8-prayer", Value: " Alice "},
					{Key: "2026-3-15-prayer", Value: ""},
				}},
			},
		}},
		Suggestions: map[string][]string{
			"song_leader": {"Alice", "Bob"},
			"prayer":      {"Alice", "Bob", "Carl", "Robert"},
		},
	}
}

var (
	a1 = editor.CellID{Section: 0, Row: 0, Col: 0}
	a2 = editor.CellID{Section: 0, Row: 0, Col: 1}
	a3 = editor.CellID{Section: 0, Row: 0, Col: 2}
	b1 = editor.CellID{Section: 0, Row: 1, Col: 0}
	b2 = editor.CellID{Section: 0, Row: 1, Col: 1}
	b3 = editor.CellID{Section: 0, Row: 1, Col: 2}
)

// harness wires a session to a manual clock and a recording persister.
type harness struct {
	clock   *editortest.Clock
	store   *editortest.Persister
	session *editor.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := editortest.NewClock(epoch)
	store := editortest.NewPersister(clock)
	session := editor.NewSession(testLayout(), store,
		editor.WithClock(clock),
		editor.WithRunner(editortest.Inline),
	)
	t.Cleanup(session.Close)
	return &harness{clock: clock, store: store, session: session}
}

func (h *harness) cell(t *testing.T, id editor.CellID) editor.Cell {
	t.Helper()
	board := h.session.State().Board
	cell, ok := board.Cell(id)
	if !ok {
		t.Fatalf("cell %+v not found", id)
	}
	return *cell
}
