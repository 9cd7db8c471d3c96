package editor

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/hylla/rota/internal/domain"
)

// heldClock never fires; tests drive task actions by hand.
type heldClock struct{}

func (heldClock) Now() time.Time { return time.Time{} }
func (heldClock) AfterFunc(time.Duration, func()) Timer { return heldTimer{} }

type heldTimer struct{}

func (heldTimer) Stop() bool { return true }

// countingPersister counts saves and always accepts them.
type countingPersister struct {
	mu    sync.Mutex
	saves []Document
}

func (p *countingPersister) Save(_ context.Context, doc Document) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, doc)
	return http.StatusNoContent, nil
}

func (p *countingPersister) Commit(context.Context) (int, error) {
	return http.StatusOK, nil
}

func (p *countingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func heldSession(p Persister) *Session {
	layout := domain.Layout{
		Year:  2026,
		Month: time.March,
		Sections: []domain.Section{{
			Title:   "Worship (Sunday)",
			Columns: []string{"1"},
			Rows: []domain.LayoutRow{{Duty: "prayer", Label: "Prayer", Slots: []domain.Slot{
				{Key: "2026-3-1-prayer", Value: "Alice"},
			}}},
		}},
	}
	return NewSession(layout, p, WithClock(heldClock{}), WithRunner(func(f func()) { f() }))
}

// TestCloseSendsSaveReleasedByTimer covers an autosave whose timer entry is
// gone but whose action has not run when Close starts.
func TestCloseSendsSaveReleasedByTimer(t *testing.T) {
	p := &countingPersister{}
	s := heldSession(p)
	s.ScheduleSave()
	s.tasks.Cancel(TaskAutosave)

	s.Close()
	if n := p.count(); n != 1 {
		t.Fatalf("saves after close = %d, want 1", n)
	}
	s.flushSave()
	if n := p.count(); n != 1 {
		t.Fatalf("late autosave action saved again, saves = %d", n)
	}
}

// TestCloseAfterFlushDoesNotResave verifies a dispatched autosave is not repeated by Close.
func TestCloseAfterFlushDoesNotResave(t *testing.T) {
	p := &countingPersister{}
	s := heldSession(p)
	s.ScheduleSave()
	s.tasks.Cancel(TaskAutosave)
	s.flushSave()

	s.Close()
	if n := p.count(); n != 1 {
		t.Fatalf("saves = %d, want 1", n)
	}
}

// TestCommitSendsSaveReleasedByTimer verifies Commit carries edits whose autosave already fired.
func TestCommitSendsSaveReleasedByTimer(t *testing.T) {
	p := &countingPersister{}
	s := heldSession(p)
	t.Cleanup(s.Close)
	s.ScheduleSave()
	s.tasks.Cancel(TaskAutosave)

	s.Commit()
	s.flushSave()
	if n := p.count(); n != 1 {
		t.Fatalf("saves = %d, want 1", n)
	}
}
