package editor

import (
	"context"
	"fmt"
	"net/http"
)

// ScheduleSave re-arms the autosave task and shows "Saving…" immediately.
// Bursts of calls inside the quiet period produce one save after the last call.
func (s *Session) ScheduleSave() {
	s.mu.Lock()
	s.scheduleSaveLocked()
	s.mu.Unlock()
	s.notify()
}

// scheduleSaveLocked arms the autosave task; the caller holds s.mu.
func (s *Session) scheduleSaveLocked() {
	s.unsaved = true
	s.tasks.Schedule(TaskAutosave, s.cfg.AutosaveDelay, s.flushSave)
	s.showToastLocked(MsgSaving)
}

// SavePending reports whether an autosave is armed.
func (s *Session) SavePending() bool {
	return s.tasks.Pending(TaskAutosave)
}

// flushSave snapshots the document and sends it. The snapshot and the
// in-flight count are taken under one lock, so a concurrent Commit or Close
// either sends the edits itself or waits for this save.
func (s *Session) flushSave() {
	s.mu.Lock()
	if s.closed || !s.unsaved {
		s.mu.Unlock()
		return
	}
	s.unsaved = false
	doc := s.documentLocked()
	s.inflight.Add(1)
	s.mu.Unlock()
	s.dispatch(func(ctx context.Context) {
		s.save(ctx, doc, true)
	})
}

// save sends doc and reports whether the server accepted it with 204.
func (s *Session) save(ctx context.Context, doc Document, announce bool) bool {
	status, err := s.persister.Save(ctx, doc)
	if err != nil {
		s.fail(fmt.Errorf("save: %w", err))
		return false
	}
	if status != http.StatusNoContent {
		s.fail(fmt.Errorf("save: %w %d", ErrUnexpectedStatus, status))
		return false
	}
	s.logger.Debug("schedule saved", "assignments", len(doc.Assignments))
	s.mu.Lock()
	s.lastErr = nil
	if announce {
		s.showToastLocked(MsgSaved)
	}
	s.mu.Unlock()
	s.notify()
	return true
}

// Commit shows "Committing…" immediately and finalizes the schedule. A 200 or
// 304 response is followed by "Committed" after the confirm delay. A pending
// autosave is sent first so the commit sees the latest edits.
func (s *Session) Commit() {
	s.mu.Lock()
	s.showToastLocked(MsgCommitting)
	s.tasks.Cancel(TaskAutosave)
	pendingSave := s.unsaved
	s.unsaved = false
	doc := s.documentLocked()
	s.mu.Unlock()
	s.notify()

	s.run(func(ctx context.Context) {
		if pendingSave && !s.save(ctx, doc, false) {
			return
		}
		status, err := s.persister.Commit(ctx)
		if err != nil {
			s.fail(fmt.Errorf("commit: %w", err))
			return
		}
		if status != http.StatusOK && status != http.StatusNotModified {
			s.fail(fmt.Errorf("commit: %w %d", ErrUnexpectedStatus, status))
			return
		}
		s.logger.Debug("schedule committed", "status", status)
		s.mu.Lock()
		s.lastErr = nil
		s.tasks.Schedule(TaskCommitConfirm, s.cfg.CommitConfirmDelay, func() {
			s.ShowToast(MsgCommitted)
		})
		s.mu.Unlock()
		s.notify()
	})
}
