package editor

import (
	"sync"
	"time"
)

// Task ids used by the session. Each id names one process-wide deferred concern.
const (
	TaskAutosave      = "autosave"
	TaskToast         = "toast"
	TaskCommitConfirm = "commit-confirm"
)

// pendingTask tracks the armed timer for one task id.
type pendingTask struct {
	seq   uint64
	timer Timer
}

// Tasks schedules cancellable single-shot actions keyed by task id.
// Scheduling an id that is already pending replaces it; nothing queues.
type Tasks struct {
	mu      sync.Mutex
	clock   Clock
	seq     uint64
	pending map[string]*pendingTask
	stopped bool
}

// NewTasks constructs a scheduler on the given clock.
func NewTasks(clock Clock) *Tasks {
	if clock == nil {
		clock = SystemClock()
	}
	return &Tasks{
		clock:   clock,
		pending: make(map[string]*pendingTask),
	}
}

// Schedule cancels any pending task under taskID, then arms action to run after delay.
func (t *Tasks) Schedule(taskID string, delay time.Duration, action func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if prev, ok := t.pending[taskID]; ok {
		prev.timer.Stop()
		delete(t.pending, taskID)
	}
	t.seq++
	seq := t.seq
	entry := &pendingTask{seq: seq}
	t.pending[taskID] = entry
	entry.timer = t.clock.AfterFunc(delay, func() {
		t.fire(taskID, seq, action)
	})
}

// fire runs action only if it is still the current task for its id.
func (t *Tasks) fire(taskID string, seq uint64, action func()) {
	t.mu.Lock()
	cur, ok := t.pending[taskID]
	if !ok || cur.seq != seq {
		t.mu.Unlock()
		return
	}
	delete(t.pending, taskID)
	t.mu.Unlock()
	action()
}

// Cancel stops a pending task and reports whether one was pending.
func (t *Tasks) Cancel(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.pending[taskID]
	if !ok {
		return false
	}
	prev.timer.Stop()
	delete(t.pending, taskID)
	return true
}

// Pending reports whether a task is armed under taskID.
func (t *Tasks) Pending(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[taskID]
	return ok
}

// Stop cancels every pending task and refuses new ones.
func (t *Tasks) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for id, entry := range t.pending {
		entry.timer.Stop()
		delete(t.pending, id)
	}
}
