package editor

// Toast messages.
const (
	MsgSaving     = "Saving…"
	MsgSaved      = "Saved"
	MsgCommitting = "Committing…"
	MsgCommitted  = "Committed"
)

// Toast is the single status notification. Hiding fades it out but keeps the message.
type Toast struct {
	Message string
	Visible bool
	Shown   uint64
}

// ShowToast displays msg, replacing any current message and its pending auto-hide.
func (s *Session) ShowToast(msg string) {
	s.mu.Lock()
	s.showToastLocked(msg)
	s.mu.Unlock()
	s.notify()
}

// showToastLocked displays msg; the caller holds s.mu.
func (s *Session) showToastLocked(msg string) {
	s.toast.Message = msg
	s.toast.Visible = true
	s.toast.Shown++
	s.tasks.Schedule(TaskToast, s.cfg.ToastDuration, s.hideToast)
}

// hideToast fades the toast out.
func (s *Session) hideToast() {
	s.mu.Lock()
	s.toast.Visible = false
	s.mu.Unlock()
	s.notify()
}
