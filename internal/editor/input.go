package editor

import "strings"

// Type sets the live content of cell's input and mirrors it into the
// durable attribute, so every keystroke is carried by the next save or swap.
func (s *Session) Type(id CellID, text string) error {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	cell, err := s.cellLocked(id)
	if err != nil {
		return err
	}
	if !cell.Editable() {
		return ErrNotEditable
	}
	cell.Input.Value = text
	cell.Input.Attr = text
	return nil
}

// Focus stages the current value as the placeholder and clears the field.
// Focusing a new input blurs the previous one first.
func (s *Session) Focus(id CellID) error {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	cell, err := s.cellLocked(id)
	if err != nil {
		return err
	}
	if !cell.Editable() {
		return ErrNotEditable
	}
	if s.focus != nil && s.focus.cell != id {
		s.blurLocked(s.focus.cell)
	}
	cell.Input.Placeholder = cell.Input.Value
	s.focus = &focusState{cell: id, initial: cell.Input.Value}
	cell.Input.Value = ""
	return nil
}

// Blur restores the placeholder as the value. Typed text replaces the
// placeholder first; an empty field keeps it. A value that differs from the
// one at focus schedules a save. It reports whether a save was scheduled.
func (s *Session) Blur(id CellID) bool {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	return s.blurLocked(id)
}

// blurLocked implements Blur; the caller holds s.mu.
func (s *Session) blurLocked(id CellID) bool {
	if s.focus == nil || s.focus.cell != id {
		return false
	}
	initial := s.focus.initial
	s.focus = nil
	cell, err := s.cellLocked(id)
	if err != nil {
		return false
	}
	in := &cell.Input
	if in.Value != "" {
		in.Placeholder = in.Value
	}
	in.Value = in.Placeholder
	in.Attr = in.Placeholder
	if in.Attr == initial {
		return false
	}
	s.scheduleSaveLocked()
	return true
}

// Enter accepts the first suggestion for cell's duty whose text contains the
// partial input, case-insensitively, then blurs. Without a match the typed
// text stands. It returns the accepted suggestion and whether a save was scheduled.
func (s *Session) Enter(id CellID) (string, bool) {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	cell, err := s.cellLocked(id)
	if err != nil || !cell.Editable() {
		return "", false
	}
	accepted := ""
	if partial := strings.ToLower(cell.Input.Value); partial != "" {
		for _, option := range s.suggestions[cell.Duty] {
			if strings.Contains(strings.ToLower(option), partial) {
				accepted = option
				break
			}
		}
	}
	if accepted != "" {
		cell.Input.Value = accepted
		cell.Input.Placeholder = accepted
		cell.Input.Attr = accepted
	}
	return accepted, s.blurLocked(id)
}

// Suggestions returns the autocomplete list for cell's duty.
func (s *Session) Suggestions(id CellID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cell, err := s.cellLocked(id)
	if err != nil {
		return nil
	}
	return append([]string(nil), s.suggestions[cell.Duty]...)
}

// Hover highlights every input whose trimmed value, or non-empty trimmed
// placeholder, equals the hovered input's trimmed attribute.
func (s *Session) Hover(id CellID) {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	s.clearHoverLocked()
	cell, err := s.cellLocked(id)
	if err != nil || !cell.Editable() {
		return
	}
	target := strings.TrimSpace(cell.Input.Attr)
	if target == "" {
		return
	}
	source := id
	s.hoverSource = &source
	s.board.Each(func(c *Cell) {
		if !c.Editable() {
			return
		}
		placeholder := strings.TrimSpace(c.Input.Placeholder)
		if strings.TrimSpace(c.Input.Value) == target || (placeholder != "" && placeholder == target) {
			c.Input.Highlight = true
		}
	})
}

// Unhover removes the highlights applied by hovering cell.
func (s *Session) Unhover(id CellID) {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	if s.hoverSource == nil || *s.hoverSource != id {
		return
	}
	s.clearHoverLocked()
}

// clearHoverLocked drops every hover highlight; the caller holds s.mu.
func (s *Session) clearHoverLocked() {
	s.board.Each(func(c *Cell) {
		c.Input.Highlight = false
	})
	s.hoverSource = nil
}
