package editor

// DragStart lifts cell: it becomes the drag source, dims to OpacityLifted,
// and its input is staged as the transfer payload.
func (s *Session) DragStart(id CellID) error {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	if s.drag != nil {
		return ErrDragInProgress
	}
	cell, err := s.cellLocked(id)
	if err != nil {
		return err
	}
	if !cell.Editable() {
		return ErrNotEditable
	}
	cell.Opacity = OpacityLifted
	s.drag = &dragSession{source: id, payload: cell.Input}
	return nil
}

// DragEnter marks cell as the hovered drop candidate. Purely visual.
func (s *Session) DragEnter(id CellID) {
	s.setOver(id, true)
}

// DragLeave clears the drop candidate mark on cell. Purely visual.
func (s *Session) DragLeave(id CellID) {
	s.setOver(id, false)
}

// setOver toggles the hover affordance on an editable cell.
func (s *Session) setOver(id CellID, over bool) {
	s.mu.Lock()
	cell, err := s.cellLocked(id)
	if err == nil && cell.Editable() {
		cell.Over = over
	}
	s.mu.Unlock()
	s.notify()
}

// DragOver reports whether the pointer event over cell should fall through
// to default handling. It never does: returning false is what lets the drop land.
func (s *Session) DragOver(CellID) bool {
	return false
}

// Drop exchanges the contents of the drag source and target and schedules
// one autosave. Dropping on the source itself, on padding, or without an
// active drag does nothing. It reports whether a swap happened.
func (s *Session) Drop(id CellID) bool {
	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	if s.drag == nil || s.drag.source == id {
		return false
	}
	target, err := s.cellLocked(id)
	if err != nil || !target.Editable() {
		return false
	}
	source, err := s.cellLocked(s.drag.source)
	if err != nil {
		return false
	}
	source.Input = target.Input
	target.Input = s.drag.payload
	s.scheduleSaveLocked()
	return true
}

// DragEnd restores full opacity on the lifted cell, clears every hover
// affordance, and ends the drag. It runs whether or not a drop happened.
func (s *Session) DragEnd(id CellID) {
	s.mu.Lock()
	if cell, err := s.cellLocked(id); err == nil {
		cell.Opacity = OpacityFull
	}
	if s.drag != nil {
		if cell, err := s.cellLocked(s.drag.source); err == nil {
			cell.Opacity = OpacityFull
		}
	}
	s.board.Each(func(c *Cell) {
		c.Over = false
	})
	s.drag = nil
	s.mu.Unlock()
	s.notify()
}

// DragSource returns the lifted cell, if any.
func (s *Session) DragSource() (CellID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag == nil {
		return CellID{}, false
	}
	return s.drag.source, true
}
