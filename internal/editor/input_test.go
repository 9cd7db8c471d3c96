package editor_test

import (
	"testing"
	"time"

	"github.com/hylla/rota/internal/editor"
)

// TestTypeMirrorsAttribute verifies every keystroke keeps value and attribute equal.
func TestTypeMirrorsAttribute(t *testing.T) {
	h := newHarness(t)
	s := h.session
	if err := s.Focus(b1); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	for _, text := range []string{"R", "Ro", "Rob", "Ro", "", "Robe"} {
		if err := s.Type(b1, text); err != nil {
			t.Fatalf("Type(%q) error = %v", text, err)
		}
		in := h.cell(t, b1).Input
		if in.Value != text || in.Attr != in.Value {
			t.Fatalf("after %q: value %q attr %q", text, in.Value, in.Attr)
		}
	}
	if err := s.Type(a3, "x"); err != editor.ErrNotEditable {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

// TestFocusBlurWithoutTyping verifies focus stages the placeholder and blur restores it.
func TestFocusBlurWithoutTyping(t *testing.T) {
	h := newHarness(t)
	s := h.session
	if err := s.Focus(b1); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	in := h.cell(t, b1).Input
	if in.Value != "" || in.Placeholder != "Carl" || in.Attr != "Carl" {
		t.Fatalf("unexpected focused input %+v", in)
	}
	if s.Blur(b1) {
		t.Fatal("expected unchanged blur not to save")
	}
	in = h.cell(t, b1).Input
	if in.Value != "Carl" || in.Attr != "Carl" {
		t.Fatalf("unexpected restored input %+v", in)
	}
	if s.SavePending() {
		t.Fatal("expected no pending save")
	}
}

// TestBlurAfterTypingSaves verifies typed text replaces the placeholder and schedules a save.
func TestBlurAfterTypingSaves(t *testing.T) {
	h := newHarness(t)
	s := h.session
	if err := s.Focus(b1); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	if err := s.Type(b1, "Dana"); err != nil {
		t.Fatalf("Type() error = %v", err)
	}
	if !s.Blur(b1) {
		t.Fatal("expected changed blur to schedule a save")
	}
	in := h.cell(t, b1).Input
	if in.Value != "Dana" || in.Placeholder != "Dana" || in.Attr != "Dana" {
		t.Fatalf("unexpected input %+v", in)
	}
	h.clock.Advance(2 * time.Second)
	if n := len(h.store.Calls("save")); n != 1 {
		t.Fatalf("expected one save, got %d", n)
	}
}

// TestBlurSameValueDoesNotSave verifies retyping the focus-time value is not a change.
func TestBlurSameValueDoesNotSave(t *testing.T) {
	h := newHarness(t)
	s := h.session
	if err := s.Focus(b1); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	if err := s.Type(b1, "Carl"); err != nil {
		t.Fatalf("Type() error = %v", err)
	}
	if s.Blur(b1) {
		t.Fatal("expected no save for an unchanged value")
	}
}

// TestEnterAcceptsFirstSuggestion verifies case-insensitive substring autocomplete.
func TestEnterAcceptsFirstSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		typed   string
		want    string
		value   string
		changed bool
	}{
		{name: "first substring match", typed: "OB", want: "Bob", value: "Bob", changed: true},
		{name: "later match", typed: "rob", want: "Robert", value: "Robert", changed: true},
		{name: "no match keeps text", typed: "zed", want: "", value: "zed", changed: true},
		{name: "empty input restores", typed: "", want: "", value: "Carl", changed: false},
		{name: "match equal to original", typed: "arl", want: "Carl", value: "Carl", changed: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			s := h.session
			if err := s.Focus(b1); err != nil {
				t.Fatalf("Focus() error = %v", err)
			}
			if err := s.Type(b1, tc.typed); err != nil {
				t.Fatalf("Type() error = %v", err)
			}
			got, saved := s.Enter(b1)
			if got != tc.want || saved != tc.changed {
				t.Fatalf("Enter() = %q, %t; want %q, %t", got, saved, tc.want, tc.changed)
			}
			in := h.cell(t, b1).Input
			if in.Value != tc.value || in.Attr != tc.value || in.Placeholder != tc.value {
				t.Fatalf("unexpected input %+v", in)
			}
			if st := s.State(); st.Focused {
				t.Fatal("expected Enter to blur")
			}
		})
	}
}

// TestFocusMovesBetweenInputs verifies focusing another input blurs the first.
func TestFocusMovesBetweenInputs(t *testing.T) {
	h := newHarness(t)
	s := h.session
	if err := s.Focus(b1); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	if err := s.Focus(b2); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	if in := h.cell(t, b1).Input; in.Value != "Carl" {
		t.Fatalf("expected first input restored, got %+v", in)
	}
	st := s.State()
	if !st.Focused || st.FocusCell != b2 {
		t.Fatalf("expected focus on b2, got %+v", st.FocusCell)
	}
}

// TestHoverHighlightsMatches verifies value and placeholder matching on trimmed text.
func TestHoverHighlightsMatches(t *testing.T) {
	h := newHarness(t)
	s := h.session
	s.Hover(a1)
	highlighted := func() map[editor.CellID]bool {
		out := map[editor.CellID]bool{}
		board := s.State().Board
		board.Each(func(c *editor.Cell) {
			if c.Input.Highlight {
				out[c.ID] = true
			}
		})
		return out
	}
	got := highlighted()
	if len(got) != 2 || !got[a1] || !got[b2] {
		t.Fatalf("expected a1 and b2 highlighted, got %v", got)
	}
	s.Unhover(a2)
	if len(highlighted()) != 2 {
		t.Fatal("unhover of another cell must keep highlights")
	}
	s.Unhover(a1)
	if got := highlighted(); len(got) != 0 {
		t.Fatalf("expected highlights cleared, got %v", got)
	}

	if err := s.Focus(a1); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	s.Hover(b2)
	got = highlighted()
	if !got[a1] || !got[b2] {
		t.Fatalf("expected placeholder match on focused a1, got %v", got)
	}
	s.Hover(b3)
	if got := highlighted(); len(got) != 0 {
		t.Fatalf("empty value must highlight nothing, got %v", got)
	}
}
