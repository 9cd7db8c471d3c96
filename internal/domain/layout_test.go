package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestBuildLayoutSections verifies the section grid for a month.
func TestBuildLayoutSections(t *testing.T) {
	catalog := testCatalog(t)
	schedule, err := NewSchedule(2026, time.March, Assignments{"2026-3-1-song_leader": "Alice"}, time.Now())
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}
	layout := BuildLayout(schedule, catalog)

	titles := make([]string, 0, len(layout.Sections))
	for _, section := range layout.Sections {
		titles = append(titles, section.Title)
	}
	wantTitles := []string{"Worship (Sunday)", "Worship (Wednesday)", "Weekly", "Monthly"}
	if diff := cmp.Diff(wantTitles, titles); diff != "" {
		t.Fatalf("section titles mismatch (-want +got):\n%s", diff)
	}

	sunday := layout.Sections[0]
	if diff := cmp.Diff([]string{"1", "8", "15", "22", "29"}, sunday.Columns); diff != "" {
		t.Fatalf("sunday columns mismatch (-want +got):\n%s", diff)
	}
	if len(sunday.Rows) != 2 || sunday.Rows[0].Duty != "song_leader" || sunday.Rows[1].Duty != "prayer" {
		t.Fatalf("unexpected sunday rows %+v", sunday.Rows)
	}
	if got := sunday.Rows[0].Slots[0]; got.Key != "2026-3-1-song_leader" || got.Value != "Alice" {
		t.Fatalf("unexpected first slot %+v", got)
	}

	wednesday := layout.Sections[1]
	if wednesday.Columns[4] != "" || wednesday.Rows[0].Slots[4].Key != "" {
		t.Fatalf("expected trailing empty wednesday slot, got %+v", wednesday.Rows[0].Slots[4])
	}
	if got := layout.Sections[3].Rows[0].Slots[0].Key; got != "2026-3-bulletin" {
		t.Fatalf("unexpected monthly key %q", got)
	}
	if diff := cmp.Diff([]string{"Bob", "Carl"}, layout.Suggestions["lords_supper"]); diff != "" {
		t.Fatalf("suggestions mismatch (-want +got):\n%s", diff)
	}
	if got := len(layout.Assignments()); got != 20 {
		t.Fatalf("expected 20 keyed slots, got %d", got)
	}
}

// TestNewScheduleValidation verifies year and month bounds.
func TestNewScheduleValidation(t *testing.T) {
	if _, err := NewSchedule(26, time.March, nil, time.Now()); err != ErrInvalidYear {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
	if _, err := NewSchedule(2026, 13, nil, time.Now()); err != ErrInvalidMonth {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}
