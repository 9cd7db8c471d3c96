package domain

import (
	"errors"
	"testing"
	"time"
)

// TestDateTaskKeys verifies key rendering and parsing for each slot kind.
func TestDateTaskKeys(t *testing.T) {
	tests := []struct {
		key  string
		task DateTask
	}{
		{key: "2026-3-8-song_leader", task: DateTask{Year: 2026, Month: time.March, Slot: 8, Duty: "song_leader"}},
		{key: "2026-3-0-lords_supper", task: DateTask{Year: 2026, Month: time.March, Slot: 0, Duty: "lords_supper"}},
		{key: "2026-12-bulletin", task: DateTask{Year: 2026, Month: time.December, Slot: MonthlySlot, Duty: "bulletin"}},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := ParseDateTask(tc.key)
			if err != nil {
				t.Fatalf("ParseDateTask() error = %v", err)
			}
			if got != tc.task {
				t.Fatalf("ParseDateTask() = %+v, want %+v", got, tc.task)
			}
			if got.Key() != tc.key {
				t.Fatalf("Key() = %q, want %q", got.Key(), tc.key)
			}
		})
	}
	for _, bad := range []string{"", "song_leader", "2026-13-1-x", "2026-3-1-", "26-3-1-x"} {
		if _, err := ParseDateTask(bad); !errors.Is(err, ErrInvalidDateTask) {
			t.Fatalf("ParseDateTask(%q) error = %v, want ErrInvalidDateTask", bad, err)
		}
	}
}

// TestTrimHelpers verifies name, date, and day extraction.
func TestTrimHelpers(t *testing.T) {
	if got := TaskName("2026-3-8-song_leader"); got != "song_leader" {
		t.Fatalf("TaskName() = %q", got)
	}
	if got := TaskName("2026-3-bulletin"); got != "bulletin" {
		t.Fatalf("TaskName() monthly = %q", got)
	}
	if got := TaskDate("2026-3-8-song_leader"); got != "2026-3-8" {
		t.Fatalf("TaskDate() = %q", got)
	}
	day, err := TaskDay("2026-3-8-song_leader")
	if err != nil || day != 8 {
		t.Fatalf("TaskDay() = %d, %v", day, err)
	}
	if _, err := TaskDay("2026-3-bulletin"); !errors.Is(err, ErrInvalidDateTask) {
		t.Fatalf("expected ErrInvalidDateTask for monthly task, got %v", err)
	}
}

// TestMonthWeeks verifies the Sunday-first calendar.
func TestMonthWeeks(t *testing.T) {
	weeks := MonthWeeks(2026, time.March)
	if len(weeks) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(weeks))
	}
	if weeks[0] != [7]int{1, 2, 3, 4, 5, 6, 7} {
		t.Fatalf("unexpected first week %v", weeks[0])
	}
	if weeks[4] != [7]int{29, 30, 31, 0, 0, 0, 0} {
		t.Fatalf("unexpected last week %v", weeks[4])
	}
	april := MonthWeeks(2026, time.April)
	if april[0] != [7]int{0, 0, 0, 1, 2, 3, 4} {
		t.Fatalf("unexpected april first week %v", april[0])
	}
}

// TestCatalogDateTasks verifies expansion of daily, weekly, and monthly duties.
func TestCatalogDateTasks(t *testing.T) {
	catalog := testCatalog(t)
	tasks := catalog.DateTasks(2026, time.March)
	counts := map[string]int{}
	for _, task := range tasks {
		counts[task.Duty]++
	}
	want := map[string]int{"song_leader": 9, "prayer": 5, "lords_supper": 5, "bulletin": 1}
	for duty, n := range want {
		if counts[duty] != n {
			t.Fatalf("duty %s: got %d date tasks, want %d", duty, counts[duty], n)
		}
	}
	if tasks[0].Key() != "2026-3-1-song_leader" {
		t.Fatalf("unexpected first task %q", tasks[0].Key())
	}
	if tasks[len(tasks)-1].Key() != "2026-3-bulletin" {
		t.Fatalf("unexpected last task %q", tasks[len(tasks)-1].Key())
	}
	if !catalog.ContainsDateTask(2026, time.March, "2026-3-4-song_leader") {
		t.Fatal("expected wednesday song leader task")
	}
	if catalog.ContainsDateTask(2026, time.March, "2026-3-4-prayer") {
		t.Fatal("prayer does not run on wednesday")
	}
}
