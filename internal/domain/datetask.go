package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"
)

// MonthlySlot marks a date task that covers the whole month.
const MonthlySlot = -1

var (
	dateTaskPattern = regexp.MustCompile(`^([0-9]{4})-([0-9]{1,2})-(?:([0-9]{1,2})-)?([A-Za-z_][A-Za-z0-9_]*)$`)
	taskDatePrefix  = regexp.MustCompile(`^[0-9]+-[0-9]+-(?:[0-9]+-)?`)
	taskNameSuffix  = regexp.MustCompile(`-[A-Za-z_][A-Za-z0-9_]*$`)
)

// DateTask identifies one duty occurrence inside a month.
// Slot is the day of month for service-day duties, the zero-based service
// week for weekly duties, and MonthlySlot for monthly duties.
type DateTask struct {
	Year  int
	Month time.Month
	Slot  int
	Duty  string
}

// Key renders the date task as YYYY-M-D-duty, YYYY-M-W-duty, or YYYY-M-duty.
func (d DateTask) Key() string {
	if d.Slot == MonthlySlot {
		return fmt.Sprintf("%d-%d-%s", d.Year, int(d.Month), d.Duty)
	}
	return fmt.Sprintf("%d-%d-%d-%s", d.Year, int(d.Month), d.Slot, d.Duty)
}

// ParseDateTask parses a date-task key.
func ParseDateTask(key string) (DateTask, error) {
	m := dateTaskPattern.FindStringSubmatch(key)
	if m == nil {
		return DateTask{}, fmt.Errorf("%w: %q", ErrInvalidDateTask, key)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return DateTask{}, fmt.Errorf("%w: %q", ErrInvalidDateTask, key)
	}
	slot := MonthlySlot
	if m[3] != "" {
		slot, _ = strconv.Atoi(m[3])
	}
	return DateTask{Year: year, Month: time.Month(month), Slot: slot, Duty: m[4]}, nil
}

// TaskName strips the date prefix from a date-task key, leaving the duty key.
func TaskName(key string) string {
	return taskDatePrefix.ReplaceAllString(key, "")
}

// TaskDate strips the duty suffix from a date-task key, leaving its date part.
func TaskDate(key string) string {
	return taskNameSuffix.ReplaceAllString(key, "")
}

// TaskDay returns the day (or week) component of a date-task key.
func TaskDay(key string) (int, error) {
	task, err := ParseDateTask(key)
	if err != nil {
		return 0, err
	}
	if task.Slot == MonthlySlot {
		return 0, fmt.Errorf("%w: %q has no day", ErrInvalidDateTask, key)
	}
	return task.Slot, nil
}

// MonthWeeks returns the Sunday-first calendar of a month; days outside the month are 0.
func MonthWeeks(year int, month time.Month) [][7]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	weeks := make([][7]int, 0, 6)
	var week [7]int
	col := int(first.Weekday())
	for day := 1; day <= last; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// serviceWeeks returns the calendar weeks containing at least one service day.
func serviceWeeks(year int, month time.Month, serviceDays []time.Weekday) [][7]int {
	out := make([][7]int, 0, 6)
	for _, week := range MonthWeeks(year, month) {
		for _, day := range serviceDays {
			if week[day] != 0 {
				out = append(out, week)
				break
			}
		}
	}
	return out
}

// DateTasks expands every duty into the date tasks it produces for a month,
// ordered by slot then duty declaration order.
func (c Catalog) DateTasks(year int, month time.Month) []DateTask {
	weeks := serviceWeeks(year, month, c.ServiceDays())
	out := make([]DateTask, 0)
	for _, duty := range c.Duties {
		switch duty.Kind() {
		case CodeMonthly:
			out = append(out, DateTask{Year: year, Month: month, Slot: MonthlySlot, Duty: duty.Key})
		case CodeWeekly:
			for i := range weeks {
				out = append(out, DateTask{Year: year, Month: month, Slot: i, Duty: duty.Key})
			}
		case CodeServiceDays:
			for _, week := range MonthWeeks(year, month) {
				for _, wd := range duty.Weekdays() {
					if week[wd] != 0 {
						out = append(out, DateTask{Year: year, Month: month, Slot: week[wd], Duty: duty.Key})
					}
				}
			}
		}
	}
	slices.SortStableFunc(out, func(a, b DateTask) int {
		if ka, kb := c.slotOrder(a), c.slotOrder(b); ka != kb {
			return ka - kb
		}
		return c.dutyIndex(a.Duty) - c.dutyIndex(b.Duty)
	})
	return out
}

// slotOrder ranks date tasks so that daily tasks come first, then weekly, then monthly.
func (c Catalog) slotOrder(task DateTask) int {
	duty, _ := c.Duty(task.Duty)
	switch duty.Kind() {
	case CodeWeekly:
		return 100 + task.Slot
	case CodeMonthly:
		return 1000
	default:
		return task.Slot
	}
}

// ContainsDateTask reports whether the key is one of the month's date tasks.
func (c Catalog) ContainsDateTask(year int, month time.Month, key string) bool {
	for _, task := range c.DateTasks(year, month) {
		if task.Key() == key {
			return true
		}
	}
	return false
}
