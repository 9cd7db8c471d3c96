package domain

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Slot is one cell of a layout row. An empty Key marks padding with no task.
type Slot struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// LayoutRow is one duty's run of slots inside a section.
type LayoutRow struct {
	Duty  string `json:"duty"`
	Label string `json:"label"`
	Slots []Slot `json:"slots"`
}

// Section is one table of the rendered schedule.
type Section struct {
	Title   string      `json:"title"`
	Columns []string    `json:"columns"`
	Rows    []LayoutRow `json:"rows"`
}

// Layout is the presentation grid for a month shared by every renderer.
type Layout struct {
	Year        int                 `json:"year"`
	Month       time.Month          `json:"month"`
	Title       string              `json:"title"`
	Sections    []Section           `json:"sections"`
	Suggestions map[string][]string `json:"suggestions"`
}

// Assignments collects every keyed slot value in the layout.
func (l Layout) Assignments() Assignments {
	out := Assignments{}
	for _, section := range l.Sections {
		for _, row := range section.Rows {
			for _, slot := range row.Slots {
				if slot.Key != "" {
					out[slot.Key] = slot.Value
				}
			}
		}
	}
	return out
}

// Duties returns the distinct duty keys with suggestion lists, sorted.
func (l Layout) Duties() []string {
	out := make([]string, 0, len(l.Suggestions))
	for duty := range l.Suggestions {
		out = append(out, duty)
	}
	slices.Sort(out)
	return out
}

// BuildLayout arranges a schedule into sections: one per service and weekday,
// then weekly and monthly duties.
func BuildLayout(schedule Schedule, catalog Catalog) Layout {
	year, month := schedule.Year, schedule.Month
	weeks := serviceWeeks(year, month, catalog.ServiceDays())
	layout := Layout{
		Year:        year,
		Month:       month,
		Title:       schedule.Title(),
		Sections:    make([]Section, 0),
		Suggestions: make(map[string][]string, len(catalog.Duties)),
	}
	for _, duty := range catalog.Duties {
		layout.Suggestions[duty.Key] = catalog.EligiblePeople(duty.Key)
	}
	value := func(task DateTask) Slot {
		key := task.Key()
		return Slot{Key: key, Value: schedule.Assignments[key]}
	}

	for _, service := range serviceNames(catalog) {
		for _, wd := range serviceWeekdays(catalog, service) {
			section := Section{
				Title:   sectionTitle(service, wd),
				Columns: make([]string, 0, len(weeks)),
				Rows:    make([]LayoutRow, 0),
			}
			for _, week := range weeks {
				if week[wd] == 0 {
					section.Columns = append(section.Columns, "")
					continue
				}
				section.Columns = append(section.Columns, strconv.Itoa(week[wd]))
			}
			for _, duty := range catalog.Duties {
				if duty.Service != service || duty.Kind() != CodeServiceDays || !slices.Contains(duty.Weekdays(), wd) {
					continue
				}
				row := LayoutRow{Duty: duty.Key, Label: duty.Name, Slots: make([]Slot, 0, len(weeks))}
				for _, week := range weeks {
					if week[wd] == 0 {
						row.Slots = append(row.Slots, Slot{})
						continue
					}
					row.Slots = append(row.Slots, value(DateTask{Year: year, Month: month, Slot: week[wd], Duty: duty.Key}))
				}
				section.Rows = append(section.Rows, row)
			}
			layout.Sections = append(layout.Sections, section)
		}
	}

	weekly := Section{Title: "Weekly", Columns: make([]string, 0, len(weeks)), Rows: make([]LayoutRow, 0)}
	for i := range weeks {
		weekly.Columns = append(weekly.Columns, fmt.Sprintf("Week %d", i+1))
	}
	monthly := Section{Title: "Monthly", Columns: []string{month.String()}, Rows: make([]LayoutRow, 0)}
	for _, duty := range catalog.Duties {
		switch duty.Kind() {
		case CodeWeekly:
			row := LayoutRow{Duty: duty.Key, Label: duty.Name, Slots: make([]Slot, 0, len(weeks))}
			for i := range weeks {
				row.Slots = append(row.Slots, value(DateTask{Year: year, Month: month, Slot: i, Duty: duty.Key}))
			}
			weekly.Rows = append(weekly.Rows, row)
		case CodeMonthly:
			monthly.Rows = append(monthly.Rows, LayoutRow{
				Duty:  duty.Key,
				Label: duty.Name,
				Slots: []Slot{value(DateTask{Year: year, Month: month, Slot: MonthlySlot, Duty: duty.Key})},
			})
		}
	}
	if len(weekly.Rows) > 0 {
		layout.Sections = append(layout.Sections, weekly)
	}
	if len(monthly.Rows) > 0 {
		layout.Sections = append(layout.Sections, monthly)
	}
	return layout
}

// serviceNames returns service labels of service-day duties in first-seen order.
func serviceNames(catalog Catalog) []string {
	out := make([]string, 0)
	for _, duty := range catalog.Duties {
		if duty.Kind() != CodeServiceDays {
			continue
		}
		if !slices.Contains(out, duty.Service) {
			out = append(out, duty.Service)
		}
	}
	return out
}

// serviceWeekdays returns the weekdays a service meets on.
func serviceWeekdays(catalog Catalog, service string) []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for _, duty := range catalog.Duties {
		if duty.Service != service || duty.Kind() != CodeServiceDays {
			continue
		}
		for _, wd := range duty.Weekdays() {
			if !slices.Contains(out, wd) {
				out = append(out, wd)
			}
		}
	}
	slices.Sort(out)
	return out
}

// sectionTitle labels a service section.
func sectionTitle(service string, wd time.Weekday) string {
	if service == "" {
		return wd.String()
	}
	return fmt.Sprintf("%s (%s)", service, wd)
}
