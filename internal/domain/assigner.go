package domain

import "time"

// FairAssign fills every date task of a month with the eligible person who
// has held the duty least often, counting both history and this month.
// Same-day double booking is avoided while any other eligible person
// remains, then excluded duty pairs; a task with no eligible person stays empty.
func FairAssign(catalog Catalog, year int, month time.Month, history Assignments) Assignments {
	out := Assignments{}
	sameDay := make(map[int][]DateTask)
	for _, task := range catalog.DateTasks(year, month) {
		candidates := catalog.EligiblePeople(task.Duty)
		if len(candidates) == 0 {
			out[task.Key()] = ""
			continue
		}
		daily := task.Slot != MonthlySlot && isServiceDayTask(catalog, task)
		pick := ""
		for _, rule := range []conflictRule{noDoubleBooking, noExcludedPair, anyCandidate} {
			best := -1
			for _, person := range candidates {
				if daily && conflicts(catalog, out, sameDay[task.Slot], task, person, rule) {
					continue
				}
				load := history.CountFor(person, task.Duty) + out.CountFor(person, task.Duty)
				if best < 0 || load < best {
					best = load
					pick = person
				}
			}
			if best >= 0 {
				break
			}
		}
		out[task.Key()] = pick
		if daily {
			sameDay[task.Slot] = append(sameDay[task.Slot], task)
		}
	}
	return out
}

// isServiceDayTask reports whether the date task belongs to a service-day duty.
func isServiceDayTask(catalog Catalog, task DateTask) bool {
	duty, ok := catalog.Duty(task.Duty)
	return ok && duty.Kind() == CodeServiceDays
}

// conflictRule selects how strictly same-day assignments are checked.
type conflictRule int

const (
	noDoubleBooking conflictRule = iota
	noExcludedPair
	anyCandidate
)

// conflicts reports whether giving the task to person breaks the rule for that day.
func conflicts(catalog Catalog, assigned Assignments, day []DateTask, task DateTask, person string, rule conflictRule) bool {
	if rule == anyCandidate {
		return false
	}
	for _, other := range day {
		if assigned[other.Key()] != person {
			continue
		}
		if rule == noDoubleBooking || catalog.Excluded(other.Duty, task.Duty) {
			return true
		}
	}
	return false
}
