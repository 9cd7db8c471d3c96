package domain

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// CodeKind classifies how often a duty repeats within a month.
type CodeKind string

// CodeKind values.
const (
	CodeServiceDays CodeKind = "days"
	CodeWeekly      CodeKind = "weekly"
	CodeMonthly     CodeKind = "monthly"
)

// dutyKeyPattern matches keys that can be embedded in a date-task key.
var dutyKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Duty represents one schedulable role.
type Duty struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Service string `json:"service"`
}

// NewDuty constructs a validated duty.
func NewDuty(key, name, code, service string) (Duty, error) {
	key = strings.TrimSpace(key)
	name = strings.TrimSpace(name)
	code = strings.ToLower(strings.TrimSpace(code))
	service = strings.TrimSpace(service)
	if !dutyKeyPattern.MatchString(key) {
		return Duty{}, ErrInvalidDutyKey
	}
	if name == "" {
		name = key
	}
	if _, _, err := ParseDutyCode(code); err != nil {
		return Duty{}, err
	}
	return Duty{Key: key, Name: name, Code: code, Service: service}, nil
}

// Kind reports the repeat kind for the duty code.
func (d Duty) Kind() CodeKind {
	kind, _, _ := ParseDutyCode(d.Code)
	return kind
}

// Weekdays returns the service weekdays for a service-day duty.
func (d Duty) Weekdays() []time.Weekday {
	_, days, _ := ParseDutyCode(d.Code)
	return days
}

// ParseDutyCode parses a duty code: weekday digits (Sunday=0), "w", or "m".
func ParseDutyCode(code string) (CodeKind, []time.Weekday, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	switch code {
	case "":
		return "", nil, ErrInvalidDutyCode
	case "w":
		return CodeWeekly, nil, nil
	case "m":
		return CodeMonthly, nil, nil
	}
	days := make([]time.Weekday, 0, len(code))
	for _, r := range code {
		if r < '0' || r > '6' {
			return "", nil, ErrInvalidDutyCode
		}
		day := time.Weekday(r - '0')
		if slices.Contains(days, day) {
			continue
		}
		days = append(days, day)
	}
	slices.Sort(days)
	return CodeServiceDays, days, nil
}

// Person represents one member of the roster and the duties they may hold.
type Person struct {
	Name   string   `json:"name"`
	Duties []string `json:"duties"`
}

// Eligible reports whether the person may hold the duty.
func (p Person) Eligible(duty string) bool {
	return slices.Contains(p.Duties, duty)
}

// Exclusion names two duties one person may not hold on the same service day.
type Exclusion struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Matches reports whether the pair covers both duties, in either order.
func (e Exclusion) Matches(a, b string) bool {
	return (e.A == a && e.B == b) || (e.A == b && e.B == a)
}

// Catalog holds the duties, people, and exclusions a schedule is built from.
type Catalog struct {
	Duties     []Duty      `json:"duties"`
	People     []Person    `json:"people"`
	Exclusions []Exclusion `json:"exclusions"`
}

// NewCatalog constructs a validated catalog.
func NewCatalog(duties []Duty, people []Person, exclusions []Exclusion) (Catalog, error) {
	seenDuty := make(map[string]struct{}, len(duties))
	outDuties := make([]Duty, 0, len(duties))
	for _, d := range duties {
		duty, err := NewDuty(d.Key, d.Name, d.Code, d.Service)
		if err != nil {
			return Catalog{}, err
		}
		if _, ok := seenDuty[duty.Key]; ok {
			return Catalog{}, ErrDuplicateDuty
		}
		seenDuty[duty.Key] = struct{}{}
		outDuties = append(outDuties, duty)
	}

	seenPerson := make(map[string]struct{}, len(people))
	outPeople := make([]Person, 0, len(people))
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return Catalog{}, ErrInvalidName
		}
		key := strings.ToLower(name)
		if _, ok := seenPerson[key]; ok {
			return Catalog{}, ErrDuplicatePerson
		}
		seenPerson[key] = struct{}{}
		eligible := make([]string, 0, len(p.Duties))
		for _, duty := range p.Duties {
			duty = strings.TrimSpace(duty)
			if _, ok := seenDuty[duty]; !ok {
				return Catalog{}, ErrUnknownDuty
			}
			if !slices.Contains(eligible, duty) {
				eligible = append(eligible, duty)
			}
		}
		outPeople = append(outPeople, Person{Name: name, Duties: eligible})
	}

	outExclusions := make([]Exclusion, 0, len(exclusions))
	for _, ex := range exclusions {
		a, b := strings.TrimSpace(ex.A), strings.TrimSpace(ex.B)
		if a == "" || b == "" || a == b {
			return Catalog{}, ErrInvalidExclusion
		}
		if _, ok := seenDuty[a]; !ok {
			return Catalog{}, ErrUnknownDuty
		}
		if _, ok := seenDuty[b]; !ok {
			return Catalog{}, ErrUnknownDuty
		}
		outExclusions = append(outExclusions, Exclusion{A: a, B: b})
	}

	return Catalog{Duties: outDuties, People: outPeople, Exclusions: outExclusions}, nil
}

// Duty looks up a duty by key.
func (c Catalog) Duty(key string) (Duty, bool) {
	for _, d := range c.Duties {
		if d.Key == key {
			return d, true
		}
	}
	return Duty{}, false
}

// EligiblePeople returns the names of people eligible for a duty in roster order.
func (c Catalog) EligiblePeople(duty string) []string {
	out := make([]string, 0)
	for _, p := range c.People {
		if p.Eligible(duty) {
			out = append(out, p.Name)
		}
	}
	return out
}

// Excluded reports whether one person holding both duties on the same day is forbidden.
func (c Catalog) Excluded(a, b string) bool {
	for _, ex := range c.Exclusions {
		if ex.Matches(a, b) {
			return true
		}
	}
	return false
}

// ServiceDays returns the union of weekdays any service-day duty runs on.
func (c Catalog) ServiceDays() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for _, d := range c.Duties {
		for _, day := range d.Weekdays() {
			if !slices.Contains(out, day) {
				out = append(out, day)
			}
		}
	}
	slices.Sort(out)
	return out
}

// dutyIndex returns the declaration position of a duty, or len(Duties) when unknown.
func (c Catalog) dutyIndex(key string) int {
	for i, d := range c.Duties {
		if d.Key == key {
			return i
		}
	}
	return len(c.Duties)
}
