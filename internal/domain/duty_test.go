package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestParseDutyCode verifies weekday, weekly, and monthly codes.
func TestParseDutyCode(t *testing.T) {
	tests := []struct {
		code    string
		kind    CodeKind
		days    []time.Weekday
		wantErr error
	}{
		{code: "0", kind: CodeServiceDays, days: []time.Weekday{time.Sunday}},
		{code: "30", kind: CodeServiceDays, days: []time.Weekday{time.Sunday, time.Wednesday}},
		{code: "W", kind: CodeWeekly},
		{code: "m", kind: CodeMonthly},
		{code: "", wantErr: ErrInvalidDutyCode},
		{code: "7", wantErr: ErrInvalidDutyCode},
		{code: "0w", wantErr: ErrInvalidDutyCode},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			kind, days, err := ParseDutyCode(tc.code)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ParseDutyCode(%q) error = %v, want %v", tc.code, err, tc.wantErr)
			}
			if kind != tc.kind {
				t.Fatalf("ParseDutyCode(%q) kind = %q, want %q", tc.code, kind, tc.kind)
			}
			if diff := cmp.Diff(tc.days, days); tc.wantErr == nil && len(tc.days) > 0 && diff != "" {
				t.Fatalf("ParseDutyCode(%q) days mismatch (-want +got):\n%s", tc.code, diff)
			}
		})
	}
}

// TestNewCatalogValidation verifies catalog reference checks.
func TestNewCatalogValidation(t *testing.T) {
	duties := []Duty{{Key: "prayer", Code: "0"}}
	if _, err := NewCatalog([]Duty{{Key: "bad key", Code: "0"}}, nil, nil); err != ErrInvalidDutyKey {
		t.Fatalf("expected ErrInvalidDutyKey, got %v", err)
	}
	if _, err := NewCatalog(append(duties, duties...), nil, nil); err != ErrDuplicateDuty {
		t.Fatalf("expected ErrDuplicateDuty, got %v", err)
	}
	if _, err := NewCatalog(duties, []Person{{Name: "Al", Duties: []string{"usher"}}}, nil); err != ErrUnknownDuty {
		t.Fatalf("expected ErrUnknownDuty, got %v", err)
	}
	if _, err := NewCatalog(duties, []Person{{Name: "Al"}, {Name: " al "}}, nil); err != ErrDuplicatePerson {
		t.Fatalf("expected ErrDuplicatePerson, got %v", err)
	}
	if _, err := NewCatalog(duties, nil, []Exclusion{{A: "prayer", B: "prayer"}}); err != ErrInvalidExclusion {
		t.Fatalf("expected ErrInvalidExclusion, got %v", err)
	}
}

// TestCatalogEligibility verifies roster-order eligibility and exclusions.
func TestCatalogEligibility(t *testing.T) {
	catalog := testCatalog(t)
	if diff := cmp.Diff([]string{"Alice", "Bob", "Carl"}, catalog.EligiblePeople("prayer")); diff != "" {
		t.Fatalf("EligiblePeople() mismatch (-want +got):\n%s", diff)
	}
	if !catalog.Excluded("prayer", "song_leader") {
		t.Fatal("expected exclusion to match in either order")
	}
	if diff := cmp.Diff([]time.Weekday{time.Sunday, time.Wednesday}, catalog.ServiceDays()); diff != "" {
		t.Fatalf("ServiceDays() mismatch (-want +got):\n%s", diff)
	}
}
