package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/rota/internal/app"
	"github.com/hylla/rota/internal/domain"
)

// TestMapAppError verifies domain and app errors map onto transport classes.
func TestMapAppError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found", err: app.ErrNotFound, want: ErrNotFound},
		{name: "no assignments", err: domain.ErrNoAssignments, want: ErrInvalidRequest},
		{name: "wrapped date task", err: fmt.Errorf("x: %w", domain.ErrInvalidDateTask), want: ErrInvalidRequest},
		{name: "unknown assignment", err: app.ErrUnknownAssignment, want: ErrInvalidRequest},
		{name: "printer", err: app.ErrPrinterMissing, want: ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapAppError("op", tc.err)
			if !errors.Is(got, tc.want) || !errors.Is(got, tc.err) {
				t.Fatalf("mapAppError() = %v, want %v wrapping %v", got, tc.want, tc.err)
			}
		})
	}
	if mapAppError("op", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

// TestResolveMonth verifies query overrides and validation.
func TestResolveMonth(t *testing.T) {
	fallback := MonthRef{Year: 2026, Month: time.March}
	got, err := ResolveMonth(fallback, "", "")
	if err != nil || got != fallback {
		t.Fatalf("ResolveMonth(empty) = %#v, %v", got, err)
	}
	got, err = ResolveMonth(fallback, "2027", " 1 ")
	if err != nil || got != (MonthRef{Year: 2027, Month: time.January}) {
		t.Fatalf("ResolveMonth(override) = %#v, %v", got, err)
	}
	for _, raw := range [][2]string{{"abc", ""}, {"", "13"}, {"", "x"}} {
		if _, err := ResolveMonth(fallback, raw[0], raw[1]); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("ResolveMonth(%q) error = %v, want ErrInvalidRequest", raw, err)
		}
	}
}

// TestNilAdapterUnavailable verifies a nil adapter fails closed.
func TestNilAdapterUnavailable(t *testing.T) {
	var adapter *AppServiceAdapter
	if _, err := adapter.Stats(t.Context()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
