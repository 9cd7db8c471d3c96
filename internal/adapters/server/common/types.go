// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/rota/internal/domain"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrUnavailable reports a surface the server was started without.
var ErrUnavailable = errors.New("surface unavailable")

// MonthRef addresses one schedule month.
type MonthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// ResolveMonth overlays raw year and month strings onto a fallback month.
// Empty strings keep the fallback value.
func ResolveMonth(fallback MonthRef, rawYear, rawMonth string) (MonthRef, error) {
	out := fallback
	if v := strings.TrimSpace(rawYear); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return MonthRef{}, fmt.Errorf("year %q: %w", v, ErrInvalidRequest)
		}
		out.Year = year
	}
	if v := strings.TrimSpace(rawMonth); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			return MonthRef{}, fmt.Errorf("month %q: %w", v, ErrInvalidRequest)
		}
		out.Month = time.Month(month)
	}
	if err := domain.ValidateMonth(out.Year, out.Month); err != nil {
		return MonthRef{}, fmt.Errorf("resolve month: %w", errors.Join(ErrInvalidRequest, err))
	}
	return out, nil
}

// Document is the editor-facing view of one month.
type Document struct {
	Year        int                 `json:"year"`
	Month       time.Month          `json:"month"`
	Title       string              `json:"title"`
	Sections    []domain.Section    `json:"sections"`
	Suggestions map[string][]string `json:"suggestions"`
	Assignments domain.Assignments  `json:"assignments"`
}

// DocumentFromLayout builds a document from a layout.
func DocumentFromLayout(layout domain.Layout) Document {
	return Document{
		Year:        layout.Year,
		Month:       layout.Month,
		Title:       layout.Title,
		Sections:    layout.Sections,
		Suggestions: layout.Suggestions,
		Assignments: layout.Assignments(),
	}
}

// Layout converts the document back into a layout.
func (d Document) Layout() domain.Layout {
	return domain.Layout{
		Year:        d.Year,
		Month:       d.Month,
		Title:       d.Title,
		Sections:    d.Sections,
		Suggestions: d.Suggestions,
	}
}

// CommitOutcome reports whether a commit recorded anything.
type CommitOutcome struct {
	Created bool `json:"created"`
}

// PDFDocument is a printed month.
type PDFDocument struct {
	Filename string
	Content  []byte
}

// ScheduleService is the schedule surface both transports call.
type ScheduleService interface {
	Document(context.Context, MonthRef) (Document, error)
	RenderHTML(context.Context, MonthRef, bool) ([]byte, error)
	Save(context.Context, MonthRef, domain.Assignments) error
	Assign(context.Context, MonthRef, string, string) (Document, error)
	Commit(context.Context, MonthRef) (CommitOutcome, error)
	PDF(context.Context, MonthRef) (PDFDocument, error)
	Stats(context.Context) ([]domain.DutyStats, error)
}
