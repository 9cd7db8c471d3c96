package app

import (
	"context"
	"time"

	"github.com/hylla/rota/internal/domain"
)

// Repository persists working schedules, commits, and assignment history.
type Repository interface {
	GetSchedule(context.Context, int, time.Month) (domain.Schedule, error)
	SaveSchedule(context.Context, domain.Schedule) error

	GetLastCommit(context.Context, int, time.Month) (domain.CommitRecord, error)
	// SaveCommit stores the record, drops the replaced history keys, and
	// records the record's assignments, atomically.
	SaveCommit(context.Context, domain.CommitRecord, []string) error

	RecordHistory(context.Context, []domain.HistoryEntry) error
	RemoveHistory(context.Context, []string) error
	ListHistory(context.Context) ([]domain.HistoryEntry, error)
}

// Renderer turns a layout into an HTML document.
type Renderer interface {
	Render(layout domain.Layout, interactive bool) ([]byte, error)
}

// Printer converts an HTML document into a PDF.
type Printer interface {
	Print(ctx context.Context, html []byte) ([]byte, error)
}
