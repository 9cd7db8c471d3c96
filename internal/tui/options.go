package tui

import (
	"context"
	"time"

	"github.com/hylla/rota/internal/domain"
)

// Option configures a Model.
type Option func(*Model)

// WithPDFExporter sets the callback behind the pdf key. It returns where the file went.
func WithPDFExporter(export func(context.Context) (string, error)) Option {
	return func(m *Model) {
		m.exportPDF = export
	}
}

// WithStatsSource sets the callback behind the stats overlay.
func WithStatsSource(load func(context.Context) ([]domain.DutyStats, error)) Option {
	return func(m *Model) {
		m.loadStats = load
	}
}

// WithReloader sets the callback behind the reload key.
func WithReloader(reload func(context.Context) (domain.Layout, error)) Option {
	return func(m *Model) {
		m.reload = reload
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}

// WithNow replaces the wall clock used for double-click detection.
func WithNow(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}
