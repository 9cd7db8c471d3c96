// Package local persists editor sessions in-process, answering with the same
// statuses the HTTP server would.
package local

import (
	"context"
	"errors"
	"net/http"

	"github.com/hylla/rota/internal/adapters/server/common"
	"github.com/hylla/rota/internal/domain"
	"github.com/hylla/rota/internal/editor"
)

// Backend satisfies editor.Persister over a schedule service for one month.
type Backend struct {
	schedule common.ScheduleService
	month    common.MonthRef
}

// New builds a backend for month.
func New(schedule common.ScheduleService, month common.MonthRef) *Backend {
	return &Backend{schedule: schedule, month: month}
}

// Month returns the month this backend addresses.
func (b *Backend) Month() common.MonthRef {
	return b.month
}

// Load returns the month's document.
func (b *Backend) Load(ctx context.Context) (common.Document, error) {
	return b.schedule.Document(ctx, b.month)
}

// Save stores doc and answers 204. Failures return the status the server
// would have sent alongside the cause.
func (b *Backend) Save(ctx context.Context, doc editor.Document) (int, error) {
	ref := b.month
	if doc.Year != 0 {
		ref = common.MonthRef{Year: doc.Year, Month: doc.Month}
	}
	if err := b.schedule.Save(ctx, ref, doc.Assignments); err != nil {
		return statusFor(err), err
	}
	return http.StatusNoContent, nil
}

// Commit answers 200 when history was recorded and 304 when nothing changed.
func (b *Backend) Commit(ctx context.Context) (int, error) {
	outcome, err := b.schedule.Commit(ctx, b.month)
	if err != nil {
		return statusFor(err), err
	}
	if !outcome.Created {
		return http.StatusNotModified, nil
	}
	return http.StatusOK, nil
}

// PDF prints the month.
func (b *Backend) PDF(ctx context.Context) (common.PDFDocument, error) {
	return b.schedule.PDF(ctx, b.month)
}

// Stats returns fairness statistics over the committed history.
func (b *Backend) Stats(ctx context.Context) ([]domain.DutyStats, error) {
	return b.schedule.Stats(ctx)
}

// statusFor mirrors the HTTP adapter's error classification.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
