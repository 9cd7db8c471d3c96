package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/hylla/rota/internal/app"
	"github.com/hylla/rota/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// Document returns the layout and assignments of a month.
func (a *AppServiceAdapter) Document(ctx context.Context, ref MonthRef) (Document, error) {
	if err := a.ready(); err != nil {
		return Document{}, err
	}
	layout, err := a.service.Layout(ctx, ref.Year, ref.Month)
	if err != nil {
		return Document{}, mapAppError("load document", err)
	}
	return DocumentFromLayout(layout), nil
}

// RenderHTML renders a month as HTML.
func (a *AppServiceAdapter) RenderHTML(ctx context.Context, ref MonthRef, interactive bool) ([]byte, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	page, err := a.service.RenderHTML(ctx, ref.Year, ref.Month, interactive)
	if err != nil {
		return nil, mapAppError("render html", err)
	}
	return page, nil
}

// Save replaces a month's working assignments.
func (a *AppServiceAdapter) Save(ctx context.Context, ref MonthRef, assignments domain.Assignments) error {
	if err := a.ready(); err != nil {
		return err
	}
	if _, err := a.service.SaveAssignments(ctx, ref.Year, ref.Month, assignments); err != nil {
		return mapAppError("save", err)
	}
	return nil
}

// Assign sets one date task and returns the updated document.
func (a *AppServiceAdapter) Assign(ctx context.Context, ref MonthRef, dateTask, person string) (Document, error) {
	if err := a.ready(); err != nil {
		return Document{}, err
	}
	if _, err := a.service.Assign(ctx, ref.Year, ref.Month, dateTask, person); err != nil {
		return Document{}, mapAppError("assign", err)
	}
	return a.Document(ctx, ref)
}

// Commit finalizes a month.
func (a *AppServiceAdapter) Commit(ctx context.Context, ref MonthRef) (CommitOutcome, error) {
	if err := a.ready(); err != nil {
		return CommitOutcome{}, err
	}
	result, err := a.service.Commit(ctx, ref.Year, ref.Month)
	if err != nil {
		return CommitOutcome{}, mapAppError("commit", err)
	}
	return CommitOutcome{Created: result == app.CommitCreated}, nil
}

// PDF prints a month.
func (a *AppServiceAdapter) PDF(ctx context.Context, ref MonthRef) (PDFDocument, error) {
	if err := a.ready(); err != nil {
		return PDFDocument{}, err
	}
	content, filename, err := a.service.PDF(ctx, ref.Year, ref.Month)
	if err != nil {
		return PDFDocument{}, mapAppError("pdf", err)
	}
	return PDFDocument{Filename: filename, Content: content}, nil
}

// Stats returns fairness statistics over the committed history.
func (a *AppServiceAdapter) Stats(ctx context.Context) ([]domain.DutyStats, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	stats, err := a.service.Stats(ctx)
	if err != nil {
		return nil, mapAppError("stats", err)
	}
	return stats, nil
}

// ready reports whether the adapter wraps a service.
func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

// mapAppError classifies app and domain errors into transport errors.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrRendererMissing), errors.Is(err, app.ErrPrinterMissing):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnavailable, err))
	case errors.Is(err, domain.ErrNoAssignments),
		errors.Is(err, domain.ErrInvalidDateTask),
		errors.Is(err, domain.ErrForeignAssignment),
		errors.Is(err, domain.ErrInvalidYear),
		errors.Is(err, domain.ErrInvalidMonth),
		errors.Is(err, app.ErrUnknownAssignment):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
