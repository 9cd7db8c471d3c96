package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hylla/rota/internal/domain"
)

// CommitResult reports what a commit did.
type CommitResult int

// CommitCreated and CommitUnchanged are the possible commit outcomes.
const (
	CommitCreated CommitResult = iota + 1
	CommitUnchanged
)

// String returns a label for logs.
func (r CommitResult) String() string {
	switch r {
	case CommitCreated:
		return "created"
	case CommitUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Catalog  domain.Catalog
	Renderer Renderer
	Printer  Printer
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service owns schedule persistence, commits, and exports.
type Service struct {
	repo     Repository
	idGen    IDGenerator
	clock    Clock
	renderer Renderer
	printer  Printer

	mu      sync.RWMutex
	catalog domain.Catalog
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:     repo,
		idGen:    idGen,
		clock:    clock,
		renderer: cfg.Renderer,
		printer:  cfg.Printer,
		catalog:  cfg.Catalog,
	}
}

// Catalog returns the active roster.
func (s *Service) Catalog() domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// SetCatalog swaps the roster used for layouts, generation, and stats.
func (s *Service) SetCatalog(catalog domain.Catalog) {
	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
}

// DefaultMonth returns the month after now, the month normally being planned.
func DefaultMonth(now time.Time) (int, time.Month) {
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return next.Year(), next.Month()
}

// PDFFilename names the download for a month.
func PDFFilename(year int, month time.Month) string {
	return fmt.Sprintf("schedule-%d-%d.pdf", int(month), year)
}

// OpenSchedule loads a month, generating and saving a fair assignment when none exists.
func (s *Service) OpenSchedule(ctx context.Context, year int, month time.Month) (domain.Schedule, error) {
	if err := domain.ValidateMonth(year, month); err != nil {
		return domain.Schedule{}, err
	}
	schedule, err := s.repo.GetSchedule(ctx, year, month)
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Schedule{}, err
	}

	history, err := s.History(ctx)
	if err != nil {
		return domain.Schedule{}, err
	}
	assignments := domain.FairAssign(s.Catalog(), year, month, history)
	schedule, err = domain.NewSchedule(year, month, assignments, s.clock())
	if err != nil {
		return domain.Schedule{}, err
	}
	if err := s.repo.SaveSchedule(ctx, schedule); err != nil {
		return domain.Schedule{}, fmt.Errorf("save generated schedule: %w", err)
	}
	return schedule, nil
}

// Layout returns the presentation grid for a month.
func (s *Service) Layout(ctx context.Context, year int, month time.Month) (domain.Layout, error) {
	schedule, err := s.OpenSchedule(ctx, year, month)
	if err != nil {
		return domain.Layout{}, err
	}
	return domain.BuildLayout(schedule, s.Catalog()), nil
}

// SaveAssignments replaces a month's working assignments. Values are stored verbatim.
func (s *Service) SaveAssignments(ctx context.Context, year int, month time.Month, assignments domain.Assignments) (domain.Schedule, error) {
	if len(assignments) == 0 {
		return domain.Schedule{}, domain.ErrNoAssignments
	}
	if err := validateKeys(year, month, assignments); err != nil {
		return domain.Schedule{}, err
	}
	if err := s.checkCatalogKeys(year, month, assignments); err != nil {
		return domain.Schedule{}, err
	}
	schedule, err := s.OpenSchedule(ctx, year, month)
	if err != nil {
		return domain.Schedule{}, err
	}
	schedule.Replace(assignments, s.clock())
	if err := s.repo.SaveSchedule(ctx, schedule); err != nil {
		return domain.Schedule{}, err
	}
	return schedule, nil
}

// Assign sets one date task of a month.
func (s *Service) Assign(ctx context.Context, year int, month time.Month, key, person string) (domain.Schedule, error) {
	key = strings.TrimSpace(key)
	if err := validateKeys(year, month, domain.Assignments{key: person}); err != nil {
		return domain.Schedule{}, err
	}
	if err := s.checkCatalogKeys(year, month, domain.Assignments{key: person}); err != nil {
		return domain.Schedule{}, err
	}
	schedule, err := s.OpenSchedule(ctx, year, month)
	if err != nil {
		return domain.Schedule{}, err
	}
	schedule.Assign(key, person, s.clock())
	if err := s.repo.SaveSchedule(ctx, schedule); err != nil {
		return domain.Schedule{}, err
	}
	return schedule, nil
}

// Commit finalizes a month's working assignments into history.
// An unchanged month writes nothing; a changed one replaces the previous
// commit's history entries.
func (s *Service) Commit(ctx context.Context, year int, month time.Month) (CommitResult, error) {
	schedule, err := s.OpenSchedule(ctx, year, month)
	if err != nil {
		return 0, err
	}
	var replaced []string
	prev, err := s.repo.GetLastCommit(ctx, year, month)
	switch {
	case err == nil:
		if prev.Assignments.Equal(schedule.Assignments) {
			return CommitUnchanged, nil
		}
		replaced = prev.Assignments.Keys()
	case errors.Is(err, ErrNotFound):
	default:
		return 0, err
	}

	record := domain.CommitRecord{
		ID:          s.idGen(),
		Year:        year,
		Month:       month,
		Assignments: schedule.Assignments.Clone(),
		CommittedAt: s.clock().UTC(),
	}
	if err := s.repo.SaveCommit(ctx, record, replaced); err != nil {
		return 0, fmt.Errorf("save commit: %w", err)
	}
	return CommitCreated, nil
}

// History returns the committed assignment history.
func (s *Service) History(ctx context.Context) (domain.Assignments, error) {
	entries, err := s.repo.ListHistory(ctx)
	if err != nil {
		return nil, err
	}
	out := make(domain.Assignments, len(entries))
	for _, entry := range entries {
		out[entry.DateTask] = entry.Person
	}
	return out, nil
}

// HistoryAdd records assignments into history and returns how many were offered.
func (s *Service) HistoryAdd(ctx context.Context, assignments domain.Assignments) (int, error) {
	if len(assignments) == 0 {
		return 0, domain.ErrNoAssignments
	}
	now := s.clock().UTC()
	entries := make([]domain.HistoryEntry, 0, len(assignments))
	for _, key := range assignments.Keys() {
		entries = append(entries, domain.HistoryEntry{DateTask: key, Person: assignments[key], RecordedAt: now})
	}
	if err := s.repo.RecordHistory(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// HistorySubtract removes the assignments' keys from history.
func (s *Service) HistorySubtract(ctx context.Context, assignments domain.Assignments) (int, error) {
	if len(assignments) == 0 {
		return 0, domain.ErrNoAssignments
	}
	keys := assignments.Keys()
	if err := s.repo.RemoveHistory(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Stats reports per-duty fairness over the committed history.
func (s *Service) Stats(ctx context.Context) ([]domain.DutyStats, error) {
	history, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Stats(s.Catalog(), history), nil
}

// RenderHTML renders a month. Interactive output carries editable inputs.
func (s *Service) RenderHTML(ctx context.Context, year int, month time.Month, interactive bool) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrRendererMissing
	}
	layout, err := s.Layout(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(layout, interactive)
}

// PDF prints a month and returns the document with its download filename.
func (s *Service) PDF(ctx context.Context, year int, month time.Month) ([]byte, string, error) {
	if s.printer == nil {
		return nil, "", ErrPrinterMissing
	}
	page, err := s.RenderHTML(ctx, year, month, false)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.printer.Print(ctx, page)
	if err != nil {
		return nil, "", fmt.Errorf("print pdf: %w", err)
	}
	return doc, PDFFilename(year, month), nil
}

// Export returns a copy of a month's working assignments.
func (s *Service) Export(ctx context.Context, year int, month time.Month) (domain.Assignments, error) {
	schedule, err := s.OpenSchedule(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return schedule.Assignments.Clone(), nil
}

// Import overlays assignments onto a month. Every key must be one of the month's date tasks.
func (s *Service) Import(ctx context.Context, year int, month time.Month, assignments domain.Assignments) (domain.Schedule, error) {
	if len(assignments) == 0 {
		return domain.Schedule{}, domain.ErrNoAssignments
	}
	if err := validateKeys(year, month, assignments); err != nil {
		return domain.Schedule{}, err
	}
	if err := s.checkCatalogKeys(year, month, assignments); err != nil {
		return domain.Schedule{}, err
	}
	schedule, err := s.OpenSchedule(ctx, year, month)
	if err != nil {
		return domain.Schedule{}, err
	}
	merged := schedule.Assignments.Clone()
	for key, person := range assignments {
		merged[key] = strings.TrimSpace(person)
	}
	schedule.Replace(merged, s.clock())
	if err := s.repo.SaveSchedule(ctx, schedule); err != nil {
		return domain.Schedule{}, err
	}
	return schedule, nil
}

// checkCatalogKeys rejects keys the roster does not produce for the month.
func (s *Service) checkCatalogKeys(year int, month time.Month, assignments domain.Assignments) error {
	known := make(map[string]struct{})
	for _, task := range s.Catalog().DateTasks(year, month) {
		known[task.Key()] = struct{}{}
	}
	for _, key := range assignments.Keys() {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownAssignment, key)
		}
	}
	return nil
}

// validateKeys checks that every key parses as a date task of the month.
func validateKeys(year int, month time.Month, assignments domain.Assignments) error {
	if err := domain.ValidateMonth(year, month); err != nil {
		return err
	}
	for key := range assignments {
		task, err := domain.ParseDateTask(key)
		if err != nil {
			return err
		}
		if task.Year != year || task.Month != month {
			return fmt.Errorf("%w: %q", domain.ErrForeignAssignment, key)
		}
	}
	return nil
}
