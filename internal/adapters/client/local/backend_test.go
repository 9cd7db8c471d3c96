package local

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hylla/rota/internal/adapters/server/common"
	"github.com/hylla/rota/internal/adapters/storage/sqlite"
	"github.com/hylla/rota/internal/app"
	"github.com/hylla/rota/internal/domain"
	"github.com/hylla/rota/internal/editor"
	"github.com/hylla/rota/internal/editor/editortest"
)

var march = common.MonthRef{Year: 2026, Month: time.March}

func newBackend(t *testing.T) *Backend {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	catalog, err := domain.NewCatalog(
		[]domain.Duty{{Key: "prayer", Name: "Prayer", Code: "0", Service: "Worship"}},
		[]domain.Person{{Name: "Alice", Duties: []string{"prayer"}}, {Name: "Bob", Duties: []string{"prayer"}}},
		nil,
	)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	svc := app.NewService(repo, func() string { return "c-" + time.Now().Format(time.RFC3339Nano) }, nil, app.ServiceConfig{Catalog: catalog})
	return New(common.NewAppServiceAdapter(svc), march)
}

// TestSaveAndCommitStatuses verifies the statuses a session sees over the local backend.
func TestSaveAndCommitStatuses(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	doc, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	doc.Assignments["2026-3-1-prayer"] = "Bob"

	status, err := backend.Save(ctx, editor.Document{Year: 2026, Month: time.March, Assignments: doc.Assignments})
	if err != nil || status != http.StatusNoContent {
		t.Fatalf("Save() = %d, %v; want 204", status, err)
	}
	if status, err := backend.Commit(ctx); err != nil || status != http.StatusOK {
		t.Fatalf("first Commit() = %d, %v; want 200", status, err)
	}
	if status, err := backend.Commit(ctx); err != nil || status != http.StatusNotModified {
		t.Fatalf("second Commit() = %d, %v; want 304", status, err)
	}
	reloaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Assignments["2026-3-1-prayer"] != "Bob" {
		t.Fatalf("expected saved value, got %#v", reloaded.Assignments)
	}
}

// TestSaveRejectsInvalidDocuments verifies validation failures map to 400.
func TestSaveRejectsInvalidDocuments(t *testing.T) {
	backend := newBackend(t)
	status, err := backend.Save(context.Background(), editor.Document{Year: 2026, Month: time.March})
	if status != http.StatusBadRequest || !errors.Is(err, domain.ErrNoAssignments) {
		t.Fatalf("Save() = %d, %v; want 400 with ErrNoAssignments", status, err)
	}
	status, _ = backend.Save(context.Background(), editor.Document{
		Year:        2026,
		Month:       time.March,
		Assignments: domain.Assignments{"2026-4-5-prayer": "Alice"},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("foreign key Save() status = %d, want 400", status)
	}
}

// TestPDFWithoutPrinterIsUnavailable verifies the missing printer classification.
func TestPDFWithoutPrinterIsUnavailable(t *testing.T) {
	backend := newBackend(t)
	_, err := backend.PDF(context.Background())
	if !errors.Is(err, common.ErrUnavailable) || statusFor(err) != http.StatusServiceUnavailable {
		t.Fatalf("PDF() error = %v, want unavailable", err)
	}
}

// TestSessionOverBackend drives an editor session end to end against sqlite.
func TestSessionOverBackend(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	doc, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	clock := editortest.NewClock(time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC))
	session := editor.NewSession(doc.Layout(), backend, editor.WithClock(clock), editor.WithRunner(editortest.Inline))
	defer session.Close()

	state := session.State()
	id, ok := state.Board.Find("2026-3-1-prayer")
	if !ok {
		t.Fatal("expected first prayer cell")
	}
	if err := session.Type(id, "Carl"); err != nil {
		t.Fatalf("Type() error = %v", err)
	}
	session.ScheduleSave()
	clock.Advance(2 * time.Second)

	if err := session.LastError(); err != nil {
		t.Fatalf("LastError() = %v", err)
	}
	if got := session.State().Toast.Message; got != editor.MsgSaved {
		t.Fatalf("toast = %q, want %q", got, editor.MsgSaved)
	}
	reloaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Assignments["2026-3-1-prayer"] != "Carl" {
		t.Fatalf("expected autosaved value, got %#v", reloaded.Assignments)
	}
}
