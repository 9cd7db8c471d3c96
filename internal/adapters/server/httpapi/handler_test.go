package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hylla/rota/internal/adapters/server/common"
	"github.com/hylla/rota/internal/domain"
)

// stubSchedule provides deterministic schedule responses for handler tests.
type stubSchedule struct {
	doc       common.Document
	page      []byte
	pdf       common.PDFDocument
	stats     []domain.DutyStats
	created   bool
	err       error
	saveErr   error
	commitErr error

	lastRef         common.MonthRef
	lastInteractive bool
	lastSaved       domain.Assignments
	saveCalls       int
}

func (s *stubSchedule) Document(_ context.Context, ref common.MonthRef) (common.Document, error) {
	s.lastRef = ref
	return s.doc, s.err
}

func (s *stubSchedule) RenderHTML(_ context.Context, ref common.MonthRef, interactive bool) ([]byte, error) {
	s.lastRef = ref
	s.lastInteractive = interactive
	return s.page, s.err
}

func (s *stubSchedule) Save(_ context.Context, ref common.MonthRef, assignments domain.Assignments) error {
	s.lastRef = ref
	s.lastSaved = assignments
	s.saveCalls++
	return s.saveErr
}

func (s *stubSchedule) Assign(_ context.Context, ref common.MonthRef, _, _ string) (common.Document, error) {
	s.lastRef = ref
	return s.doc, s.err
}

func (s *stubSchedule) Commit(_ context.Context, ref common.MonthRef) (common.CommitOutcome, error) {
	s.lastRef = ref
	return common.CommitOutcome{Created: s.created}, s.commitErr
}

func (s *stubSchedule) PDF(_ context.Context, ref common.MonthRef) (common.PDFDocument, error) {
	s.lastRef = ref
	return s.pdf, s.err
}

func (s *stubSchedule) Stats(context.Context) ([]domain.DutyStats, error) {
	return s.stats, s.err
}

var march = common.MonthRef{Year: 2026, Month: time.March}

// serve runs one request through a handler over stub.
func serve(stub *stubSchedule, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	NewHandler(stub, march).ServeHTTP(rec, req)
	return rec
}

// decodeError decodes one error envelope.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return env.Error
}

// TestHandlerSaveJSON verifies JSON saves reply 204 with no body.
func TestHandlerSaveJSON(t *testing.T) {
	stub := &stubSchedule{}
	rec := serve(stub, http.MethodPost, "/save", "application/json",
		`{"year":2026,"month":3,"assignments":{"2026-3-1-prayer":"Carl"}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
	if diff := cmp.Diff(domain.Assignments{"2026-3-1-prayer": "Carl"}, stub.lastSaved); diff != "" {
		t.Fatalf("saved mismatch (-want +got):\n%s", diff)
	}
}

// TestHandlerSaveJSONOverridesMonth verifies body year and month win over the active month.
func TestHandlerSaveJSONOverridesMonth(t *testing.T) {
	stub := &stubSchedule{}
	rec := serve(stub, http.MethodPost, "/save", "", `{"year":2026,"month":4,"assignments":{"2026-4-5-prayer":"Carl"}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if stub.lastRef != (common.MonthRef{Year: 2026, Month: time.April}) {
		t.Fatalf("unexpected month %#v", stub.lastRef)
	}
}

// TestHandlerSaveHTML verifies full-document HTML bodies, with and without a content type.
func TestHandlerSaveHTML(t *testing.T) {
	page := `<html><body><table><tr>
		<td class="duty-cell" data-duty="2026-3-1-prayer"><input class="assignment-input" value="Alice"></td>
		<td class="duty-cell" data-duty="2026-3-bulletin"><input class="assignment-input" value=""></td>
	</tr></table></body></html>`
	for _, contentType := range []string{"text/html; charset=utf-8", ""} {
		stub := &stubSchedule{}
		rec := serve(stub, http.MethodPost, "/save", contentType, "\n  "+page)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("content type %q: status = %d, want 204", contentType, rec.Code)
		}
		want := domain.Assignments{"2026-3-1-prayer": "Alice", "2026-3-bulletin": ""}
		if diff := cmp.Diff(want, stub.lastSaved); diff != "" {
			t.Fatalf("saved mismatch (-want +got):\n%s", diff)
		}
		if stub.lastRef != march {
			t.Fatalf("unexpected month %#v", stub.lastRef)
		}
	}
}

// TestHandlerSaveTakesMonthFromKeys verifies a save without a named month lands on the keys' month.
func TestHandlerSaveTakesMonthFromKeys(t *testing.T) {
	may := common.MonthRef{Year: 2026, Month: time.May}
	page := `<html><body><table><tr>
		<td class="duty-cell" data-duty="2026-5-3-prayer"><input class="assignment-input" value="Alice"></td>
		<td class="duty-cell" data-duty="2026-5-bulletin"><input class="assignment-input" value="Bob"></td>
	</tr></table></body></html>`

	stub := &stubSchedule{}
	rec := serve(stub, http.MethodPost, "/save", "text/html", page)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if stub.lastRef != may {
		t.Fatalf("html save month = %#v, want %#v", stub.lastRef, may)
	}

	stub = &stubSchedule{}
	rec = serve(stub, http.MethodPost, "/save", "application/json", `{"assignments":{"2026-5-3-prayer":"Carl"}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("json status = %d, want 204", rec.Code)
	}
	if stub.lastRef != may {
		t.Fatalf("json save month = %#v, want %#v", stub.lastRef, may)
	}
}

// TestHandlerSaveQueryMonthWins verifies an explicit query month is passed through untouched.
func TestHandlerSaveQueryMonthWins(t *testing.T) {
	stub := &stubSchedule{}
	rec := serve(stub, http.MethodPost, "/save?year=2026&month=3", "application/json",
		`{"assignments":{"2026-5-3-prayer":"Carl"}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if stub.lastRef != march {
		t.Fatalf("unexpected month %#v", stub.lastRef)
	}
}

// TestHandlerSaveRejectsMixedMonths verifies a body spanning two months is refused before saving.
func TestHandlerSaveRejectsMixedMonths(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
	}{
		{
			name:        "json",
			contentType: "application/json",
			body:        `{"assignments":{"2026-3-1-prayer":"Alice","2026-5-3-prayer":"Bob"}}`,
		},
		{
			name:        "html",
			contentType: "text/html",
			body: `<table><tr>
				<td class="duty-cell" data-duty="2026-3-1-prayer"><input class="assignment-input" value="Alice"></td>
				<td class="duty-cell" data-duty="2026-5-3-prayer"><input class="assignment-input" value="Bob"></td>
			</tr></table>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubSchedule{}
			rec := serve(stub, http.MethodPost, "/save", tc.contentType, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decodeError(t, rec); got.Code != "invalid_request" {
				t.Fatalf("code = %q, want invalid_request", got.Code)
			}
			if stub.saveCalls != 0 {
				t.Fatal("save must not be called")
			}
		})
	}
}

// TestHandlerSaveRejectsBadBodies verifies parse failures reply 400 without saving.
func TestHandlerSaveRejectsBadBodies(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "malformed json", contentType: "application/json", body: `{"assignments":`},
		{name: "unknown field", contentType: "application/json", body: `{"rows":{}}`},
		{name: "trailing json", contentType: "application/json", body: `{"assignments":{}} {}`},
		{name: "html without cells", contentType: "text/html", body: `<p>empty</p>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubSchedule{}
			rec := serve(stub, http.MethodPost, "/save", tc.contentType, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decodeError(t, rec); got.Code != "invalid_request" {
				t.Fatalf("code = %q, want invalid_request", got.Code)
			}
			if stub.saveCalls != 0 {
				t.Fatal("save must not be called")
			}
		})
	}
}

// TestHandlerSaveServiceErrors verifies service errors map to status codes.
func TestHandlerSaveServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: errors.Join(common.ErrInvalidRequest, domain.ErrNoAssignments), want: http.StatusBadRequest},
		{err: errors.Join(common.ErrNotFound), want: http.StatusNotFound},
		{err: errors.New("disk full"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		stub := &stubSchedule{saveErr: tc.err}
		rec := serve(stub, http.MethodPost, "/save", "application/json", `{"assignments":{}}`)
		if rec.Code != tc.want {
			t.Fatalf("err %v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

// TestHandlerCommitStatuses verifies 200 on a new commit and 304 when unchanged.
func TestHandlerCommitStatuses(t *testing.T) {
	stub := &stubSchedule{created: true}
	rec := serve(stub, http.MethodPut, "/commit", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if body["message"] != "success" {
		t.Fatalf("unexpected body %#v", body)
	}

	stub.created = false
	rec = serve(stub, http.MethodPut, "/commit", "", "")
	if rec.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("304 must not carry a body, got %q", rec.Body.String())
	}

	stub.commitErr = errors.New("boom")
	rec = serve(stub, http.MethodPut, "/commit", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

// TestHandlerPDFAttachment verifies the PDF download headers.
func TestHandlerPDFAttachment(t *testing.T) {
	stub := &stubSchedule{pdf: common.PDFDocument{Filename: "schedule-5-2026.pdf", Content: []byte("%PDF-1.4")}}
	rec := serve(stub, http.MethodGet, "/pdf?year=2026&month=5", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="schedule-5-2026.pdf"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if stub.lastRef != (common.MonthRef{Year: 2026, Month: time.May}) {
		t.Fatalf("unexpected month %#v", stub.lastRef)
	}

	stub.err = errors.Join(common.ErrUnavailable)
	rec = serve(stub, http.MethodGet, "/pdf", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

// TestHandlerPageAndDocument verifies the read routes.
func TestHandlerPageAndDocument(t *testing.T) {
	stub := &stubSchedule{
		page: []byte("<html>March 2026</html>"),
		doc:  common.Document{Year: 2026, Month: time.March, Title: "March 2026", Assignments: domain.Assignments{"2026-3-bulletin": "Alice"}},
	}
	rec := serve(stub, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("page status = %d content type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !stub.lastInteractive {
		t.Fatal("page must render interactive inputs")
	}

	rec = serve(stub, http.MethodGet, "/document", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("document status = %d", rec.Code)
	}
	var doc common.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if doc.Title != "March 2026" || doc.Assignments["2026-3-bulletin"] != "Alice" {
		t.Fatalf("unexpected document %#v", doc)
	}
}

// TestHandlerMethodAndRouteErrors verifies 405 with Allow, 404, and bad month queries.
func TestHandlerMethodAndRouteErrors(t *testing.T) {
	stub := &stubSchedule{}
	cases := []struct {
		method, target string
		want           int
		allow          string
	}{
		{method: http.MethodGet, target: "/save", want: http.StatusMethodNotAllowed, allow: http.MethodPost},
		{method: http.MethodPost, target: "/commit", want: http.StatusMethodNotAllowed, allow: http.MethodPut},
		{method: http.MethodPost, target: "/pdf", want: http.StatusMethodNotAllowed, allow: http.MethodGet},
		{method: http.MethodGet, target: "/missing", want: http.StatusNotFound},
		{method: http.MethodGet, target: "/document?month=13", want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := serve(stub, tc.method, tc.target, "", "")
		if rec.Code != tc.want {
			t.Fatalf("%s %s: status = %d, want %d", tc.method, tc.target, rec.Code, tc.want)
		}
		if tc.allow != "" && rec.Header().Get("Allow") != tc.allow {
			t.Fatalf("%s %s: Allow = %q, want %q", tc.method, tc.target, rec.Header().Get("Allow"), tc.allow)
		}
	}
}

// TestHandlerWithoutService verifies a nil service fails closed.
func TestHandlerWithoutService(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(nil, march).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/document", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
