// Package httpapi provides the HTTP adapter the browser page and the remote editor talk to.
package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hylla/rota/internal/adapters/markup"
	"github.com/hylla/rota/internal/adapters/server/common"
	"github.com/hylla/rota/internal/domain"
)

// maxRequestBodyBytes limits request payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 4 << 20

// Handler serves the schedule routes for one active month.
type Handler struct {
	schedule common.ScheduleService
	active   common.MonthRef
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// SaveRequest is the JSON save body. Year and month default to the request's month.
type SaveRequest struct {
	Year        int                `json:"year,omitempty"`
	Month       time.Month         `json:"month,omitempty"`
	Assignments domain.Assignments `json:"assignments"`
}

// NewHandler constructs the HTTP adapter. active is the month served when a request names none.
func NewHandler(schedule common.ScheduleService, active common.MonthRef) *Handler {
	return &Handler{schedule: schedule, active: active}
}

// ServeHTTP routes one request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.schedule == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "schedule service is not configured",
		})
		return
	}
	query := r.URL.Query()
	ref, err := common.ResolveMonth(h.active, query.Get("year"), query.Get("month"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}

	switch normalizePath(r.URL.Path) {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handlePage(w, r, ref)
	case "document":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleDocument(w, r, ref)
	case "save":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleSave(w, r, ref, query.Has("year") || query.Has("month"))
	case "commit":
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w, http.MethodPut)
			return
		}
		h.handleCommit(w, r, ref)
	case "pdf":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handlePDF(w, r, ref)
	case "stats":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleStats(w, r)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handlePage serves GET `/` as the interactive page.
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request, ref common.MonthRef) {
	page, err := h.schedule.RenderHTML(r.Context(), ref, true)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// handleDocument serves GET `/document`.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request, ref common.MonthRef) {
	doc, err := h.schedule.Document(r.Context(), ref)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleSave serves POST `/save` with a JSON or HTML body and replies 204.
// Without a month in the query or JSON body, the month comes from the keys.
func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request, ref common.MonthRef, monthNamed bool) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()
	body := bufio.NewReader(reader)

	var assignments domain.Assignments
	if isHTMLBody(r.Header.Get("Content-Type"), body) {
		parsed, err := markup.ParseAssignments(body)
		if err != nil {
			writeErrorFrom(w, fmt.Errorf("parse html body: %w", errors.Join(common.ErrInvalidRequest, err)))
			return
		}
		assignments = parsed
	} else {
		var req SaveRequest
		if err := decodeJSONBody(r.Context(), body, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		if req.Year != 0 {
			ref.Year = req.Year
			monthNamed = true
		}
		if req.Month != 0 {
			ref.Month = req.Month
			monthNamed = true
		}
		assignments = req.Assignments
	}

	if !monthNamed {
		keyed, ok, err := monthFromKeys(assignments)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		if ok {
			ref = keyed
		}
	}

	if err := h.schedule.Save(r.Context(), ref, assignments); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCommit serves PUT `/commit`: 200 when recorded, 304 when unchanged.
func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request, ref common.MonthRef) {
	outcome, err := h.schedule.Commit(r.Context(), ref)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if !outcome.Created {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "success"})
}

// handlePDF serves GET `/pdf` as an attachment.
func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request, ref common.MonthRef) {
	doc, err := h.schedule.PDF(r.Context(), ref)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

// handleStats serves GET `/stats`.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.schedule.Stats(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"duties": stats})
}

// monthFromKeys returns the one month every parseable key belongs to.
// Unparseable keys are left for the service to reject.
func monthFromKeys(assignments domain.Assignments) (common.MonthRef, bool, error) {
	var (
		ref   common.MonthRef
		found bool
	)
	for _, key := range assignments.Keys() {
		task, err := domain.ParseDateTask(key)
		if err != nil {
			continue
		}
		month := common.MonthRef{Year: task.Year, Month: task.Month}
		if found && month != ref {
			return common.MonthRef{}, false, fmt.Errorf("save spans %d-%d and %d-%d: %w",
				ref.Year, int(ref.Month), month.Year, int(month.Month), common.ErrInvalidRequest)
		}
		ref, found = month, true
	}
	return ref, found, nil
}

// isHTMLBody decides the save body format from Content-Type, sniffing for a leading '<'.
func isHTMLBody(contentType string, body *bufio.Reader) bool {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "html"):
		return true
	case strings.Contains(contentType, "json"):
		return false
	}
	peek, _ := body.Peek(512)
	return bytes.HasPrefix(bytes.TrimLeft(peek, " \t\r\n"), []byte("<"))
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
			Hint:    "Configure [pdf] chrome_bin or install Chromium to enable PDF export.",
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, body io.Reader, out any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
