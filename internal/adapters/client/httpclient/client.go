// Package httpclient talks to a running rota server. It satisfies editor.Persister.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/rota/internal/adapters/server/common"
	"github.com/hylla/rota/internal/domain"
	"github.com/hylla/rota/internal/editor"
)

// ErrStatus reports a non-success response on a call that needs one.
var ErrStatus = errors.New("unexpected response status")

// Client issues schedule requests against BaseURL. A zero Month targets the
// server's active month.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Month   common.MonthRef
}

// New builds a client with a request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Load fetches the editable document.
func (c *Client) Load(ctx context.Context) (common.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, "/document", "", nil)
	if err != nil {
		return common.Document{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return common.Document{}, statusError(resp)
	}
	var doc common.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return common.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Save posts the full document and returns the response status verbatim.
func (c *Client) Save(ctx context.Context, doc editor.Document) (int, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/save", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	drain(resp)
	return resp.StatusCode, nil
}

// Commit issues the commit and returns the response status verbatim.
func (c *Client) Commit(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodPut, "/commit", "", nil)
	if err != nil {
		return 0, err
	}
	drain(resp)
	return resp.StatusCode, nil
}

// Stats fetches fairness statistics over the committed history.
func (c *Client) Stats(ctx context.Context) ([]domain.DutyStats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/stats", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var payload struct {
		Duties []domain.DutyStats `json:"duties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return payload.Duties, nil
}

// DownloadPDF streams the month's PDF into w and returns the server's filename.
func (c *Client) DownloadPDF(ctx context.Context, w io.Writer) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/pdf", "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	filename := "schedule.pdf"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return filename, nil
}

// do sends one request with the month query attached.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	target, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if c.Month.Year != 0 {
		q := target.Query()
		q.Set("year", strconv.Itoa(c.Month.Year))
		q.Set("month", strconv.Itoa(int(c.Month.Month)))
		target.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// statusError reads the server's error envelope, if any, into an error.
func statusError(resp *http.Response) error {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		return fmt.Errorf("%w %d: %s: %s", ErrStatus, resp.StatusCode, env.Error.Code, env.Error.Message)
	}
	return fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
}

// drain discards and closes a body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
