// Package pdf prints rendered schedule pages through a headless Chromium.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrEmptyDocument is returned when there is nothing to print.
var ErrEmptyDocument = errors.New("empty html document")

// Legal paper in inches.
const (
	legalWidthIn  = 8.5
	legalHeightIn = 14.0
)

// Printer renders HTML to PDF. Without Bin or DebuggerURL it launches the
// browser rod finds or downloads. A zero Timeout means 30 seconds.
type Printer struct {
	// Bin is the browser executable. Empty lets the launcher pick one.
	Bin string
	// DebuggerURL connects to an already running browser instead of launching.
	DebuggerURL string
	Headless    bool
	Timeout     time.Duration
}

// Print loads html into a fresh page and prints it landscape on legal paper.
// The browser is always closed before returning.
func (p Printer) Print(ctx context.Context, html []byte) (out []byte, err error) {
	if strings.TrimSpace(string(html)) == "" {
		return nil, ErrEmptyDocument
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	controlURL := p.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(p.Headless)
		if p.Bin != "" {
			l = l.Bin(p.Bin)
		}
		l = l.Context(ctx)
		controlURL, err = l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		defer l.Cleanup()
		defer l.Kill()
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil && err == nil && p.DebuggerURL == "" {
			err = fmt.Errorf("close browser: %w", closeErr)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for document: %w", err)
	}

	width, height := legalWidthIn, legalHeightIn
	stream, err := page.PDF(&proto.PagePrintToPDF{
		Landscape:         true,
		PrintBackground:   true,
		PreferCSSPageSize: true,
		PaperWidth:        &width,
		PaperHeight:       &height,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	out, err = io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	return out, nil
}
