package pdf

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestPrintRejectsEmptyDocument(t *testing.T) {
	if _, err := (Printer{}).Print(context.Background(), []byte("  \n")); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

// TestPrintWithBrowser needs a local Chromium; set ROTA_TEST_CHROME to its path.
func TestPrintWithBrowser(t *testing.T) {
	bin := os.Getenv("ROTA_TEST_CHROME")
	if bin == "" {
		t.Skip("ROTA_TEST_CHROME not set")
	}
	doc, err := Printer{Bin: bin, Headless: true, Timeout: time.Minute}.Print(context.Background(), []byte(
		`<!DOCTYPE html><html><body><table><tr><td class="duty-cell" data-duty="2026-3-bulletin">Alice</td></tr></table></body></html>`,
	))
	if err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatalf("expected a pdf header, got %q", doc[:min(len(doc), 8)])
	}
}
