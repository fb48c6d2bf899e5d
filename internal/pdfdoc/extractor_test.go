// SPDX-License-Identifier: AGPL-3.0-only
package pdfdoc

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hli-yohan-lee/dev-mcp/internal/errors"
	"github.com/hli-yohan-lee/dev-mcp/internal/pdfdoc/pdftest"
)

func TestExtractText(t *testing.T) {
	text, err := ExtractText(pdftest.Build("Backend guide", "Use contexts"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "Backend guide") || !strings.Contains(text, "Use contexts") {
		t.Errorf("text = %q", text)
	}
	if strings.Index(text, "Backend guide") > strings.Index(text, "Use contexts") {
		t.Error("pages out of order")
	}
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	if _, err := ExtractText([]byte("definitely not a pdf")); err == nil {
		t.Error("expected error for non-PDF input")
	}
	if _, err := ExtractText(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestExtractOrPlaceholder(t *testing.T) {
	text, err := ExtractOrPlaceholder(pdftest.Build(""))
	if err != nil {
		t.Fatalf("ExtractOrPlaceholder: %v", err)
	}
	if text != EmptyTextPlaceholder {
		t.Errorf("text = %q, want placeholder", text)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := pdftest.WriteFile(dir, "guide.pdf", "Hello PDF"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	e := NewExtractor(dir)

	doc, err := e.ReadFile(context.Background(), "guide.pdf")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if doc.Content != "Hello PDF" || doc.Length != len("Hello PDF") || doc.Filename != "guide.pdf" {
		t.Errorf("doc = %+v", doc)
	}
	if !filepath.IsAbs(e.Dir()) {
		t.Errorf("Dir() = %q, want absolute", e.Dir())
	}
}

func TestReadFileErrors(t *testing.T) {
	e := NewExtractor(t.TempDir())
	ctx := context.Background()

	if _, err := e.ReadFile(ctx, "missing.pdf"); !errors.Is(err, errors.KindNotFound) {
		t.Errorf("missing file err = %v", err)
	}
	for _, name := range []string{"", "../etc/passwd", "sub/file.pdf", ".."} {
		if _, err := e.ReadFile(ctx, name); !errors.Is(err, errors.KindInvalidInput) {
			t.Errorf("ReadFile(%q) err = %v, want invalid input", name, err)
		}
	}
}
