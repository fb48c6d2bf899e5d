// SPDX-License-Identifier: AGPL-3.0-only
package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hli-yohan-lee/dev-mcp/internal/errors"
)

// EmptyTextPlaceholder is returned for PDFs without extractable text,
// such as scanned images.
const EmptyTextPlaceholder = "[PDF 파일에서 텍스트를 추출할 수 없습니다. 이미지나 스캔된 PDF일 수 있습니다.]"

// Document is the extracted text of a stored PDF
type Document struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Length   int    `json:"length"`
}

// Extractor reads PDFs from a storage directory
type Extractor struct {
	dir string
}

// NewExtractor creates an Extractor rooted at dir
func NewExtractor(dir string) *Extractor {
	return &Extractor{dir: dir}
}

// Dir returns the absolute storage directory
func (e *Extractor) Dir() string {
	abs, err := filepath.Abs(e.dir)
	if err != nil {
		return e.dir
	}
	return abs
}

// ReadFile extracts the text of filename inside the storage directory.
// Missing files return a NotFound error.
func (e *Extractor) ReadFile(ctx context.Context, filename string) (Document, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return Document{}, errors.InvalidInput(fmt.Sprintf("invalid PDF filename %q", filename))
	}
	data, err := os.ReadFile(filepath.Join(e.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.NotFound("pdf", filename)
		}
		return Document{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	text, err := ExtractText(data)
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	text = strings.TrimSpace(text)
	return Document{Filename: filename, Content: text, Length: len([]rune(text))}, nil
}

// ExtractText returns the text of every page, one page per line.
func ExtractText(data []byte) (text string, err error) {
	// The parser panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ExtractOrPlaceholder extracts text and substitutes EmptyTextPlaceholder
// when the document has none.
func ExtractOrPlaceholder(data []byte) (string, error) {
	text, err := ExtractText(data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return EmptyTextPlaceholder, nil
	}
	return text, nil
}
