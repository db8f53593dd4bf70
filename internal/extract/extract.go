// Package extract converts source documents (PDF, plain text, markdown)
// into flat strings ready for chunking. Format detection is by file
// extension; parsing details stay behind the one Extract entry point so the
// ingestion pipeline never deals with per-format quirks.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// SupportedExtensions lists the file extensions the ingestion pipeline
// accepts, in scan order.
var SupportedExtensions = []string{".pdf", ".txt", ".md"}

// Supported reports whether the file at path has a supported extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Extract reads the file at path and returns its raw text, dispatching on
// the file extension. Unknown extensions fail with rag.ErrUnsupportedFormat.
// The returned text is not normalized; call Normalize before chunking.
func Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return readText(path)
	case ".pdf":
		return readPDF(path)
	default:
		return "", fmt.Errorf("extract %s: %w", path, rag.ErrUnsupportedFormat)
	}
}

// Normalize collapses every run of whitespace to a single space and trims
// the ends, matching what the chunker's word splitting expects.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title derives the attribution title for a source file: the filename with
// its extension removed.
func Title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readText reads a plain-text or markdown file whole.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: read %s: %w", path, err)
	}
	return string(data), nil
}

// readPDF extracts the text of every page and joins pages with newlines.
// A page that cannot be parsed contributes an empty string rather than
// failing the whole document — scanned or partially corrupt pages are common
// in government gazette PDFs.
func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}
