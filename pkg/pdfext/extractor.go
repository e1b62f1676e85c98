// Package pdfext extracts plain text from PDF documents page by page.
package pdfext

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageText is the extracted text of a single page. Number is 1-based.
type PageText struct {
	Number int
	Text   string
}

// Extractor reads PDF files from disk.
type Extractor struct{}

// NewExtractor creates a new PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages returns the text of every readable page of the file. A
// page that cannot be parsed is reported in failed (1-based page
// numbers) and omitted from the result; only a file-level failure
// returns an error.
func (e *Extractor) ExtractPages(path string) (pages []PageText, failed []int, err error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		text, pageErr := extractPage(reader, i)
		if pageErr != nil || text == "" {
			failed = append(failed, i)
			continue
		}
		pages = append(pages, PageText{Number: i, Text: text})
	}
	return pages, failed, nil
}

// extractPage isolates per-page parsing. The underlying parser panics on
// some malformed content streams, so the recover turns that into an
// error for the page instead of killing the whole file.
func extractPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: parser panic: %v", num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", num)
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", num, err)
	}
	return text, nil
}
