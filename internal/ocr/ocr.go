// Package ocr extracts page text from the PDF directory. Pages are separated
// by a form feed so callers can process the document page by page.
package ocr

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/kgmap/internal/config"
)

// PageSeparator delimits pages in extracted text.
const PageSeparator = "\f"

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// SplitPages splits extracted text into pages. A trailing empty page, which
// pdftotext emits after the final form feed, is dropped.
func SplitPages(text string) []string {
	pages := strings.Split(text, PageSeparator)
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
