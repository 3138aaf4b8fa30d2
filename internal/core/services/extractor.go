package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Extractor turns a PDF into text, one page at a time, falling back to OCR for
// pages without a text layer.
type Extractor struct {
	pages     driven.PageReader
	ocr       driven.OCREngine
	languages []string
}

// NewExtractor creates an extractor. ocr may be nil, in which case blank pages stay blank.
func NewExtractor(pages driven.PageReader, ocr driven.OCREngine, languages []string) *Extractor {
	return &Extractor{
		pages:     pages,
		ocr:       ocr,
		languages: languages,
	}
}

// Extract returns every page's text joined with newlines, in page order.
// A page that fails both direct extraction and OCR contributes "".
// If every page is blank the partial Extraction is returned with
// domain.ErrExtractionEmpty.
func (e *Extractor) Extract(ctx context.Context, data []byte, progress domain.ProgressFunc) (*domain.Extraction, error) {
	if e.pages == nil {
		return nil, fmt.Errorf("%w: no page reader configured", domain.ErrInvalidInput)
	}

	texts, err := e.pages.ReadPages(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("reading pages: %w", err)
	}

	total := len(texts)
	logger.Debug("Extracting %d pages", total)

	result := &domain.Extraction{Pages: make([]domain.Page, total)}
	parts := make([]string, total)

	for i, text := range texts {
		page := domain.Page{Index: i, Text: text, Source: domain.PageSourceText}

		if page.IsBlank() {
			page.Text, page.Source = e.recognise(ctx, data, i)
		}

		result.Pages[i] = page
		parts[i] = page.Text

		if progress != nil {
			progress(i, total)
		}
	}

	result.Text = strings.Join(parts, "\n")

	ocrPages := result.OCRPages()
	logger.Debug("Extraction done: %d pages, %d via OCR", total, ocrPages)

	if strings.TrimSpace(result.Text) == "" {
		return result, domain.ErrExtractionEmpty
	}
	return result, nil
}

// recognise runs OCR on one page. Failures are logged and yield an empty page.
func (e *Extractor) recognise(ctx context.Context, data []byte, index int) (string, domain.PageSource) {
	if e.ocr == nil {
		logger.Debug("Page %d: no text layer and OCR disabled", index+1)
		return "", domain.PageSourceEmpty
	}

	logger.Debug("Page %d: no text layer, running %s OCR", index+1, e.ocr.Name())
	text, err := e.ocr.Recognise(ctx, data, index, e.languages)
	if err != nil {
		logger.Error("page %d: OCR failed: %v", index+1, err)
		return "", domain.PageSourceEmpty
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.PageSourceEmpty
	}
	return text, domain.PageSourceOCR
}
