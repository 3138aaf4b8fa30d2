// Package ledongthuc reads the text layer of PDF pages with github.com/ledongthuc/pdf.
package ledongthuc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Reader implements the interface.
var _ driven.PageReader = (*Reader)(nil)

// Reader extracts per-page plain text.
type Reader struct{}

// New creates a PDF page reader.
func New() *Reader {
	return &Reader{}
}

// ReadPages returns the text layer of every page. Pages that fail to decode
// yield "" so the caller can fall back to OCR.
func (r *Reader) ReadPages(ctx context.Context, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}

	doc, err := openReader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: opening PDF: %v", domain.ErrUnsupportedType, err)
	}

	total := doc.NumPage()
	pages := make([]string, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages[i-1] = pageText(doc, i)
	}

	logger.Debug("Read text layer of %d pages", total)
	return pages, nil
}

// openReader guards against the library panicking on malformed input.
func openReader(data []byte) (doc *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(doc *pdf.Reader, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("Page %d text layer unreadable: %v", num, rec)
			text = ""
		}
	}()

	page := doc.Page(num)
	if page.V.IsNull() {
		return ""
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		logger.Warn("Page %d text layer unreadable: %v", num, err)
		return ""
	}
	return text
}
