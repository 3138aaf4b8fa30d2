//go:build gosseract

package gosseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Engine recognises rendered pages with a gosseract client.
type Engine struct {
	runner driven.CommandRunner
	dpi    int
}

// New creates an in-process OCR engine rendering at dpi.
func New(dpi int) *Engine {
	if dpi <= 0 {
		dpi = tesseract.DefaultDPI
	}
	return &Engine{runner: tesseract.DefaultRunner(), dpi: dpi}
}

// Available reports whether this build includes libtesseract support.
func Available() bool {
	return true
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return "gosseract"
}

// Recognise renders the zero-based page and recognises it in-process.
func (e *Engine) Recognise(ctx context.Context, data []byte, pageIndex int, languages []string) (string, error) {
	img, cleanup, err := tesseract.RenderPage(ctx, e.runner, data, pageIndex, e.dpi)
	if err != nil {
		return "", err
	}
	defer cleanup()

	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("%w: setting OCR languages: %v", domain.ErrInvalidInput, err)
		}
	}
	if err := client.SetImage(img); err != nil {
		return "", fmt.Errorf("loading page image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognising page %d: %w", pageIndex+1, err)
	}
	return text, nil
}
