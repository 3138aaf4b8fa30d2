//go:build !gosseract

package gosseract

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Engine is a stub for builds without the gosseract tag.
type Engine struct {
	dpi int
}

// New creates a stub engine.
func New(dpi int) *Engine {
	return &Engine{dpi: dpi}
}

// Available reports whether this build includes libtesseract support.
func Available() bool {
	return false
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return "gosseract"
}

// Recognise always fails in stub builds.
func (e *Engine) Recognise(_ context.Context, _ []byte, _ int, _ []string) (string, error) {
	return "", ErrNotCompiled
}
