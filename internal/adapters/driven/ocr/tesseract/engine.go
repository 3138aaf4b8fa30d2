// Package tesseract recognises scanned PDF pages with the pdftoppm and tesseract binaries.
//
// Each page is rendered to PNG with pdftoppm (poppler-utils) and the image is
// passed to the tesseract CLI. Both binaries must be on PATH.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// DefaultDPI is the rendering resolution used when none is configured.
const DefaultDPI = 300

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// DefaultRunner returns the os/exec command runner.
func DefaultRunner() driven.CommandRunner {
	return execRunner{}
}

// Engine is the tesseract CLI OCR engine.
type Engine struct {
	runner driven.CommandRunner
	dpi    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDPI sets the page rendering resolution.
func WithDPI(dpi int) Option {
	return func(e *Engine) {
		if dpi > 0 {
			e.dpi = dpi
		}
	}
}

// New creates an engine that shells out to the real binaries.
func New(opts ...Option) *Engine {
	return NewWithRunner(execRunner{}, opts...)
}

// NewWithRunner creates an engine with a custom command runner.
func NewWithRunner(runner driven.CommandRunner, opts ...Option) *Engine {
	e := &Engine{runner: runner, dpi: DefaultDPI}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return "tesseract"
}

// DPI returns the rendering resolution.
func (e *Engine) DPI() int {
	return e.dpi
}

// Recognise renders the zero-based page and runs tesseract on the image.
func (e *Engine) Recognise(ctx context.Context, data []byte, pageIndex int, languages []string) (string, error) {
	img, cleanup, err := RenderPage(ctx, e.runner, data, pageIndex, e.dpi)
	if err != nil {
		return "", err
	}
	defer cleanup()

	args := []string{img, "stdout"}
	if lang := LanguageArg(languages); lang != "" {
		args = append(args, "-l", lang)
	}

	out, err := e.runner.Run(ctx, "tesseract", args...)
	if err != nil {
		return "", fmt.Errorf("recognising page %d: %w", pageIndex+1, err)
	}

	logger.Debug("OCR page %d: %d bytes", pageIndex+1, len(out))
	return string(out), nil
}

// LanguageArg joins language codes the way tesseract expects them ("kor+eng").
func LanguageArg(languages []string) string {
	var parts []string
	for _, l := range languages {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, "+")
}

// RenderPage writes data to a temporary directory and renders the zero-based
// page to PNG with pdftoppm. The returned cleanup removes the directory.
func RenderPage(ctx context.Context, runner driven.CommandRunner, data []byte, pageIndex, dpi int) (string, func(), error) {
	if pageIndex < 0 {
		return "", nil, fmt.Errorf("%w: negative page index %d", domain.ErrInvalidInput, pageIndex)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	dir, err := os.MkdirTemp("", "manualqa-ocr-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	src := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(src, data, 0600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing temp document: %w", err)
	}

	page := strconv.Itoa(pageIndex + 1)
	prefix := filepath.Join(dir, "page")
	_, err = runner.Run(ctx, "pdftoppm",
		"-f", page, "-l", page,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		src, prefix)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("rendering page %s: %w", page, err)
	}

	return prefix + ".png", cleanup, nil
}

// CheckAvailable reports whether pdftoppm and tesseract are installed.
func CheckAvailable() error {
	for _, bin := range []string{"pdftoppm", "tesseract"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
	}
	return nil
}

// InstallInstructions returns platform-specific install hints for the OCR binaries.
func InstallInstructions() string {
	return `OCR requires pdftoppm (poppler) and tesseract with the kor and eng language packs.

Install:
  macOS:         brew install poppler tesseract tesseract-lang
  Ubuntu/Debian: apt install poppler-utils tesseract-ocr tesseract-ocr-kor tesseract-ocr-eng
  Fedora:        dnf install poppler-utils tesseract tesseract-langpack-kor tesseract-langpack-eng`
}
