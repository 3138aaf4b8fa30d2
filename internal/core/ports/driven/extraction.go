package driven

import "context"

// PageReader extracts the text layer of each PDF page.
type PageReader interface {
	// ReadPages returns one string per page, in page order.
	// A page that cannot be read yields "" rather than failing the document.
	// An error is returned only when the document itself cannot be opened.
	ReadPages(ctx context.Context, data []byte) ([]string, error)
}

// OCREngine renders a single page to an image and recognises its text.
// Used as a fallback for pages without a text layer.
type OCREngine interface {
	// Recognise returns the text of the zero-based page using the given
	// tesseract language codes (e.g. "kor", "eng").
	Recognise(ctx context.Context, data []byte, pageIndex int, languages []string) (string, error)

	// Name identifies the engine in logs.
	Name() string
}

// CommandRunner executes external commands.
// Adapters that shell out accept one so tests can substitute the binary.
type CommandRunner interface {
	// Run executes name with args and returns its standard output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
