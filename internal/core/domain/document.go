package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Document is an uploaded manual before extraction.
// Raw bytes are consumed once by the extractor and never persisted.
type Document struct {
	// Name is the original file name, used to derive the collection ID.
	Name string

	// Data is the raw PDF content.
	Data []byte

	// Hash is the hex SHA-256 of Data. It is the document's identity.
	Hash string
}

// NewDocument builds a Document and computes its content hash.
func NewDocument(name string, data []byte) Document {
	return Document{
		Name: name,
		Data: data,
		Hash: ContentHash(data),
	}
}

// ContentHash returns the hex SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PageSource records where a page's text came from.
type PageSource string

// Page text sources.
const (
	// PageSourceText means direct text extraction produced the text.
	PageSourceText PageSource = "text"

	// PageSourceOCR means direct extraction was empty and OCR produced the text.
	PageSourceOCR PageSource = "ocr"

	// PageSourceEmpty means neither method produced text.
	PageSourceEmpty PageSource = "empty"
)

// Page is one extracted page. Pages exist only during extraction.
type Page struct {
	// Index is the zero-based page number.
	Index int

	// Text is the extracted text, possibly empty.
	Text string

	// Source is how the text was obtained.
	Source PageSource
}

// IsBlank reports whether the page text is empty or whitespace-only.
func (p Page) IsBlank() bool {
	return strings.TrimSpace(p.Text) == ""
}

// Extraction is the result of extracting a whole document.
type Extraction struct {
	// Text is every page's text joined with newlines, in page order.
	Text string

	// Pages holds the per-page results.
	Pages []Page
}

// OCRPages counts pages whose text came from OCR.
func (e Extraction) OCRPages() int {
	n := 0
	for _, p := range e.Pages {
		if p.Source == PageSourceOCR {
			n++
		}
	}
	return n
}

// Chunk is a contiguous window of whitespace-delimited tokens.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID is the content hash of the source document.
	DocumentID string

	// Index is the chunk's sequence number within its document.
	Index int

	// Text is the chunk's tokens joined by single spaces.
	Text string
}

// TokenCount returns the number of whitespace-delimited tokens in the chunk.
func (c Chunk) TokenCount() int {
	return len(strings.Fields(c.Text))
}

// ProgressFunc is invoked once per page during extraction with the
// zero-based page index and the total page count.
type ProgressFunc func(index, total int)
