// Package gosseract recognises scanned PDF pages in-process with libtesseract.
//
// Pages are still rendered with pdftoppm. Recognition uses
// github.com/otiai10/gosseract/v2, which needs cgo and the tesseract
// development headers, so it is only compiled with the gosseract build tag:
//
//	go build -tags gosseract ./cmd/manualqa
//
// Without the tag, Available reports false and Recognise returns an error.
package gosseract

import "errors"

// ErrNotCompiled is returned when the binary was built without the gosseract tag.
var ErrNotCompiled = errors.New("gosseract: built without libtesseract support (rebuild with -tags gosseract)")
