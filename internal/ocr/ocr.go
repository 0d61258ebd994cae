package ocr

import (
	"context"
	"fmt"
)

// Page holds the extraction output for a single page or image.
type Page struct {
	PageNumber int     `json:"pageNumber"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	ImageRef   string  `json:"imageRef"`
}

// Result is the uniform output of every extractor: the concatenated text plus
// the arithmetic mean of per-page confidences.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Pages      []Page  `json:"pages"`
}

// Error is a typed extraction failure carrying the offending file reference.
type Error struct {
	Ref string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ocr failed for %s: %v", e.Ref, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(ref string, err error) *Error {
	return &Error{Ref: ref, Err: err}
}

// Vision is the OCR backend contract. Implementations receive documents as
// base64 data URLs, never remote URLs, so the backend does not fetch ephemeral
// signed links itself.
type Vision interface {
	TranscribeImage(ctx context.Context, dataURL string, pageNumber int) (string, error)
	TranscribePDF(ctx context.Context, dataURL string, pageCount int) (string, error)
}
