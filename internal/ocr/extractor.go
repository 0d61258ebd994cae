package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/writeright/essay-api/internal/observability"
)

// PDFs whose text layer recovers at least this many characters are treated as
// fully digital; anything shorter goes through vision OCR.
const minDigitalTextLength = 50

var wordMIMETypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
}

// Extractor routes file batches to the matching extraction path and produces
// a uniform Result.
type Extractor struct {
	vision Vision
	client *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewExtractor builds an extractor around the provided vision backend.
func NewExtractor(vision Vision, logger zerolog.Logger) *Extractor {
	return &Extractor{
		vision: vision,
		client: &http.Client{Timeout: 60 * time.Second},
		tracer: otel.Tracer("github.com/writeright/essay-api/internal/ocr"),
		logger: logger.With().Str("component", "ocr_extractor").Logger(),
	}
}

// DetectFileType maps a file reference to the declared content type used for
// routing. Unknown extensions fall back to the image path.
func DetectFileType(ref string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(ref), ".")) {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "doc":
		return "application/msword"
	default:
		return "image/*"
	}
}

// ExtractFromFiles dispatches the whole batch based on the declared content
// type: PDFs and Word documents are extracted per file then merged, everything
// else is treated as a page image. Any page failure aborts the batch.
func (e *Extractor) ExtractFromFiles(ctx context.Context, fileURLs []string, fileType string) (Result, error) {
	if len(fileURLs) == 0 {
		return Result{}, fmt.Errorf("no files to extract")
	}

	ctx, span := e.tracer.Start(ctx, "ocr.extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("ocr.file_type", fileType),
		attribute.Int("ocr.file_count", len(fileURLs)),
	)

	var (
		result Result
		err    error
	)

	switch {
	case fileType == "application/pdf":
		result, err = e.extractBatch(ctx, fileURLs, e.extractPDF)
	case wordMIMETypes[fileType]:
		result, err = e.extractBatch(ctx, fileURLs, e.extractWord)
	default:
		result, err = e.extractImages(ctx, fileURLs)
	}
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	observability.OCRConfidence().Observe(result.Confidence)
	e.logger.Info().
		Int("pages", len(result.Pages)).
		Float64("confidence", result.Confidence).
		Msg("extraction complete")

	return result, nil
}

func (e *Extractor) extractBatch(ctx context.Context, fileURLs []string, extract func(context.Context, string) (Result, error)) (Result, error) {
	var pages []Page
	for _, url := range fileURLs {
		partial, err := extract(ctx, url)
		if err != nil {
			return Result{}, err
		}
		pages = append(pages, partial.Pages...)
	}
	return merge(pages), nil
}

func (e *Extractor) extractImages(ctx context.Context, imageURLs []string) (Result, error) {
	pages := make([]Page, 0, len(imageURLs))

	for i, url := range imageURLs {
		dataURL, err := e.toDataURL(ctx, url, "image/jpeg")
		if err != nil {
			return Result{}, newError(url, err)
		}

		text, err := e.vision.TranscribeImage(ctx, dataURL, i+1)
		if err != nil {
			return Result{}, newError(url, fmt.Errorf("failed to process page %d: %w", i+1, err))
		}

		pages = append(pages, Page{
			PageNumber: i + 1,
			Text:       text,
			Confidence: Confidence(text),
			ImageRef:   url,
		})
	}

	return merge(pages), nil
}

// extractPDF reads the text layer first, and only falls back to vision OCR
// when the layer is too short to be a real digital document.
func (e *Extractor) extractPDF(ctx context.Context, fileURL string) (Result, error) {
	data, err := e.download(ctx, fileURL)
	if err != nil {
		return Result{}, newError(fileURL, fmt.Errorf("failed to download pdf: %w", err))
	}

	text, pageCount, err := readPDFTextLayer(data)
	if err != nil {
		return Result{}, newError(fileURL, fmt.Errorf("failed to parse pdf: %w", err))
	}

	if len(text) >= minDigitalTextLength {
		page := Page{PageNumber: 1, Text: text, Confidence: 1.0, ImageRef: fileURL}
		return Result{Text: text, Confidence: 1.0, Pages: []Page{page}}, nil
	}

	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
	ocrText, err := e.vision.TranscribePDF(ctx, dataURL, pageCount)
	if err != nil {
		return Result{}, newError(fileURL, fmt.Errorf("failed to ocr scanned pdf: %w", err))
	}

	page := Page{PageNumber: 1, Text: ocrText, Confidence: Confidence(ocrText), ImageRef: fileURL}
	return Result{Text: ocrText, Confidence: page.Confidence, Pages: []Page{page}}, nil
}

func (e *Extractor) extractWord(ctx context.Context, fileURL string) (Result, error) {
	data, err := e.download(ctx, fileURL)
	if err != nil {
		return Result{}, newError(fileURL, fmt.Errorf("failed to download word document: %w", err))
	}

	text, err := readDocxText(data)
	if err != nil {
		return Result{}, newError(fileURL, fmt.Errorf("failed to extract word document: %w", err))
	}
	if text == "" {
		return Result{}, newError(fileURL, fmt.Errorf("word document contains no text"))
	}

	page := Page{PageNumber: 1, Text: text, Confidence: 1.0, ImageRef: fileURL}
	return Result{Text: text, Confidence: 1.0, Pages: []Page{page}}, nil
}

// toDataURL downloads a remote file and re-encodes it as a base64 data URL so
// the vision backend never fetches signed URLs itself.
func (e *Extractor) toDataURL(ctx context.Context, fileURL, fallbackType string) (string, error) {
	if strings.HasPrefix(fileURL, "data:") {
		return fileURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = fallbackType
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (e *Extractor) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func readPDFTextLayer(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		// A broken text layer is not fatal; the scanned path takes over.
		return "", reader.NumPage(), nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", reader.NumPage(), nil
	}

	return strings.TrimSpace(buf.String()), reader.NumPage(), nil
}

func merge(pages []Page) Result {
	texts := make([]string, 0, len(pages))
	total := 0.0
	for _, page := range pages {
		texts = append(texts, page.Text)
		total += page.Confidence
	}

	confidence := 0.0
	if len(pages) > 0 {
		confidence = total / float64(len(pages))
	}

	return Result{
		Text:       strings.Join(texts, "\n\n"),
		Confidence: confidence,
		Pages:      pages,
	}
}
