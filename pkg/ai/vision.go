package ai

import (
	"context"
	"fmt"
)

const ocrImageSystemPrompt = `You are an OCR engine specialised in reading handwritten English essays by secondary school students.
Convert the handwritten text to well-formatted Markdown. Preserve the document structure including:
- Paragraph breaks (use double newlines)
- Line breaks where the student intended them
- Headings, addresses, dates, salutations, and closings
- Lists (use - or 1. as appropriate)
- Crossed-out words (mark as [crossed out: word])
- Illegible words (mark as [illegible])
- Spelling errors (preserve them exactly, do not correct)
Output only the Markdown-formatted transcription, no commentary.`

const ocrPDFSystemPrompt = `You are an OCR engine specialised in reading handwritten English essays by secondary school students.
Extract ALL text exactly as written, preserving:
- Paragraph breaks
- Crossed-out words (mark as [crossed out: word])
- Illegible words (mark as [illegible])
- Spelling errors (preserve them, do not correct)
Output the raw transcription only, no commentary.`

// TranscribeImage runs vision OCR over a single page image, provided as a
// base64 data URL.
func (c *Client) TranscribeImage(ctx context.Context, dataURL string, pageNumber int) (string, error) {
	text, err := c.visionCompletion(ctx, ocrImageSystemPrompt, []string{dataURL},
		fmt.Sprintf("Transcribe page %d of the handwritten essay. Convert to well-formatted Markdown.", pageNumber),
		chatOptions{operation: "ocr", model: c.cfg.VisionModel, maxTokens: 3000})
	if err != nil {
		return "", err
	}

	c.logger.Debug().Int("page", pageNumber).Int("chars", len(text)).Msg("page transcribed")
	return text, nil
}

// TranscribePDF runs vision OCR over a whole scanned PDF, provided as a
// base64 data URL.
func (c *Client) TranscribePDF(ctx context.Context, dataURL string, pageCount int) (string, error) {
	return c.visionCompletion(ctx, ocrPDFSystemPrompt, []string{dataURL},
		fmt.Sprintf("This is a scanned PDF with %d page(s). Transcribe all handwritten text from every page. Output only the text.", pageCount),
		chatOptions{operation: "ocr_pdf", model: c.cfg.VisionModel, maxTokens: 4000})
}
