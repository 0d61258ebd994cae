package ocr

import "strings"

// Words below this count make the scorer doubt the extraction even without
// explicit uncertainty markers.
const minConfidentWords = 30

// Weight applied to the density of uncertainty markers in the output.
const markerPenalty = 4.0

var uncertaintyMarkers = []string{
	"[illegible]",
	"[crossed out:",
	"~~crossed out:",
}

// Confidence derives a [0,1] quality estimate from raw OCR output. The score
// falls as the density of illegible/crossed-out markers rises and as the text
// approaches empty; it is exactly 1.0 only for marker-free output above the
// minimum length. Fully digital sources bypass this scorer upstream.
func Confidence(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	words := float64(len(strings.Fields(trimmed)))
	lowered := strings.ToLower(trimmed)

	markers := 0.0
	for _, marker := range uncertaintyMarkers {
		markers += float64(strings.Count(lowered, marker))
	}

	score := 1.0 - markerPenalty*markers/words
	if words < minConfidentWords {
		score *= words / minConfidentWords
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
