package diff

import (
	"regexp"
	"strings"
)

// Segment tags for diff changes.
const (
	SegmentAdd       = "add"
	SegmentRemove    = "remove"
	SegmentUnchanged = "unchanged"
)

// Change is one segment of a sentence-level diff.
type Change struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

var (
	codeFenceRe   = regexp.MustCompile("(?s)```.*?```")
	boldItalicRe  = regexp.MustCompile(`\*{1,3}(.*?)\*{1,3}`)
	underscoreRe  = regexp.MustCompile(`_{1,3}(.*?)_{1,3}`)
	headerRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bulletRe      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedRe    = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	fenceOpenRe   = regexp.MustCompile("(?i)^\\s*```(?:markdown|md)?\\s*\n?")
	fenceCloseRe  = regexp.MustCompile("(?i)\n?\\s*```\\s*$")
	sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)
)

// StripFences removes a markdown code-fence wrapper that OCR output sometimes
// carries around the whole document.
func StripFences(text string) string {
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// StripMarkdown removes markdown syntax so the diff does not flag pure
// formatting differences: code fences, bold/italic markers, headers and list
// bullets.
func StripMarkdown(text string) string {
	text = codeFenceRe.ReplaceAllString(text, "")
	text = boldItalicRe.ReplaceAllString(text, "$1")
	text = underscoreRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = numberedRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// SplitSentences breaks text on whitespace that follows sentence-terminal
// punctuation, keeping the punctuation with its sentence.
func SplitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// Sentences computes a sentence-level diff between the original and rewritten
// texts. Both inputs are stripped of markdown before comparison. Segments of
// the same type are merged, joined by a single space. Concatenating add and
// unchanged values reproduces the cleaned rewritten text; remove and unchanged
// reproduce the cleaned original.
func Sentences(original, rewritten string) []Change {
	oldSentences := SplitSentences(StripMarkdown(original))
	newSentences := SplitSentences(StripMarkdown(rewritten))

	m := len(oldSentences)
	n := len(newSentences)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldSentences[i-1] == newSentences[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	// Backtrack from dp[m][n]. Ties favour insertions from the rewritten side;
	// diff output is stable only because this policy is fixed.
	stack := make([]Change, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldSentences[i-1] == newSentences[j-1]:
			stack = append(stack, Change{Type: SegmentUnchanged, Value: oldSentences[i-1]})
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			stack = append(stack, Change{Type: SegmentAdd, Value: newSentences[j-1]})
			j--
		default:
			stack = append(stack, Change{Type: SegmentRemove, Value: oldSentences[i-1]})
			i--
		}
	}

	changes := make([]Change, 0, len(stack))
	for k := len(stack) - 1; k >= 0; k-- {
		change := stack[k]
		if len(changes) > 0 && changes[len(changes)-1].Type == change.Type {
			changes[len(changes)-1].Value += " " + change.Value
			continue
		}
		changes = append(changes, change)
	}

	return changes
}
