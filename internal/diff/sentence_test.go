package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentencesIdenticalInput(t *testing.T) {
	text := "The quick brown fox jumps. It lands safely."

	changes := Sentences(text, text)

	require.Len(t, changes, 1)
	require.Equal(t, SegmentUnchanged, changes[0].Type)
	require.Equal(t, text, changes[0].Value)
}

func TestSentencesChangedAndAppended(t *testing.T) {
	original := "The cat sat. It was happy."
	rewritten := "The cat sat quietly. It was happy. It purred."

	changes := Sentences(original, rewritten)

	require.Equal(t, []Change{
		{Type: SegmentRemove, Value: "The cat sat."},
		{Type: SegmentAdd, Value: "The cat sat quietly."},
		{Type: SegmentUnchanged, Value: "It was happy."},
		{Type: SegmentAdd, Value: "It purred."},
	}, changes)
}

func TestSentencesRoundTrip(t *testing.T) {
	original := "# My Essay\n\nThe rain fell hard. We stayed inside. **Nobody** spoke for hours."
	rewritten := "The rain fell hard all night. We stayed inside. Nobody spoke for hours. Morning came slowly."

	changes := Sentences(original, rewritten)

	var fromRemove, fromAdd []string
	for _, change := range changes {
		if change.Type != SegmentAdd {
			fromRemove = append(fromRemove, change.Value)
		}
		if change.Type != SegmentRemove {
			fromAdd = append(fromAdd, change.Value)
		}
	}

	cleanOriginal := strings.Join(SplitSentences(StripMarkdown(original)), " ")
	cleanRewritten := strings.Join(SplitSentences(StripMarkdown(rewritten)), " ")
	require.Equal(t, cleanOriginal, strings.Join(fromRemove, " "))
	require.Equal(t, cleanRewritten, strings.Join(fromAdd, " "))
}

func TestSentencesMergesConsecutiveSegments(t *testing.T) {
	original := "One. Two. Three."
	rewritten := "Four. Five. Three."

	changes := Sentences(original, rewritten)

	require.Len(t, changes, 3)
	require.Equal(t, Change{Type: SegmentRemove, Value: "One. Two."}, changes[0])
	require.Equal(t, Change{Type: SegmentAdd, Value: "Four. Five."}, changes[1])
	require.Equal(t, Change{Type: SegmentUnchanged, Value: "Three."}, changes[2])
}

func TestSentencesEmptyOriginal(t *testing.T) {
	changes := Sentences("", "A new essay appears.")

	require.Len(t, changes, 1)
	require.Equal(t, SegmentAdd, changes[0].Type)
}

func TestStripMarkdown(t *testing.T) {
	input := "## Heading\n\n- first point\n- second point\n\n*emphasis* and **bold** text.\n\n```\ncode here\n```"

	got := StripMarkdown(input)

	require.NotContains(t, got, "#")
	require.NotContains(t, got, "*")
	require.NotContains(t, got, "```")
	require.Contains(t, got, "first point")
	require.Contains(t, got, "emphasis and bold text.")
}

func TestStripFences(t *testing.T) {
	wrapped := "```markdown\nDear Sir,\n\nI write to complain.\n```"

	require.Equal(t, "Dear Sir,\n\nI write to complain.", StripFences(wrapped))
	require.Equal(t, "plain text", StripFences("plain text"))
}

func TestSplitSentencesKeepsPunctuation(t *testing.T) {
	got := SplitSentences("Really? Yes! Fine.")

	require.Equal(t, []string{"Really?", "Yes!", "Fine."}, got)
}
