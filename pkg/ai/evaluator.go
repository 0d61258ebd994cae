package ai

import (
	"context"
	"strings"
)

// Versioning metadata recorded on every evaluation for auditability.
const (
	rubricVersion = "sec-english-2024.2"
	promptVersion = "eval-v3"
)

const evaluatorSystemPrompt = `You are an experienced English teacher grading secondary school essays against a marking rubric.
Score the essay on each rubric dimension (content, language, organisation) and respond with a JSON object containing:
dimensionScores (object of dimension name to numeric score), band (the rubric tier), strengths, weaknesses and nextSteps
(arrays of short strings), confidence (0-1, your certainty in this grading), and reviewRecommended (boolean, true when a
human should double-check). Be specific and constructive; quote the essay where useful.`

// Evaluate grades the essay against the rubric. The total score and band are
// derived from the dimension scores, never set independently.
func (c *Client) Evaluate(ctx context.Context, input EvaluationInput) (EvaluationResult, error) {
	content, err := c.chatCompletion(ctx, evaluatorSystemPrompt, buildEvaluationPrompt(input), chatOptions{
		operation:   "evaluate",
		model:       c.cfg.EvaluationModel,
		maxTokens:   2000,
		temperature: 0.2,
		jsonMode:    true,
	})
	if err != nil {
		return EvaluationResult{}, err
	}

	var parsed struct {
		DimensionScores   map[string]float64 `json:"dimensionScores"`
		Band              string             `json:"band"`
		Strengths         []string           `json:"strengths"`
		Weaknesses        []string           `json:"weaknesses"`
		NextSteps         []string           `json:"nextSteps"`
		Confidence        float64            `json:"confidence"`
		ReviewRecommended bool               `json:"reviewRecommended"`
	}
	if err := decodeValidated("evaluate", content, evaluationSchema, &parsed); err != nil {
		return EvaluationResult{}, err
	}

	total := 0.0
	for _, score := range parsed.DimensionScores {
		total += score
	}

	return EvaluationResult{
		DimensionScores:   parsed.DimensionScores,
		TotalScore:        total,
		Band:              parsed.Band,
		Strengths:         parsed.Strengths,
		Weaknesses:        parsed.Weaknesses,
		NextSteps:         parsed.NextSteps,
		Confidence:        parsed.Confidence,
		ReviewRecommended: parsed.ReviewRecommended,
		RubricVersion:     rubricVersion,
		ModelID:           c.cfg.EvaluationModel,
		PromptVersion:     promptVersion,
	}, nil
}

func buildEvaluationPrompt(input EvaluationInput) string {
	builder := strings.Builder{}
	builder.WriteString("## Assignment Prompt\n")
	builder.WriteString(input.Prompt)
	builder.WriteString("\n\n## Essay Type\n")
	builder.WriteString(input.EssayType)
	if input.EssaySubType != "" {
		builder.WriteString(" (")
		builder.WriteString(input.EssaySubType)
		builder.WriteString(")")
	}
	builder.WriteString("\n\n## Level\n")
	builder.WriteString(input.Level)
	if points := formatGuidingPoints(input.GuidingPoints); points != "" {
		builder.WriteString("\n")
		builder.WriteString(points)
	}
	builder.WriteString("\n\n## Essay\n")
	builder.WriteString(input.EssayText)
	builder.WriteString("\n\nReturn JSON.")
	return builder.String()
}
