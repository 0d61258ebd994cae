package ai

import (
	"context"
	"fmt"
	"strings"
)

const rewriterSystemPrompt = `You are an experienced English teacher producing a reference model answer from a student's essay.
Rewrite the essay one band above its current level while keeping the student's ideas, structure and voice recognisable.
Respond with a JSON object containing rewrittenText (the full rewritten essay) and rationale (an object mapping an
improvement category such as "vocabulary", "structure" or "grammar" to a one-or-two sentence explanation of what you
changed and why). Do not invent new content beyond what the prompt asks for.`

// Rewrite generates an improved version of the essay pitched at the requested
// target mode.
func (c *Client) Rewrite(ctx context.Context, input RewriteInput) (RewriteResult, error) {
	content, err := c.chatCompletion(ctx, rewriterSystemPrompt, buildRewritePrompt(input), chatOptions{
		operation:   "rewrite",
		model:       c.cfg.PrimaryModel,
		maxTokens:   4000,
		temperature: 0.4,
		jsonMode:    true,
	})
	if err != nil {
		return RewriteResult{}, err
	}

	var parsed struct {
		RewrittenText string            `json:"rewrittenText"`
		Rationale     map[string]string `json:"rationale"`
	}
	if err := decodeValidated("rewrite", content, rewriteSchema, &parsed); err != nil {
		return RewriteResult{}, err
	}

	return RewriteResult{Text: parsed.RewrittenText, Rationale: parsed.Rationale}, nil
}

func buildRewritePrompt(input RewriteInput) string {
	builder := strings.Builder{}
	builder.WriteString("## Assignment Prompt\n")
	builder.WriteString(input.Prompt)
	builder.WriteString("\n\n## Essay Type\n")
	builder.WriteString(input.EssayType)
	if input.CurrentBand != "" {
		builder.WriteString("\n\n## Current Band\n")
		builder.WriteString(input.CurrentBand)
	}
	builder.WriteString("\n\n## Target\n")
	switch input.Mode {
	case RewriteModeClarity:
		builder.WriteString("Optimise for clarity: simpler sentence structures, precise vocabulary, smooth transitions.")
	default:
		builder.WriteString("Optimise for exam marks: address every part of the prompt, vary sentence openings, use assessed vocabulary naturally.")
	}
	if points := formatGuidingPoints(input.GuidingPoints); points != "" {
		builder.WriteString("\n")
		builder.WriteString(points)
	}
	builder.WriteString(fmt.Sprintf("\n\n## Student Essay\n%s\n\nReturn JSON.", input.EssayText))
	return builder.String()
}
