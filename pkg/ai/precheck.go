package ai

import (
	"context"
	"fmt"
)

// Essay text sent to the pre-check classifier is truncated to this many
// characters to bound the cost of the call.
const preCheckMaxChars = 1500

// An essay scoring below this alignment threshold is rejected as off-topic.
const topicAlignmentThreshold = 0.3

const preCheckSystemPrompt = `You are a submission validator for an English essay grading system.
Your job is to quickly check two things:
1. Is the submission written in English?
2. Does the submission address the given assignment prompt/topic?

Respond with JSON only.`

// Check classifies the essay's language and topic alignment ahead of the
// expensive evaluation call. A failed check returns human-readable issues,
// not an error; errors are reserved for the call itself failing.
func (c *Client) Check(ctx context.Context, input PreCheckInput) (PreCheckResult, error) {
	truncated := input.EssayText
	if len(truncated) > preCheckMaxChars {
		truncated = truncated[:preCheckMaxChars]
	}

	userPrompt := fmt.Sprintf(`Assignment prompt: %q
Essay type: %s%s

Student submission (first ~1500 characters):
"""
%s
"""

Analyze the submission and respond with this exact JSON structure:
{
  "language": "<detected language, e.g. English, Chinese, Malay, Tamil>",
  "isEnglish": <true or false>,
  "topicAlignmentScore": <0.0 to 1.0, where 1.0 = perfectly on-topic>,
  "topicSummary": "<one sentence describing what the essay is about>"
}`, input.Prompt, input.EssayType, formatGuidingPoints(input.GuidingPoints), truncated)

	content, err := c.chatCompletion(ctx, preCheckSystemPrompt, userPrompt, chatOptions{
		operation:   "precheck",
		model:       c.cfg.FastModel,
		maxTokens:   200,
		temperature: 0,
		jsonMode:    true,
	})
	if err != nil {
		return PreCheckResult{}, err
	}

	var parsed struct {
		Language            string  `json:"language"`
		IsEnglish           bool    `json:"isEnglish"`
		TopicAlignmentScore float64 `json:"topicAlignmentScore"`
		TopicSummary        string  `json:"topicSummary"`
	}
	if err := decodeValidated("precheck", content, preCheckSchema, &parsed); err != nil {
		return PreCheckResult{}, err
	}

	return BuildPreCheckResult(parsed.Language, parsed.IsEnglish, parsed.TopicAlignmentScore, parsed.TopicSummary), nil
}

// BuildPreCheckResult applies the gate's decision rule to classifier output:
// fail when the essay is not English, or when the topic alignment score falls
// below the threshold.
func BuildPreCheckResult(language string, isEnglish bool, topicAlignmentScore float64, topicSummary string) PreCheckResult {
	var issues []string

	if !isEnglish {
		issues = append(issues, fmt.Sprintf("Submission is in %s. Please upload an English essay.", language))
	}

	if isEnglish && topicAlignmentScore < topicAlignmentThreshold {
		issues = append(issues, fmt.Sprintf("Submission does not appear to match the assignment topic. The essay appears to be about: %q.", topicSummary))
	}

	return PreCheckResult{
		Passed:              len(issues) == 0,
		Language:            language,
		IsEnglish:           isEnglish,
		TopicAlignmentScore: topicAlignmentScore,
		Issues:              issues,
	}
}
