package ai

import "context"

// PreCheckInput carries the material for the pre-evaluation gate.
type PreCheckInput struct {
	EssayText     string
	Prompt        string
	EssayType     string
	GuidingPoints []string
	SubmissionID  uint
}

// PreCheckResult is the outcome of the language and topic-alignment checks.
type PreCheckResult struct {
	Passed              bool     `json:"passed"`
	Language            string   `json:"language"`
	IsEnglish           bool     `json:"isEnglish"`
	TopicAlignmentScore float64  `json:"topicAlignmentScore"`
	Issues              []string `json:"issues"`
}

// PreChecker validates that an essay is worth sending to the evaluator.
type PreChecker interface {
	Check(ctx context.Context, input PreCheckInput) (PreCheckResult, error)
}

// EvaluationInput contains the artefacts needed to grade an essay.
type EvaluationInput struct {
	EssayText     string
	EssayType     string
	EssaySubType  string
	Prompt        string
	GuidingPoints []string
	Level         string
}

// EvaluationResult is the structured scoring returned by the AI evaluator.
type EvaluationResult struct {
	DimensionScores   map[string]float64 `json:"dimensionScores"`
	TotalScore        float64            `json:"totalScore"`
	Band              string             `json:"band"`
	Strengths         []string           `json:"strengths"`
	Weaknesses        []string           `json:"weaknesses"`
	NextSteps         []string           `json:"nextSteps"`
	Confidence        float64            `json:"confidence"`
	ReviewRecommended bool               `json:"reviewRecommended"`
	RubricVersion     string             `json:"rubricVersion"`
	ModelID           string             `json:"modelId"`
	PromptVersion     string             `json:"promptVersion"`
}

// Evaluator describes an AI model capable of grading essays against a rubric.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (EvaluationResult, error)
}

// Rewrite target modes.
const (
	RewriteModeExam    = "exam_optimised"
	RewriteModeClarity = "clarity_optimised"
)

// RewriteInput describes the rewrite request for an essay.
type RewriteInput struct {
	EssayText     string
	EssayType     string
	Prompt        string
	Mode          string
	CurrentBand   string
	GuidingPoints []string
}

// RewriteResult is a generated model answer plus per-category rationale.
type RewriteResult struct {
	Text      string            `json:"text"`
	Rationale map[string]string `json:"rationale"`
}

// Rewriter produces an improved version of an essay.
type Rewriter interface {
	Rewrite(ctx context.Context, input RewriteInput) (RewriteResult, error)
}
