package dto

import (
	"time"

	"github.com/writeright/essay-api/internal/models"
)

// EvaluationResponse serializes a scoring result.
type EvaluationResponse struct {
	ID                uint               `json:"id"`
	SubmissionID      uint               `json:"submission_id"`
	EssayType         string             `json:"essay_type"`
	DimensionScores   map[string]float64 `json:"dimension_scores"`
	TotalScore        float64            `json:"total_score"`
	Band              string             `json:"band"`
	Strengths         []string           `json:"strengths"`
	Weaknesses        []string           `json:"weaknesses"`
	NextSteps         []string           `json:"next_steps"`
	Confidence        float64            `json:"confidence"`
	ReviewRecommended bool               `json:"review_recommended"`
	RubricVersion     string             `json:"rubric_version"`
	ModelID           string             `json:"model_id"`
	PromptVersion     string             `json:"prompt_version"`
	CreatedAt         time.Time          `json:"created_at"`
}

// NewEvaluationResponse converts an Evaluation model into a DTO.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	scores := make(map[string]float64, len(model.DimensionScores))
	for dimension, value := range model.DimensionScores {
		if score, ok := value.(float64); ok {
			scores[dimension] = score
		}
	}

	return EvaluationResponse{
		ID:                model.ID,
		SubmissionID:      model.SubmissionID,
		EssayType:         model.EssayType,
		DimensionScores:   scores,
		TotalScore:        model.TotalScore,
		Band:              model.Band,
		Strengths:         model.Strengths,
		Weaknesses:        model.Weaknesses,
		NextSteps:         model.NextSteps,
		Confidence:        model.Confidence,
		ReviewRecommended: model.ReviewRecommended,
		RubricVersion:     model.RubricVersion,
		ModelID:           model.ModelID,
		PromptVersion:     model.PromptVersion,
		CreatedAt:         model.CreatedAt,
	}
}

// NewEvaluationResponseSlice converts evaluation models into DTOs.
func NewEvaluationResponseSlice(evaluations []models.Evaluation) []EvaluationResponse {
	responses := make([]EvaluationResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, NewEvaluationResponse(evaluation))
	}

	return responses
}
