package dto

import (
	"encoding/json"
	"time"

	"github.com/writeright/essay-api/internal/diff"
	"github.com/writeright/essay-api/internal/models"
)

// RewriteCreateRequest selects the rewrite mode to generate.
type RewriteCreateRequest struct {
	Mode string `json:"mode" validate:"required,oneof=exam_optimised clarity_optimised"`
}

// RewriteResponse serializes a generated rewrite and its sentence diff.
type RewriteResponse struct {
	ID           uint              `json:"id"`
	SubmissionID uint              `json:"submission_id"`
	Mode         string            `json:"mode"`
	Text         string            `json:"text"`
	Diff         []diff.Change     `json:"diff"`
	Rationale    map[string]string `json:"rationale"`
	CreatedAt    time.Time         `json:"created_at"`
}

// NewRewriteResponse converts a Rewrite model into a DTO.
func NewRewriteResponse(model models.Rewrite) RewriteResponse {
	response := RewriteResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		Mode:         model.Mode,
		Text:         model.Text,
		CreatedAt:    model.CreatedAt,
	}

	if len(model.DiffPayload) > 0 {
		var changes []diff.Change
		if err := json.Unmarshal(model.DiffPayload, &changes); err == nil {
			response.Diff = changes
		}
	}

	if len(model.Rationale) > 0 {
		rationale := make(map[string]string, len(model.Rationale))
		for key, value := range model.Rationale {
			if text, ok := value.(string); ok {
				rationale[key] = text
			}
		}
		response.Rationale = rationale
	}

	return response
}

// NewRewriteResponseSlice converts rewrite models into DTOs.
func NewRewriteResponseSlice(rewrites []models.Rewrite) []RewriteResponse {
	responses := make([]RewriteResponse, 0, len(rewrites))
	for _, rewrite := range rewrites {
		responses = append(responses, NewRewriteResponse(rewrite))
	}

	return responses
}
