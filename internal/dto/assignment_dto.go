package dto

import (
	"time"

	"github.com/writeright/essay-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	Title         string   `json:"title" validate:"required,min=3,max=255"`
	Prompt        string   `json:"prompt" validate:"required,min=10"`
	EssayType     string   `json:"essay_type" validate:"required,oneof=situational continuous"`
	EssaySubType  string   `json:"essay_sub_type" validate:"omitempty,max=64"`
	GuidingPoints []string `json:"guiding_points" validate:"omitempty,dive,min=1"`
	Level         string   `json:"level" validate:"omitempty,max=16"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Prompt        string    `json:"prompt"`
	EssayType     string    `json:"essay_type"`
	EssaySubType  string    `json:"essay_sub_type"`
	GuidingPoints []string  `json:"guiding_points"`
	Level         string    `json:"level"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	EssayType string `json:"essay_type"`
	Level     string `json:"level"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            model.ID,
		Title:         model.Title,
		Prompt:        model.Prompt,
		EssayType:     model.EssayType,
		EssaySubType:  model.EssaySubType,
		GuidingPoints: model.GuidingPoints,
		Level:         model.Level,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
