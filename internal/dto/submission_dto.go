package dto

import (
	"time"

	"github.com/writeright/essay-api/internal/models"
)

// SubmissionCreateRequest describes the payload for creating a draft
// submission from already-uploaded file references.
type SubmissionCreateRequest struct {
	AssignmentID uint     `json:"assignment_id" validate:"required,gt=0"`
	FileRefs     []string `json:"file_refs" validate:"required,min=1,max=10,dive,min=1"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID uint   `query:"assignment_id"`
	Status       string `query:"status" validate:"omitempty,oneof=draft processing ocr_complete evaluating evaluated failed"`
}

// OCRTextUpdateRequest carries an externally corrected OCR transcript.
type OCRTextUpdateRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint                `json:"id"`
	AssignmentID  uint                `json:"assignment_id"`
	FileRefs      []string            `json:"file_refs"`
	Status        string              `json:"status"`
	OCRText       *string             `json:"ocr_text"`
	OCRConfidence *float64            `json:"ocr_confidence"`
	FailureReason *string             `json:"failure_reason"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Assignment    AssignmentLite      `json:"assignment"`
	Evaluation    *EvaluationResponse `json:"evaluation,omitempty"`
}

// OCRTextResponse serializes the transcript endpoints.
type OCRTextResponse struct {
	SubmissionID uint     `json:"submission_id"`
	Text         string   `json:"text"`
	Confidence   *float64 `json:"confidence"`
	ReEvaluating bool     `json:"reEvaluating"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		FileRefs:      model.FileRefs,
		Status:        model.Status,
		OCRText:       model.OCRText,
		OCRConfidence: model.OCRConfidence,
		FailureReason: model.FailureReason,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:        model.Assignment.ID,
			Title:     model.Assignment.Title,
			EssayType: model.Assignment.EssayType,
			Level:     model.Assignment.Level,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
