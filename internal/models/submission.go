package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission lifecycle statuses. Persisted as case-sensitive strings.
const (
	SubmissionStatusDraft       = "draft"
	SubmissionStatusProcessing  = "processing"
	SubmissionStatusOCRComplete = "ocr_complete"
	SubmissionStatusEvaluating  = "evaluating"
	SubmissionStatusEvaluated   = "evaluated"
	SubmissionStatusFailed      = "failed"
)

// Submission is the unit of work moving through the processing pipeline.
// OCRGeneration increments on every OCR-text edit; pipeline runs record the
// generation they started from so a stale run cannot clobber a newer one.
type Submission struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	AssignmentID  uint                        `gorm:"not null" json:"assignment_id"`
	FileRefs      datatypes.JSONSlice[string] `json:"file_refs"`
	Status        string                      `gorm:"size:32;not null;default:draft" json:"status"`
	OCRText       *string                     `gorm:"type:text" json:"ocr_text"`
	OCRConfidence *float64                    `json:"ocr_confidence"`
	OCRGeneration int                         `gorm:"not null;default:0" json:"ocr_generation"`
	FailureReason *string                     `gorm:"type:text" json:"failure_reason"`
	ExportRef     *string                     `gorm:"size:512" json:"export_ref"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	Assignment    Assignment                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
}

// submissionTransitions lists the permitted forward edges of the lifecycle.
var submissionTransitions = map[string][]string{
	SubmissionStatusDraft:       {SubmissionStatusProcessing},
	SubmissionStatusProcessing:  {SubmissionStatusOCRComplete, SubmissionStatusFailed},
	SubmissionStatusOCRComplete: {SubmissionStatusEvaluating, SubmissionStatusFailed},
	SubmissionStatusEvaluating:  {SubmissionStatusEvaluated, SubmissionStatusFailed},
}

// CanTransition reports whether moving from one status to another follows a
// permitted lifecycle edge.
func CanTransition(from, to string) bool {
	for _, next := range submissionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends a processing run.
func (s Submission) IsTerminal() bool {
	return s.Status == SubmissionStatusEvaluated || s.Status == SubmissionStatusFailed
}
