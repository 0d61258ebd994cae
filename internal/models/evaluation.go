package models

import (
	"time"

	"gorm.io/datatypes"
)

// Evaluation is an immutable scoring result for one OCR-text version of a
// submission. Rows are only ever appended; the newest is authoritative for
// display.
type Evaluation struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	SubmissionID      uint                        `gorm:"not null;index" json:"submission_id"`
	OCRGeneration     int                         `gorm:"not null" json:"ocr_generation"`
	EssayType         string                      `gorm:"size:32" json:"essay_type"`
	DimensionScores   datatypes.JSONMap           `json:"dimension_scores"`
	TotalScore        float64                     `gorm:"not null" json:"total_score"`
	Band              string                      `gorm:"size:16;not null" json:"band"`
	Strengths         datatypes.JSONSlice[string] `json:"strengths"`
	Weaknesses        datatypes.JSONSlice[string] `json:"weaknesses"`
	NextSteps         datatypes.JSONSlice[string] `json:"next_steps"`
	Confidence        float64                     `json:"confidence"`
	ReviewRecommended bool                        `json:"review_recommended"`
	RubricVersion     string                      `gorm:"size:64" json:"rubric_version"`
	ModelID           string                      `gorm:"size:64" json:"model_id"`
	PromptVersion     string                      `gorm:"size:64" json:"prompt_version"`
	CreatedAt         time.Time                   `json:"created_at"`
	Submission        Submission                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
