package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rewrite is a generated model answer plus the sentence-level diff against
// the OCR text it was produced from. Rewrites are derivative: they are
// deleted whenever the underlying OCR text changes.
type Rewrite struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID uint              `gorm:"not null;index" json:"submission_id"`
	Mode         string            `gorm:"size:32;not null" json:"mode"`
	Text         string            `gorm:"type:text;not null" json:"text"`
	DiffPayload  datatypes.JSON    `json:"diff_payload"`
	Rationale    datatypes.JSONMap `json:"rationale"`
	CreatedAt    time.Time         `json:"created_at"`
	Submission   Submission        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
