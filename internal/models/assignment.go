package models

import (
	"time"

	"gorm.io/datatypes"
)

// Essay types accepted by the grading rubric.
const (
	EssayTypeSituational = "situational"
	EssayTypeContinuous  = "continuous"
)

// Assignment defines the writing task a submission responds to.
type Assignment struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Prompt        string                      `gorm:"type:text;not null" json:"prompt"`
	EssayType     string                      `gorm:"size:32;not null" json:"essay_type"`
	EssaySubType  string                      `gorm:"size:64" json:"essay_sub_type"`
	GuidingPoints datatypes.JSONSlice[string] `json:"guiding_points"`
	Level         string                      `gorm:"size:16" json:"level"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	Submissions   []Submission                `json:"-"`
}
