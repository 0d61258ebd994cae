package dto

import (
	"time"

	"github.com/writeright/essay-api/internal/models"
)

// UploadFileResult reports the outcome for a single file in a batch upload.
// Exactly one of URL or Error is set.
type UploadFileResult struct {
	FileName  string `json:"file_name"`
	Accepted  bool   `json:"accepted"`
	URL       string `json:"url,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UploadBatchResponse summarizes a batch upload. Files succeed or fail
// independently, so a batch can be partially accepted.
type UploadBatchResponse struct {
	Accepted int                `json:"accepted"`
	Rejected int                `json:"rejected"`
	Files    []UploadFileResult `json:"files"`
}

// UploadRecordResponse describes a previously stored file.
type UploadRecordResponse struct {
	ID        uint      `json:"id"`
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUploadRecordResponseSlice converts upload records into DTOs.
func NewUploadRecordResponseSlice(records []models.UploadRecord) []UploadRecordResponse {
	responses := make([]UploadRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, UploadRecordResponse{
			ID:        record.ID,
			FileName:  record.FileName,
			URL:       record.URL,
			MimeType:  record.MimeType,
			SizeBytes: record.SizeBytes,
			Checksum:  record.Checksum,
			CreatedAt: record.CreatedAt,
		})
	}

	return responses
}
