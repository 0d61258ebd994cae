package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries. Zero values leave the
// corresponding filter unset.
type SubmissionFilter struct {
	AssignmentID uint
	Status       string
}

// SubmissionRepository defines data operations for submissions, including the
// named state transitions the pipeline is allowed to perform. Transitions out
// of draft and into terminal states are conditional updates so that multiple
// pipeline instances can race safely without locks.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)

	// TryBeginProcessing performs the draft -> processing transition keyed on
	// the current status. Exactly one concurrent caller observes true.
	TryBeginProcessing(ctx context.Context, id uint) (bool, error)

	// StoreOCRResult performs processing -> ocr_complete, persisting the
	// extracted text and confidence.
	StoreOCRResult(ctx context.Context, id uint, text string, confidence float64) error

	// UpdateOCRText stores externally edited text, resets the status to
	// ocr_complete and bumps the generation counter. Returns the updated row.
	UpdateOCRText(ctx context.Context, id uint, text string, confidence *float64) (models.Submission, error)

	// MarkEvaluating performs ocr_complete -> evaluating. Single-writer past
	// ocr_complete, so no condition beyond the id.
	MarkEvaluating(ctx context.Context, id uint) error

	// CompleteEvaluation performs evaluating -> evaluated, conditional on the
	// generation the run started from. Returns false when a newer OCR edit
	// invalidated the run.
	CompleteEvaluation(ctx context.Context, id uint, generation int) (bool, error)

	// Fail records a terminal failure with a human-readable reason,
	// conditional on the generation the run started from.
	Fail(ctx context.Context, id uint, generation int, reason string) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).Preload("Assignment")
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != 0 {
		query = query.Where("assignment_id = ?", filter.AssignmentID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) TryBeginProcessing(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusDraft).
		Update("status", models.SubmissionStatusProcessing)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *submissionRepository) StoreOCRResult(ctx context.Context, id uint, text string, confidence float64) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ocr_text":       text,
			"ocr_confidence": confidence,
			"status":         models.SubmissionStatusOCRComplete,
		}).Error
}

func (r *submissionRepository) UpdateOCRText(ctx context.Context, id uint, text string, confidence *float64) (models.Submission, error) {
	updates := map[string]interface{}{
		"ocr_text":       text,
		"status":         models.SubmissionStatusOCRComplete,
		"failure_reason": nil,
		"ocr_generation": gorm.Expr("ocr_generation + 1"),
	}
	if confidence != nil {
		updates["ocr_confidence"] = *confidence
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return models.Submission{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Submission{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *submissionRepository) MarkEvaluating(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("status", models.SubmissionStatusEvaluating).Error
}

func (r *submissionRepository) CompleteEvaluation(ctx context.Context, id uint, generation int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND ocr_generation = ?", id, generation).
		Update("status", models.SubmissionStatusEvaluated)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *submissionRepository) Fail(ctx context.Context, id uint, generation int, reason string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND ocr_generation = ?", id, generation).
		Updates(map[string]interface{}{
			"status":         models.SubmissionStatusFailed,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
