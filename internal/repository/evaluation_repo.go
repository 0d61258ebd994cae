package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/models"
)

// EvaluationRepository is append-only: evaluations are never mutated or
// deleted by the pipeline.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	LatestBySubmission(ctx context.Context, submissionID uint) (models.Evaluation, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) LatestBySubmission(ctx context.Context, submissionID uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("ocr_generation DESC, created_at DESC").
		First(&evaluation).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}

	return evaluations, nil
}
