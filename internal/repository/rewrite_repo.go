package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/models"
)

// RewriteRepository stores generated rewrites and their diffs.
type RewriteRepository interface {
	Create(ctx context.Context, rewrite *models.Rewrite) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Rewrite, error)
	DeleteBySubmission(ctx context.Context, submissionID uint) error
}

type rewriteRepository struct {
	db *gorm.DB
}

// NewRewriteRepository instantiates the repository.
func NewRewriteRepository(db *gorm.DB) RewriteRepository {
	return &rewriteRepository{db: db}
}

func (r *rewriteRepository) Create(ctx context.Context, rewrite *models.Rewrite) error {
	return r.db.WithContext(ctx).Create(rewrite).Error
}

func (r *rewriteRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Rewrite, error) {
	var rewrites []models.Rewrite
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&rewrites).Error; err != nil {
		return nil, err
	}

	return rewrites, nil
}

func (r *rewriteRepository) DeleteBySubmission(ctx context.Context, submissionID uint) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Delete(&models.Rewrite{}).Error
}
