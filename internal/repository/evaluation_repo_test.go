package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/writeright/essay-api/internal/models"
)

func TestEvaluationRepositoryLatestBySubmission(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvaluationRepository(db)
	submission := createDraft(t, db)

	first := models.Evaluation{
		SubmissionID:    submission.ID,
		OCRGeneration:   0,
		DimensionScores: datatypes.JSONMap{"content": 6.0, "language": 5.5},
		TotalScore:      11.5,
		Band:            "B3",
		RubricVersion:   "sec-english-2024.2",
		ModelID:         "gpt-4o",
		PromptVersion:   "eval-v3",
		CreatedAt:       time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), &first))

	second := models.Evaluation{
		SubmissionID:    submission.ID,
		OCRGeneration:   1,
		DimensionScores: datatypes.JSONMap{"content": 7.0, "language": 6.0},
		TotalScore:      13.0,
		Band:            "B2",
		RubricVersion:   "sec-english-2024.2",
		ModelID:         "gpt-4o",
		PromptVersion:   "eval-v3",
	}
	require.NoError(t, repo.Create(context.Background(), &second))

	latest, err := repo.LatestBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
	require.Equal(t, 1, latest.OCRGeneration)

	all, err := repo.ListBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID, "expected newest evaluation first")
}

func TestRewriteRepositoryDeleteBySubmission(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRewriteRepository(db)
	submission := createDraft(t, db)

	rewrite := models.Rewrite{
		SubmissionID: submission.ID,
		Mode:         "exam_optimised",
		Text:         "The cat sat on the mat.",
		DiffPayload:  datatypes.JSON([]byte(`[{"type":"unchanged","value":"The cat sat on the mat."}]`)),
	}
	require.NoError(t, repo.Create(context.Background(), &rewrite))

	stored, err := repo.ListBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	require.NoError(t, repo.DeleteBySubmission(context.Background(), submission.ID))

	stored, err = repo.ListBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Empty(t, stored)
}
