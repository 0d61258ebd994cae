package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Assignment{},
		&models.Submission{},
		&models.Evaluation{},
		&models.Rewrite{},
		&models.UploadRecord{},
	))
	return db
}

func createDraft(t *testing.T, db *gorm.DB) models.Submission {
	t.Helper()
	assignment := models.Assignment{Title: "Describe a memorable holiday", Prompt: "Write about a holiday you remember well.", EssayType: models.EssayTypeContinuous, Level: "sec-3"}
	require.NoError(t, db.Create(&assignment).Error)
	submission := models.Submission{AssignmentID: assignment.ID, FileRefs: []string{"https://files.example.com/essay.pdf"}, Status: models.SubmissionStatusDraft}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestSubmissionRepositoryTryBeginProcessing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := createDraft(t, db)

	ok, err := repo.TryBeginProcessing(context.Background(), submission.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// A second attempt must lose: the row is no longer in draft.
	ok, err = repo.TryBeginProcessing(context.Background(), submission.ID)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusProcessing, stored.Status)
}

func TestSubmissionRepositoryTryBeginProcessingConcurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := createDraft(t, db)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ok, err := repo.TryBeginProcessing(context.Background(), submission.ID)
			require.NoError(t, err)
			results[idx] = ok
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, ok := range results {
		if ok {
			winners++
		}
	}
	require.Equal(t, 1, winners, "exactly one caller may claim the submission")
}

func TestSubmissionRepositoryStoreOCRResult(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := createDraft(t, db)

	ok, err := repo.TryBeginProcessing(context.Background(), submission.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.StoreOCRResult(context.Background(), submission.ID, "Dear Sir, I am writing to complain.", 0.92))

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusOCRComplete, stored.Status)
	require.NotNil(t, stored.OCRText)
	require.Equal(t, "Dear Sir, I am writing to complain.", *stored.OCRText)
	require.NotNil(t, stored.OCRConfidence)
	require.InDelta(t, 0.92, *stored.OCRConfidence, 1e-9)
}

func TestSubmissionRepositoryUpdateOCRTextBumpsGeneration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := createDraft(t, db)

	ok, err := repo.TryBeginProcessing(context.Background(), submission.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.StoreOCRResult(context.Background(), submission.ID, "original text", 0.8))

	updated, err := repo.UpdateOCRText(context.Background(), submission.ID, "corrected text", nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusOCRComplete, updated.Status)
	require.Equal(t, 1, updated.OCRGeneration)
	require.NotNil(t, updated.OCRText)
	require.Equal(t, "corrected text", *updated.OCRText)

	updated, err = repo.UpdateOCRText(context.Background(), submission.ID, "corrected again", nil)
	require.NoError(t, err)
	require.Equal(t, 2, updated.OCRGeneration)
}

func TestSubmissionRepositoryUpdateOCRTextMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	_, err := repo.UpdateOCRText(context.Background(), 9999, "text", nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryCompleteEvaluationStaleGeneration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := createDraft(t, db)

	ok, err := repo.TryBeginProcessing(context.Background(), submission.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.StoreOCRResult(context.Background(), submission.ID, "text", 0.9))
	require.NoError(t, repo.MarkEvaluating(context.Background(), submission.ID))

	// The user edits the OCR text while the first evaluation is in flight.
	_, err = repo.UpdateOCRText(context.Background(), submission.ID, "edited text", nil)
	require.NoError(t, err)

	// The stale run finishes and tries to write its terminal state.
	ok, err = repo.CompleteEvaluation(context.Background(), submission.ID, 0)
	require.NoError(t, err)
	require.False(t, ok, "a stale run must not touch the submission")

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusOCRComplete, stored.Status)

	require.NoError(t, repo.MarkEvaluating(context.Background(), submission.ID))
	ok, err = repo.CompleteEvaluation(context.Background(), submission.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err = repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusEvaluated, stored.Status)
}

func TestSubmissionRepositoryFailStaleGeneration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := createDraft(t, db)

	ok, err := repo.TryBeginProcessing(context.Background(), submission.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.StoreOCRResult(context.Background(), submission.ID, "text", 0.9))

	_, err = repo.UpdateOCRText(context.Background(), submission.ID, "edited", nil)
	require.NoError(t, err)

	ok, err = repo.Fail(context.Background(), submission.ID, 0, "model timeout")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.Fail(context.Background(), submission.ID, 1, "model timeout")
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	require.Equal(t, "model timeout", *stored.FailureReason)
}

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	assignment := models.Assignment{Title: "Formal letter", Prompt: "Write a letter of complaint.", EssayType: models.EssayTypeSituational, Level: "sec-4"}
	require.NoError(t, db.Create(&assignment).Error)
	other := models.Assignment{Title: "Narrative", Prompt: "Tell a story.", EssayType: models.EssayTypeContinuous, Level: "sec-4"}
	require.NoError(t, db.Create(&other).Error)

	first := models.Submission{AssignmentID: assignment.ID, FileRefs: []string{"a.pdf"}, Status: models.SubmissionStatusDraft}
	second := models.Submission{AssignmentID: assignment.ID, FileRefs: []string{"b.pdf"}, Status: models.SubmissionStatusEvaluated}
	third := models.Submission{AssignmentID: other.ID, FileRefs: []string{"c.pdf"}, Status: models.SubmissionStatusDraft}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, db.Create(&third).Error)

	all, err := repo.List(context.Background(), SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	byAssignment, err := repo.List(context.Background(), SubmissionFilter{AssignmentID: assignment.ID})
	require.NoError(t, err)
	require.Len(t, byAssignment, 2)

	byStatus, err := repo.List(context.Background(), SubmissionFilter{Status: models.SubmissionStatusEvaluated})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, second.ID, byStatus[0].ID)
}
