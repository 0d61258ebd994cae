package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/dto"
	"github.com/writeright/essay-api/internal/models"
)

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = uint(len(f.assignments) + 1)
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) List(ctx context.Context) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range f.assignments {
		out = append(out, assignment)
	}
	return out, nil
}

type countingEvalRepo struct {
	fakeEvaluationRepo
	latestCalls int
}

func (c *countingEvalRepo) LatestBySubmission(ctx context.Context, submissionID uint) (models.Evaluation, error) {
	c.latestCalls++
	return c.fakeEvaluationRepo.LatestBySubmission(ctx, submissionID)
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestSubmissionServiceCreateRequiresAssignment(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	assignments := &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewSubmissionService(subRepo, assignments, &fakeEvaluationRepo{}, nil, time.Minute, validate, testLogger())

	_, err := svc.Create(context.Background(), dto.SubmissionCreateRequest{
		AssignmentID: 99,
		FileRefs:     []string{"https://cdn.example.com/essay.pdf"},
	})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmissionServiceCreateDraft(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	assignments := &fakeAssignmentRepo{assignments: map[uint]models.Assignment{
		2: {ID: 2, Title: "Formal letter", EssayType: models.EssayTypeSituational},
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewSubmissionService(subRepo, assignments, &fakeEvaluationRepo{}, nil, time.Minute, validate, testLogger())

	resp, err := svc.Create(context.Background(), dto.SubmissionCreateRequest{
		AssignmentID: 2,
		FileRefs:     []string{"https://cdn.example.com/page1.jpg", "https://cdn.example.com/page2.jpg"},
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusDraft, resp.Status)
	require.Len(t, resp.FileRefs, 2)
}

func TestSubmissionServiceCreateValidation(t *testing.T) {
	subRepo := newFakeSubmissionRepo()
	assignments := &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewSubmissionService(subRepo, assignments, &fakeEvaluationRepo{}, nil, time.Minute, validate, testLogger())

	_, err := svc.Create(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 1})
	require.Error(t, err, "file refs are required")
}

func TestSubmissionServiceGetAttachesLatestEvaluation(t *testing.T) {
	text := "Essay text."
	submission := draftSubmission()
	submission.Status = models.SubmissionStatusEvaluated
	submission.OCRText = &text
	subRepo := newFakeSubmissionRepo(submission)

	evalRepo := &countingEvalRepo{}
	require.NoError(t, evalRepo.Create(context.Background(), &models.Evaluation{
		SubmissionID: 1,
		TotalScore:   13.5,
		Band:         "B2",
	}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(subRepo, &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}}, evalRepo, testRedis(t), time.Minute, validate, testLogger())

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	require.Equal(t, "B2", resp.Evaluation.Band)
	require.Equal(t, 1, evalRepo.latestCalls)

	// Second read is served from the cache.
	resp, err = svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	require.Equal(t, 1, evalRepo.latestCalls)
}

func TestSubmissionServiceGetWithoutEvaluation(t *testing.T) {
	subRepo := newFakeSubmissionRepo(draftSubmission())
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewSubmissionService(subRepo, &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}}, &fakeEvaluationRepo{}, nil, time.Minute, validate, testLogger())

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, resp.Evaluation)
	require.Equal(t, models.SubmissionStatusDraft, resp.Status)
}
