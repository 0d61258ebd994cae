package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/writeright/essay-api/internal/diff"
	"github.com/writeright/essay-api/internal/dto"
	"github.com/writeright/essay-api/internal/models"
	"github.com/writeright/essay-api/pkg/ai"
)

type rewriterStub struct {
	result ai.RewriteResult
	err    error
	input  ai.RewriteInput
}

func (r *rewriterStub) Rewrite(ctx context.Context, input ai.RewriteInput) (ai.RewriteResult, error) {
	r.input = input
	if r.err != nil {
		return ai.RewriteResult{}, r.err
	}
	return r.result, nil
}

func evaluatedSubmission(text string) models.Submission {
	submission := draftSubmission()
	submission.Status = models.SubmissionStatusEvaluated
	submission.OCRText = &text
	return submission
}

func TestRewriteServiceCreate(t *testing.T) {
	subRepo := newFakeSubmissionRepo(evaluatedSubmission("The cat sat on the mat. It was a sunny day."))
	evalRepo := &fakeEvaluationRepo{}
	require.NoError(t, evalRepo.Create(context.Background(), &models.Evaluation{SubmissionID: 1, Band: "B3"}))
	rewriteRepo := &fakeRewriteRepo{}
	rewriter := &rewriterStub{result: ai.RewriteResult{
		Text:      "The cat sat on the mat. The sun blazed overhead.",
		Rationale: map[string]string{"vocabulary": "Replaced flat description with vivid imagery."},
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewRewriteService(subRepo, evalRepo, rewriteRepo, rewriter, validate, testLogger())

	resp, err := svc.Create(context.Background(), 1, dto.RewriteCreateRequest{Mode: ai.RewriteModeExam})
	require.NoError(t, err)
	require.Equal(t, ai.RewriteModeExam, resp.Mode)
	require.Equal(t, "The cat sat on the mat. The sun blazed overhead.", resp.Text)
	require.Equal(t, "B3", rewriter.input.CurrentBand)

	require.Len(t, resp.Diff, 3)
	require.Equal(t, diff.SegmentUnchanged, resp.Diff[0].Type)
	require.Equal(t, "The cat sat on the mat.", resp.Diff[0].Value)
	require.Equal(t, diff.SegmentRemove, resp.Diff[1].Type)
	require.Equal(t, diff.SegmentAdd, resp.Diff[2].Type)

	require.Equal(t, "Replaced flat description with vivid imagery.", resp.Rationale["vocabulary"])
	require.Len(t, rewriteRepo.rewrites, 1)
}

func TestRewriteServiceRejectsInvalidMode(t *testing.T) {
	subRepo := newFakeSubmissionRepo(evaluatedSubmission("Some text."))
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewRewriteService(subRepo, &fakeEvaluationRepo{}, &fakeRewriteRepo{}, &rewriterStub{}, validate, testLogger())

	_, err := svc.Create(context.Background(), 1, dto.RewriteCreateRequest{Mode: "casual"})
	require.Error(t, err)
}

func TestRewriteServiceRequiresEvaluatedSubmission(t *testing.T) {
	subRepo := newFakeSubmissionRepo(draftSubmission())
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewRewriteService(subRepo, &fakeEvaluationRepo{}, &fakeRewriteRepo{}, &rewriterStub{}, validate, testLogger())

	_, err := svc.Create(context.Background(), 1, dto.RewriteCreateRequest{Mode: ai.RewriteModeClarity})
	require.ErrorIs(t, err, ErrSubmissionNotEvaluated)
}

func TestRewriteServiceList(t *testing.T) {
	subRepo := newFakeSubmissionRepo(evaluatedSubmission("Some text."))
	rewriteRepo := &fakeRewriteRepo{rewrites: []models.Rewrite{
		{ID: 1, SubmissionID: 1, Mode: ai.RewriteModeExam, Text: "Rewrite one."},
		{ID: 2, SubmissionID: 2, Mode: ai.RewriteModeClarity, Text: "Other submission."},
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewRewriteService(subRepo, &fakeEvaluationRepo{}, rewriteRepo, &rewriterStub{}, validate, testLogger())

	rewrites, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rewrites, 1)
	require.Equal(t, "Rewrite one.", rewrites[0].Text)
}
