package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/writeright/essay-api/internal/models"
)

func TestCanTransitionForwardEdges(t *testing.T) {
	allowed := [][2]string{
		{models.SubmissionStatusDraft, models.SubmissionStatusProcessing},
		{models.SubmissionStatusProcessing, models.SubmissionStatusOCRComplete},
		{models.SubmissionStatusProcessing, models.SubmissionStatusFailed},
		{models.SubmissionStatusOCRComplete, models.SubmissionStatusEvaluating},
		{models.SubmissionStatusOCRComplete, models.SubmissionStatusFailed},
		{models.SubmissionStatusEvaluating, models.SubmissionStatusEvaluated},
		{models.SubmissionStatusEvaluating, models.SubmissionStatusFailed},
	}
	for _, edge := range allowed {
		require.True(t, models.CanTransition(edge[0], edge[1]), "%s -> %s should be permitted", edge[0], edge[1])
	}
}

func TestCanTransitionRejectsSkipsAndReversals(t *testing.T) {
	forbidden := [][2]string{
		{models.SubmissionStatusDraft, models.SubmissionStatusOCRComplete},
		{models.SubmissionStatusDraft, models.SubmissionStatusEvaluated},
		{models.SubmissionStatusProcessing, models.SubmissionStatusDraft},
		{models.SubmissionStatusEvaluated, models.SubmissionStatusEvaluating},
		{models.SubmissionStatusFailed, models.SubmissionStatusProcessing},
		{models.SubmissionStatusEvaluated, models.SubmissionStatusDraft},
	}
	for _, edge := range forbidden {
		require.False(t, models.CanTransition(edge[0], edge[1]), "%s -> %s should be rejected", edge[0], edge[1])
	}
}

func TestIsTerminal(t *testing.T) {
	require.True(t, models.Submission{Status: models.SubmissionStatusEvaluated}.IsTerminal())
	require.True(t, models.Submission{Status: models.SubmissionStatusFailed}.IsTerminal())
	require.False(t, models.Submission{Status: models.SubmissionStatusDraft}.IsTerminal())
	require.False(t, models.Submission{Status: models.SubmissionStatusEvaluating}.IsTerminal())
}
