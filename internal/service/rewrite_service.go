package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/diff"
	"github.com/writeright/essay-api/internal/dto"
	"github.com/writeright/essay-api/internal/models"
	"github.com/writeright/essay-api/internal/repository"
	"github.com/writeright/essay-api/pkg/ai"
)

// ErrSubmissionNotEvaluated indicates a rewrite request before evaluation
// has finished.
var ErrSubmissionNotEvaluated = errors.New("submission has not been evaluated yet")

// RewriteService generates improved versions of evaluated essays together
// with a sentence-level diff against the student's text.
type RewriteService interface {
	Create(ctx context.Context, submissionID uint, payload dto.RewriteCreateRequest) (dto.RewriteResponse, error)
	List(ctx context.Context, submissionID uint) ([]dto.RewriteResponse, error)
}

type rewriteService struct {
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	rewrites    repository.RewriteRepository
	rewriter    ai.Rewriter
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewRewriteService constructs a rewrite service.
func NewRewriteService(
	submissions repository.SubmissionRepository,
	evaluations repository.EvaluationRepository,
	rewrites repository.RewriteRepository,
	rewriter ai.Rewriter,
	validate *validator.Validate,
	logger zerolog.Logger,
) RewriteService {
	return &rewriteService{
		submissions: submissions,
		evaluations: evaluations,
		rewrites:    rewrites,
		rewriter:    rewriter,
		validator:   validate,
		logger:      logger.With().Str("component", "rewrite_service").Logger(),
		tracer:      otel.Tracer("github.com/writeright/essay-api/internal/service/rewrite"),
	}
}

func (s *rewriteService) Create(ctx context.Context, submissionID uint, payload dto.RewriteCreateRequest) (dto.RewriteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RewriteResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "rewrites.create", trace.WithAttributes(
		attribute.Int("submission.id", int(submissionID)),
		attribute.String("rewrite.mode", payload.Mode),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		return dto.RewriteResponse{}, err
	}
	if submission.Status != models.SubmissionStatusEvaluated || submission.OCRText == nil {
		return dto.RewriteResponse{}, ErrSubmissionNotEvaluated
	}

	band := ""
	if evaluation, err := s.evaluations.LatestBySubmission(ctx, submissionID); err == nil {
		band = evaluation.Band
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.RewriteResponse{}, err
	}

	original := diff.StripFences(*submission.OCRText)
	result, err := s.rewriter.Rewrite(ctx, ai.RewriteInput{
		EssayText:     original,
		EssayType:     submission.Assignment.EssayType,
		Prompt:        submission.Assignment.Prompt,
		Mode:          payload.Mode,
		CurrentBand:   band,
		GuidingPoints: submission.Assignment.GuidingPoints,
	})
	if err != nil {
		span.RecordError(err)
		return dto.RewriteResponse{}, err
	}

	rewritten := diff.StripFences(result.Text)
	changes := diff.Sentences(original, rewritten)
	diffPayload, err := json.Marshal(changes)
	if err != nil {
		span.RecordError(err)
		return dto.RewriteResponse{}, err
	}

	rationale := make(datatypes.JSONMap, len(result.Rationale))
	for category, text := range result.Rationale {
		rationale[category] = text
	}

	rewrite := models.Rewrite{
		SubmissionID: submissionID,
		Mode:         payload.Mode,
		Text:         rewritten,
		DiffPayload:  datatypes.JSON(diffPayload),
		Rationale:    rationale,
	}
	if err := s.rewrites.Create(ctx, &rewrite); err != nil {
		span.RecordError(err)
		return dto.RewriteResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submissionID).Str("mode", payload.Mode).Msg("rewrite generated")

	return dto.NewRewriteResponse(rewrite), nil
}

func (s *rewriteService) List(ctx context.Context, submissionID uint) ([]dto.RewriteResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		return nil, err
	}

	rewrites, err := s.rewrites.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return dto.NewRewriteResponseSlice(rewrites), nil
}
