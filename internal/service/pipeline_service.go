package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/writeright/essay-api/internal/dto"
	"github.com/writeright/essay-api/internal/events"
	"github.com/writeright/essay-api/internal/models"
	"github.com/writeright/essay-api/internal/observability"
	"github.com/writeright/essay-api/internal/ocr"
	"github.com/writeright/essay-api/internal/repository"
	"github.com/writeright/essay-api/pkg/ai"
)

var (
	// ErrSubmissionNotDraft indicates a finalize attempt on a submission that
	// already left the draft state.
	ErrSubmissionNotDraft = errors.New("submission is not in draft state")
	// ErrNoFiles indicates a finalize attempt without any uploaded files.
	ErrNoFiles = errors.New("submission has no files attached")
	// ErrOCRTextNotReady indicates the transcript has not been produced yet.
	ErrOCRTextNotReady = errors.New("ocr text is not available yet")
	// ErrEmptyOCRText indicates an edit that left no usable text.
	ErrEmptyOCRText = errors.New("ocr text is empty")
)

const defaultRunTimeout = 5 * time.Minute

// TextExtractor converts uploaded files into transcript text.
type TextExtractor interface {
	ExtractFromFiles(ctx context.Context, fileURLs []string, fileType string) (ocr.Result, error)
}

// PipelineService drives submissions through OCR and evaluation. Heavy work
// runs on background tasks; Wait blocks until all in-flight runs finish,
// which both tests and graceful shutdown rely on.
type PipelineService interface {
	Finalize(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	GetOCRText(ctx context.Context, id uint) (dto.OCRTextResponse, error)
	UpdateOCRText(ctx context.Context, id uint, payload dto.OCRTextUpdateRequest) (dto.OCRTextResponse, error)
	Wait()
}

type pipelineService struct {
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	rewrites    repository.RewriteRepository
	extractor   TextExtractor
	prechecker  ai.PreChecker
	evaluator   ai.Evaluator
	publisher   events.Publisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	runTimeout  time.Duration
	wg          sync.WaitGroup
}

// NewPipelineService constructs the processing pipeline.
func NewPipelineService(
	submissions repository.SubmissionRepository,
	evaluations repository.EvaluationRepository,
	rewrites repository.RewriteRepository,
	extractor TextExtractor,
	prechecker ai.PreChecker,
	evaluator ai.Evaluator,
	publisher events.Publisher,
	logger zerolog.Logger,
) PipelineService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &pipelineService{
		submissions: submissions,
		evaluations: evaluations,
		rewrites:    rewrites,
		extractor:   extractor,
		prechecker:  prechecker,
		evaluator:   evaluator,
		publisher:   publisher,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "pipeline_service").Logger(),
		tracer:      otel.Tracer("github.com/writeright/essay-api/internal/service/pipeline"),
		runTimeout:  defaultRunTimeout,
	}
}

// Finalize claims a draft submission and starts the OCR and evaluation run.
// The claim is a conditional update on the draft status, so concurrent
// finalize calls resolve to exactly one winner.
func (s *pipelineService) Finalize(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.finalize", trace.WithAttributes(
		attribute.Int("submission.id", int(id)),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	if len(submission.FileRefs) == 0 {
		return dto.SubmissionResponse{}, ErrNoFiles
	}

	claimed, err := s.submissions.TryBeginProcessing(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	if !claimed {
		span.SetStatus(codes.Error, "not in draft")
		return dto.SubmissionResponse{}, ErrSubmissionNotDraft
	}

	submission.Status = models.SubmissionStatusProcessing
	s.transition(ctx, submission.ID, models.SubmissionStatusProcessing, submission.OCRGeneration, "")

	s.spawn(func(runCtx context.Context) {
		s.process(runCtx, submission)
	})

	return dto.NewSubmissionResponse(submission), nil
}

func (s *pipelineService) GetOCRText(ctx context.Context, id uint) (dto.OCRTextResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.OCRTextResponse{}, err
	}
	if submission.OCRText == nil {
		return dto.OCRTextResponse{}, ErrOCRTextNotReady
	}

	return dto.OCRTextResponse{
		SubmissionID: submission.ID,
		Text:         *submission.OCRText,
		Confidence:   submission.OCRConfidence,
	}, nil
}

// UpdateOCRText stores a corrected transcript and re-enters the pipeline at
// the evaluation stage. The OCR stage is not repeated: the corrected text
// supersedes whatever extraction produced. Existing rewrites are discarded
// because they were derived from the previous text.
func (s *pipelineService) UpdateOCRText(ctx context.Context, id uint, payload dto.OCRTextUpdateRequest) (dto.OCRTextResponse, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.update_ocr_text", trace.WithAttributes(
		attribute.Int("submission.id", int(id)),
	))
	defer span.End()

	clean := strings.TrimSpace(s.sanitizer.Sanitize(payload.Text))
	if clean == "" {
		return dto.OCRTextResponse{}, ErrEmptyOCRText
	}

	existing, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.OCRTextResponse{}, err
	}
	if existing.OCRText == nil {
		return dto.OCRTextResponse{}, ErrOCRTextNotReady
	}

	submission, err := s.submissions.UpdateOCRText(ctx, id, clean, nil)
	if err != nil {
		span.RecordError(err)
		return dto.OCRTextResponse{}, err
	}

	if err := s.rewrites.DeleteBySubmission(ctx, id); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", id).Msg("failed to discard stale rewrites")
	}

	s.transition(ctx, submission.ID, models.SubmissionStatusOCRComplete, submission.OCRGeneration, "")

	generation := submission.OCRGeneration
	s.spawn(func(runCtx context.Context) {
		s.evaluate(runCtx, submission, clean, generation)
	})

	return dto.OCRTextResponse{
		SubmissionID: submission.ID,
		Text:         clean,
		Confidence:   submission.OCRConfidence,
		ReEvaluating: true,
	}, nil
}

// Wait blocks until every background run has completed.
func (s *pipelineService) Wait() {
	s.wg.Wait()
}

// spawn runs fn on a background task detached from the request context.
func (s *pipelineService) spawn(fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// process performs the OCR stage and hands off to evaluation.
func (s *pipelineService) process(ctx context.Context, submission models.Submission) {
	ctx, span := s.tracer.Start(ctx, "pipeline.process", trace.WithAttributes(
		attribute.Int("submission.id", int(submission.ID)),
	))
	defer span.End()

	generation := submission.OCRGeneration
	fileType := ocr.DetectFileType(submission.FileRefs[0])
	span.SetAttributes(attribute.String("submission.file_type", fileType))

	result, err := s.extractor.ExtractFromFiles(ctx, submission.FileRefs, fileType)
	if err != nil {
		s.fail(ctx, submission.ID, generation, "ocr", "Text extraction failed: "+err.Error())
		span.RecordError(err)
		return
	}

	if err := s.submissions.StoreOCRResult(ctx, submission.ID, result.Text, result.Confidence); err != nil {
		s.fail(ctx, submission.ID, generation, "persistence", "Failed to store transcript: "+err.Error())
		span.RecordError(err)
		return
	}
	s.transition(ctx, submission.ID, models.SubmissionStatusOCRComplete, generation, "")

	s.evaluate(ctx, submission, result.Text, generation)
}

// evaluate runs the pre-check gate and the AI evaluation for one generation
// of the OCR text. Terminal writes are conditional on that generation, so a
// run made stale by an OCR edit silently loses.
func (s *pipelineService) evaluate(ctx context.Context, submission models.Submission, text string, generation int) {
	ctx, span := s.tracer.Start(ctx, "pipeline.evaluate", trace.WithAttributes(
		attribute.Int("submission.id", int(submission.ID)),
		attribute.Int("submission.ocr_generation", generation),
	))
	defer span.End()

	assignment := submission.Assignment

	check, err := s.prechecker.Check(ctx, ai.PreCheckInput{
		EssayText:     text,
		Prompt:        assignment.Prompt,
		EssayType:     assignment.EssayType,
		GuidingPoints: assignment.GuidingPoints,
		SubmissionID:  submission.ID,
	})
	if err != nil {
		s.fail(ctx, submission.ID, generation, "precheck", "Pre-evaluation check failed: "+err.Error())
		span.RecordError(err)
		return
	}
	if !check.Passed {
		s.fail(ctx, submission.ID, generation, "precheck", strings.Join(check.Issues, " "))
		return
	}

	if err := s.submissions.MarkEvaluating(ctx, submission.ID); err != nil {
		s.fail(ctx, submission.ID, generation, "persistence", "Failed to mark submission as evaluating: "+err.Error())
		span.RecordError(err)
		return
	}
	s.transition(ctx, submission.ID, models.SubmissionStatusEvaluating, generation, "")

	result, err := s.evaluator.Evaluate(ctx, ai.EvaluationInput{
		EssayText:     text,
		EssayType:     assignment.EssayType,
		EssaySubType:  assignment.EssaySubType,
		Prompt:        assignment.Prompt,
		GuidingPoints: assignment.GuidingPoints,
		Level:         assignment.Level,
	})
	if err != nil {
		s.fail(ctx, submission.ID, generation, "evaluation", "Evaluation failed: "+err.Error())
		span.RecordError(err)
		return
	}

	scores := make(map[string]interface{}, len(result.DimensionScores))
	for dimension, score := range result.DimensionScores {
		scores[dimension] = score
	}

	evaluation := models.Evaluation{
		SubmissionID:      submission.ID,
		OCRGeneration:     generation,
		EssayType:         assignment.EssayType,
		DimensionScores:   scores,
		TotalScore:        result.TotalScore,
		Band:              result.Band,
		Strengths:         result.Strengths,
		Weaknesses:        result.Weaknesses,
		NextSteps:         result.NextSteps,
		Confidence:        result.Confidence,
		ReviewRecommended: result.ReviewRecommended,
		RubricVersion:     result.RubricVersion,
		ModelID:           result.ModelID,
		PromptVersion:     result.PromptVersion,
	}
	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		s.fail(ctx, submission.ID, generation, "evaluation", "Failed to persist evaluation: "+err.Error())
		span.RecordError(err)
		return
	}

	current, err := s.submissions.CompleteEvaluation(ctx, submission.ID, generation)
	if err != nil {
		s.fail(ctx, submission.ID, generation, "persistence", "Failed to finish evaluation: "+err.Error())
		span.RecordError(err)
		return
	}
	if !current {
		s.logger.Info().Uint("submission_id", submission.ID).Int("generation", generation).Msg("evaluation superseded by newer ocr text")
		span.SetStatus(codes.Ok, "superseded")
		return
	}

	s.transition(ctx, submission.ID, models.SubmissionStatusEvaluated, generation, "")
	span.SetStatus(codes.Ok, "evaluated")
}

// fail records a terminal failure unless the run has been superseded.
func (s *pipelineService) fail(ctx context.Context, id uint, generation int, stage, reason string) {
	observability.PipelineFailures().WithLabelValues(stage).Inc()

	current, err := s.submissions.Fail(ctx, id, generation, reason)
	if err != nil {
		s.logger.Error().Err(err).Uint("submission_id", id).Msg("failed to record pipeline failure")
		return
	}
	if !current {
		s.logger.Info().Uint("submission_id", id).Int("generation", generation).Str("stage", stage).Msg("stale run failure discarded")
		return
	}

	s.logger.Warn().Uint("submission_id", id).Str("stage", stage).Str("reason", reason).Msg("pipeline run failed")
	s.transition(ctx, id, models.SubmissionStatusFailed, generation, reason)
}

func (s *pipelineService) transition(ctx context.Context, id uint, status string, generation int, reason string) {
	observability.PipelineTransitions().WithLabelValues(status).Inc()

	event := events.StatusEvent{
		SubmissionID:  id,
		Status:        status,
		OCRGeneration: generation,
		FailureReason: reason,
	}
	if err := s.publisher.PublishStatus(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", id).Str("status", status).Msg("failed to publish status event")
	}
}
