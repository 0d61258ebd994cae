package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/config"
	"github.com/writeright/essay-api/internal/dto"
	"github.com/writeright/essay-api/internal/handler"
	"github.com/writeright/essay-api/internal/models"
	"github.com/writeright/essay-api/internal/ocr"
	"github.com/writeright/essay-api/internal/repository"
	"github.com/writeright/essay-api/internal/router"
	"github.com/writeright/essay-api/internal/service"
	"github.com/writeright/essay-api/pkg/ai"
)

type pipelineTestExtractor struct {
	result ocr.Result
}

func (e *pipelineTestExtractor) ExtractFromFiles(context.Context, []string, string) (ocr.Result, error) {
	return e.result, nil
}

type pipelineTestPreChecker struct{}

func (pipelineTestPreChecker) Check(context.Context, ai.PreCheckInput) (ai.PreCheckResult, error) {
	return ai.PreCheckResult{Passed: true, Language: "English", IsEnglish: true, TopicAlignmentScore: 0.8}, nil
}

type pipelineTestEvaluator struct{}

func (pipelineTestEvaluator) Evaluate(context.Context, ai.EvaluationInput) (ai.EvaluationResult, error) {
	return ai.EvaluationResult{
		DimensionScores: map[string]float64{"content": 7, "language": 6},
		TotalScore:      13,
		Band:            "B2",
		Strengths:       []string{"Clear argument"},
		Confidence:      0.9,
		RubricVersion:   "sec-english-2024.2",
		ModelID:         "test-model",
		PromptVersion:   "eval-v3",
	}, nil
}

type pipelineTestRewriter struct{}

func (pipelineTestRewriter) Rewrite(_ context.Context, input ai.RewriteInput) (ai.RewriteResult, error) {
	return ai.RewriteResult{
		Text:      input.EssayText + " The evening sun dipped below the rooftops.",
		Rationale: map[string]string{"structure": "Added a closing image."},
	}, nil
}

func setupSubmissionApp(t *testing.T) (*fiber.App, *gorm.DB, service.PipelineService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Assignment{},
		&models.Submission{},
		&models.Evaluation{},
		&models.Rewrite{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	rewriteRepo := repository.NewRewriteRepository(db)

	extractor := &pipelineTestExtractor{result: ocr.Result{Text: "The cat sat on the mat.", Confidence: 0.95}}

	assignmentService := service.NewAssignmentService(assignmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, evaluationRepo, nil, 0, validate, logger)
	pipelineService := service.NewPipelineService(submissionRepo, evaluationRepo, rewriteRepo, extractor, pipelineTestPreChecker{}, pipelineTestEvaluator{}, nil, logger)
	rewriteService := service.NewRewriteService(submissionRepo, evaluationRepo, rewriteRepo, pipelineTestRewriter{}, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, pipelineService, logger),
		RewriteHandler:    handler.NewRewriteHandler(rewriteService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			return c.Next()
		},
	})

	return app, db, pipelineService
}

func jsonRequest(t *testing.T, app *fiber.App, method, path string, payload interface{}) map[string]json.RawMessage {
	t.Helper()
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(raw, &out))
	out["__status"] = json.RawMessage(strconv.Itoa(resp.StatusCode))
	return out
}

func TestSubmissionLifecycle(t *testing.T) {
	app, _, pipeline := setupSubmissionApp(t)

	// Create the writing task.
	created := jsonRequest(t, app, "POST", "/api/v1/assignments", map[string]interface{}{
		"title":      "Describe a memorable day",
		"prompt":     "Write about a day you will never forget and explain why.",
		"essay_type": "continuous",
		"level":      "sec-3",
	})
	require.Equal(t, strconv.Itoa(fiber.StatusCreated), string(created["__status"]))

	var assignment dto.AssignmentResponse
	require.NoError(t, json.Unmarshal(created["data"], &assignment))
	require.NotZero(t, assignment.ID)

	// Create a draft submission referencing uploaded files.
	createdSub := jsonRequest(t, app, "POST", "/api/v1/submissions", map[string]interface{}{
		"assignment_id": assignment.ID,
		"file_refs":     []string{"https://cdn.test/page1.jpg"},
	})
	require.Equal(t, strconv.Itoa(fiber.StatusCreated), string(createdSub["__status"]))

	var submission dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(createdSub["data"], &submission))
	require.Equal(t, models.SubmissionStatusDraft, submission.Status)

	submissionPath := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10)

	// Finalize starts the pipeline.
	finalized := jsonRequest(t, app, "POST", submissionPath+"/finalize", nil)
	require.Equal(t, strconv.Itoa(fiber.StatusAccepted), string(finalized["__status"]))

	// A second finalize loses the conditional update.
	conflict := jsonRequest(t, app, "POST", submissionPath+"/finalize", nil)
	require.Equal(t, strconv.Itoa(fiber.StatusConflict), string(conflict["__status"]))

	pipeline.Wait()

	// The submission is evaluated and carries the latest evaluation.
	fetched := jsonRequest(t, app, "GET", submissionPath, nil)
	require.Equal(t, strconv.Itoa(fiber.StatusOK), string(fetched["__status"]))
	require.NoError(t, json.Unmarshal(fetched["data"], &submission))
	require.Equal(t, models.SubmissionStatusEvaluated, submission.Status)
	require.NotNil(t, submission.Evaluation)
	require.Equal(t, "B2", submission.Evaluation.Band)

	// The transcript is readable and editable.
	ocrResp := jsonRequest(t, app, "GET", submissionPath+"/ocr-text", nil)
	require.Equal(t, strconv.Itoa(fiber.StatusOK), string(ocrResp["__status"]))

	var ocrText dto.OCRTextResponse
	require.NoError(t, json.Unmarshal(ocrResp["data"], &ocrText))
	require.Equal(t, "The cat sat on the mat.", ocrText.Text)

	updated := jsonRequest(t, app, "PUT", submissionPath+"/ocr-text", map[string]interface{}{
		"text": "The cat sat on the warm mat.",
	})
	require.Equal(t, strconv.Itoa(fiber.StatusOK), string(updated["__status"]))
	require.NoError(t, json.Unmarshal(updated["data"], &ocrText))
	require.True(t, ocrText.ReEvaluating)
	require.Contains(t, string(updated["data"]), `"reEvaluating":true`)

	pipeline.Wait()

	// Rewrites are generated from the evaluated submission.
	rewriteResp := jsonRequest(t, app, "POST", submissionPath+"/rewrites", map[string]interface{}{
		"mode": "exam_optimised",
	})
	require.Equal(t, strconv.Itoa(fiber.StatusCreated), string(rewriteResp["__status"]))

	var rewrite dto.RewriteResponse
	require.NoError(t, json.Unmarshal(rewriteResp["data"], &rewrite))
	require.Equal(t, "exam_optimised", rewrite.Mode)
	require.NotEmpty(t, rewrite.Diff)

	listResp := jsonRequest(t, app, "GET", submissionPath+"/rewrites", nil)
	require.Equal(t, strconv.Itoa(fiber.StatusOK), string(listResp["__status"]))

	var rewrites []dto.RewriteResponse
	require.NoError(t, json.Unmarshal(listResp["data"], &rewrites))
	require.Len(t, rewrites, 1)

	// Both scoring runs stay on record: the original and the post-edit one.
	historyResp := jsonRequest(t, app, "GET", submissionPath+"/evaluations", nil)
	require.Equal(t, strconv.Itoa(fiber.StatusOK), string(historyResp["__status"]))

	var history []dto.EvaluationResponse
	require.NoError(t, json.Unmarshal(historyResp["data"], &history))
	require.Len(t, history, 2)
}

func TestSubmissionHandlerNotFound(t *testing.T) {
	app, _, _ := setupSubmissionApp(t)

	resp := jsonRequest(t, app, "GET", "/api/v1/submissions/999", nil)
	require.Equal(t, strconv.Itoa(fiber.StatusNotFound), string(resp["__status"]))
}

func TestSubmissionHandlerRejectsUnknownAssignment(t *testing.T) {
	app, _, _ := setupSubmissionApp(t)

	resp := jsonRequest(t, app, "POST", "/api/v1/submissions", map[string]interface{}{
		"assignment_id": 404,
		"file_refs":     []string{"https://cdn.test/page1.jpg"},
	})
	require.Equal(t, strconv.Itoa(fiber.StatusNotFound), string(resp["__status"]))
}
