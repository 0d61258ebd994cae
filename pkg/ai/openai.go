package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "writeright",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI requests",
	}, []string{"operation", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "writeright",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of AI request failures",
	}, []string{"operation", "model"})
)

// Config defines configuration options for the OpenAI-backed clients.
type Config struct {
	APIKey          string
	PrimaryModel    string
	EvaluationModel string
	FastModel       string
	VisionModel     string
	Logger          zerolog.Logger
}

// Client wraps the OpenAI API for every AI concern of the pipeline: vision
// OCR, pre-evaluation checks, evaluation and rewriting. It is constructed
// once at process start and injected wherever needed.
type Client struct {
	api    *openai.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewClient builds a shared OpenAI client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = openai.GPT4o
	}
	if cfg.EvaluationModel == "" {
		cfg.EvaluationModel = openai.GPT4o
	}
	if cfg.FastModel == "" {
		cfg.FastModel = openai.GPT4oMini
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = openai.GPT4o
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		api:    openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/writeright/essay-api/pkg/ai"),
		logger: logger.With().Str("component", "ai_client").Logger(),
	}, nil
}

type chatOptions struct {
	operation   string
	model       string
	maxTokens   int
	temperature float32
	jsonMode    bool
}

// chatCompletion performs one system+user chat exchange and returns the raw
// assistant content.
func (c *Client) chatCompletion(parent context.Context, systemPrompt, userPrompt string, opts chatOptions) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai."+opts.operation, trace.WithAttributes(
		attribute.String("model", opts.model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       opts.model,
		MaxTokens:   opts.maxTokens,
		Temperature: opts.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if opts.jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return c.send(ctx, span, request, opts)
}

// visionCompletion sends one or more base64 data URLs plus an instruction to
// the vision model.
func (c *Client) visionCompletion(parent context.Context, systemPrompt string, dataURLs []string, userPrompt string, opts chatOptions) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai."+opts.operation, trace.WithAttributes(
		attribute.String("model", opts.model),
		attribute.Int("images", len(dataURLs)),
	))
	defer span.End()

	parts := make([]openai.ChatMessagePart, 0, len(dataURLs)+1)
	for _, url := range dataURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    url,
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: userPrompt,
	})

	request := openai.ChatCompletionRequest{
		Model:     opts.model,
		MaxTokens: opts.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}

	return c.send(ctx, span, request, opts)
}

func (c *Client) send(ctx context.Context, span trace.Span, request openai.ChatCompletionRequest, opts chatOptions) (string, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(opts.operation, opts.model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(opts.operation, opts.model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai %s: %w", opts.operation, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(opts.operation, opts.model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func formatGuidingPoints(points []string) string {
	if len(points) == 0 {
		return ""
	}
	return "\nGuiding points: " + strings.Join(points, "; ")
}
