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
	judgeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "judge_duration_seconds",
		Help:      "Duration of AI judge requests",
	}, []string{"provider", "model"})

	judgeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "judge_failures_total",
		Help:      "Number of AI judge failures",
	}, []string{"provider", "model"})
)

// OpenAIConfig defines configuration options for the OpenAI judge.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIJudge implements Judge against the OpenAI chat completion API.
type OpenAIJudge struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIJudge builds a new judge using the provided configuration.
func NewOpenAIJudge(cfg OpenAIConfig) (*OpenAIJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIJudge{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-lingua-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_judge").Logger(),
	}, nil
}

// Provider reports the provider name.
func (j *OpenAIJudge) Provider() string { return "openai" }

// Judge sends the grading request to OpenAI and parses the response.
func (j *OpenAIJudge) Judge(parent context.Context, input JudgeRequest) (Judgment, error) {
	ctx, span := j.tracer.Start(parent, "openai.judge", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
		attribute.String("judge.kind", input.Kind),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       j.cfg.Model,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: judgeSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildJudgePrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := j.client.CreateChatCompletion(ctx, request)
	judgeDuration.WithLabelValues(j.Provider(), j.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Judgment{}, j.fail(span, &ErrJudgeUnavailable{Provider: j.Provider(), Err: err})
	}

	if len(resp.Choices) == 0 {
		return Judgment{}, j.fail(span, &ErrInvalidResponse{Err: fmt.Errorf("no choices returned from openai")})
	}

	result, err := ParseJudgment(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return Judgment{}, j.fail(span, err)
	}

	result.Raw = map[string]interface{}{
		"model": resp.Model,
		"usage": resp.Usage,
	}

	return result, nil
}

func (j *OpenAIJudge) fail(span trace.Span, err error) error {
	judgeFailures.WithLabelValues(j.Provider(), j.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	j.logger.Debug().Err(err).Msg("openai judge request failed")
	return err
}
