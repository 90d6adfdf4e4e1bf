package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AnthropicConfig configures the Anthropic judge.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// AnthropicJudge implements Judge using the Anthropic messages API.
type AnthropicJudge struct {
	client *anthropic.Client
	cfg    AnthropicConfig
	tracer trace.Tracer
}

// NewAnthropicJudge constructs a new judge.
func NewAnthropicJudge(cfg AnthropicConfig) (*AnthropicJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	return &AnthropicJudge{
		client: &client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-lingua-api/pkg/ai/anthropic"),
	}, nil
}

// Provider reports the provider name.
func (j *AnthropicJudge) Provider() string { return "anthropic" }

// Judge sends the grading request to Anthropic and parses the response.
func (j *AnthropicJudge) Judge(parent context.Context, input JudgeRequest) (Judgment, error) {
	ctx, span := j.tracer.Start(parent, "anthropic.judge", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
		attribute.String("judge.kind", input.Kind),
	))
	defer span.End()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(j.cfg.Model),
		MaxTokens: int64(j.cfg.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: judgeSystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(buildJudgePrompt(input)),
				},
			},
		},
	}

	start := time.Now()
	msg, err := j.client.Messages.New(ctx, params)
	judgeDuration.WithLabelValues(j.Provider(), j.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Judgment{}, j.fail(span, &ErrJudgeUnavailable{Provider: j.Provider(), Err: err})
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return Judgment{}, j.fail(span, &ErrInvalidResponse{Err: fmt.Errorf("no text content in anthropic response")})
	}

	result, err := ParseJudgment(text)
	if err != nil {
		return Judgment{}, j.fail(span, err)
	}

	result.Raw = map[string]interface{}{
		"model":         string(msg.Model),
		"input_tokens":  msg.Usage.InputTokens,
		"output_tokens": msg.Usage.OutputTokens,
	}
	return result, nil
}

func (j *AnthropicJudge) fail(span trace.Span, err error) error {
	judgeFailures.WithLabelValues(j.Provider(), j.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
