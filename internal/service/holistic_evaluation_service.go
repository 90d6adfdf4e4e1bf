package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/models"
	"github.com/noah-isme/gema-lingua-api/internal/observability"
	"github.com/noah-isme/gema-lingua-api/internal/repository"
	"github.com/noah-isme/gema-lingua-api/internal/scoring"
	"github.com/noah-isme/gema-lingua-api/pkg/ai"
)

// ErrDuplicateAttempt indicates the attempt has already been evaluated.
var ErrDuplicateAttempt = errors.New("attempt already evaluated")

// HolisticMaxScore is the ceiling of each dimension and of the overall score.
const HolisticMaxScore = 10.0

var holisticDimensions = map[string][]string{
	models.SkillWriting:  {"task_achievement", "coherence", "vocabulary", "grammar"},
	models.SkillSpeaking: {"fluency", "pronunciation", "vocabulary", "grammar"},
}

// HolisticEvaluationService grades speaking transcripts and writing on several dimensions.
type HolisticEvaluationService interface {
	Evaluate(ctx context.Context, req dto.HolisticEvaluationRequest) (dto.HolisticEvaluationResponse, error)
}

type holisticEvaluationService struct {
	store     repository.HolisticRepository
	judge     ai.Judge
	timeout   time.Duration
	events    ScoreEventPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewHolisticEvaluationService constructs the service. A nil judge sends every response to manual review.
func NewHolisticEvaluationService(store repository.HolisticRepository, judge ai.Judge, timeout time.Duration, events ScoreEventPublisher, validate *validator.Validate, logger zerolog.Logger) HolisticEvaluationService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if events == nil {
		events = noopScoreEventPublisher{}
	}

	return &holisticEvaluationService{
		store:     store,
		judge:     judge,
		timeout:   timeout,
		events:    events,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "holistic_evaluation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-lingua-api/internal/service/holistic"),
	}
}

// Evaluate rejects a repeated (user, task, attempt) with ErrDuplicateAttempt. The check and the
// insert are separate statements, so two concurrent requests for the same attempt may both pass.
func (s *holisticEvaluationService) Evaluate(ctx context.Context, req dto.HolisticEvaluationRequest) (dto.HolisticEvaluationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.HolisticEvaluationResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scoring.holistic", trace.WithAttributes(
		attribute.Int64("scoring.task_id", int64(req.TaskID)),
		attribute.Int("scoring.attempt_number", req.AttemptNumber),
		attribute.String("scoring.skill", req.Skill),
	))
	defer span.End()

	exists, err := s.store.AttemptExists(ctx, req.UserID, req.TaskID, req.AttemptNumber)
	if err != nil {
		span.RecordError(err)
		return dto.HolisticEvaluationResponse{}, err
	}
	if exists {
		return dto.HolisticEvaluationResponse{}, ErrDuplicateAttempt
	}

	response := strings.TrimSpace(s.sanitizer.Sanitize(req.ResponseText))
	dimensions := holisticDimensions[req.Skill]

	evaluation := models.HolisticEvaluation{
		UserID:          req.UserID,
		TaskID:          req.TaskID,
		AttemptNumber:   req.AttemptNumber,
		Skill:           req.Skill,
		ResponseText:    response,
		MaxScore:        HolisticMaxScore,
		DimensionScores: datatypes.JSONMap{},
	}

	judgment, reason := s.judgeResponse(ctx, req, response, dimensions)
	if reason != "" {
		observability.JudgeFallbacks().WithLabelValues(req.Skill, reason).Inc()
		evaluation.RequiresManualReview = true
		evaluation.Feedback = "Automatic evaluation is unavailable; a teacher will review this response."
		for _, dimension := range dimensions {
			evaluation.DimensionScores[dimension] = 0.0
		}
	} else {
		total := 0.0
		for _, dimension := range dimensions {
			score := scoring.Round2(clampScore(judgment.DimensionScores[dimension]))
			evaluation.DimensionScores[dimension] = score
			total += score
		}
		evaluation.OverallScore = scoring.Round2(total / float64(len(dimensions)))
		evaluation.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(judgment.Feedback))
		evaluation.Provider = s.judge.Provider()
	}

	if err := s.store.Create(ctx, &evaluation); err != nil {
		span.RecordError(err)
		observability.ScorePersistFailures().WithLabelValues("holistic").Inc()
		s.logger.Error().Err(err).Uint("user_id", req.UserID).Uint("task_id", req.TaskID).Msg("failed to store holistic evaluation")
		return dto.HolisticEvaluationResponse{}, fmt.Errorf("%w: %v", ErrScorePersistence, err)
	}

	s.events.PublishScoreRecorded(ctx, ScoreRecordedEvent{
		Kind:                 ScoreEventHolistic,
		UserID:               evaluation.UserID,
		TaskID:               evaluation.TaskID,
		AttemptNumber:        evaluation.AttemptNumber,
		PointsEarned:         evaluation.OverallScore,
		MaxPoints:            evaluation.MaxScore,
		RequiresManualReview: evaluation.RequiresManualReview,
		RecordedAt:           evaluation.CreatedAt,
	})

	return dto.NewHolisticEvaluationResponse(evaluation), nil
}

// judgeResponse returns a non-empty reason when the judge could not produce a usable judgment.
func (s *holisticEvaluationService) judgeResponse(ctx context.Context, req dto.HolisticEvaluationRequest, response string, dimensions []string) (ai.Judgment, string) {
	if s.judge == nil {
		return ai.Judgment{}, "judge_unavailable"
	}

	kind := ai.KindWriting
	if req.Skill == models.SkillSpeaking {
		kind = ai.KindSpeaking
	}

	judgeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	judgment, err := s.judge.Judge(judgeCtx, ai.JudgeRequest{
		Kind:       kind,
		Question:   strings.TrimSpace(s.sanitizer.Sanitize(req.Prompt)),
		UserAnswer: response,
		MaxPoints:  HolisticMaxScore,
		Dimensions: dimensions,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("task_id", req.TaskID).Str("skill", req.Skill).Msg("holistic judge failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return ai.Judgment{}, "timeout"
		}
		return ai.Judgment{}, "judge_error"
	}

	for _, dimension := range dimensions {
		if _, ok := judgment.DimensionScores[dimension]; !ok {
			s.logger.Warn().Str("dimension", dimension).Str("skill", req.Skill).Msg("holistic judgment missing dimension")
			return ai.Judgment{}, "invalid_response"
		}
	}

	return judgment, ""
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > HolisticMaxScore {
		return HolisticMaxScore
	}
	return v
}
