package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/observability"
	"github.com/noah-isme/gema-lingua-api/internal/planner"
)

// QuizPlanService produces quiz layouts whose points add up exactly to the requested total.
type QuizPlanService interface {
	Plan(ctx context.Context, req dto.QuizPlanRequest) (dto.QuizPlanResponse, error)
}

type quizPlanService struct {
	planner   *planner.Planner
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewQuizPlanService constructs the planning service. cache may be nil.
func NewQuizPlanService(p *planner.Planner, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) QuizPlanService {
	return &quizPlanService{
		planner:   p,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "quiz_plan_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-lingua-api/internal/service/quizplan"),
	}
}

func (s *quizPlanService) Plan(ctx context.Context, req dto.QuizPlanRequest) (dto.QuizPlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizPlanResponse{}, err
	}

	level := strings.ToUpper(strings.TrimSpace(req.Level))
	ctx, span := s.tracer.Start(ctx, "quizplan.plan", trace.WithAttributes(
		attribute.Int("quizplan.total_points", req.TotalPoints),
		attribute.String("quizplan.level", level),
		attribute.StringSlice("quizplan.types", req.QuestionTypes),
	))
	defer span.End()

	types := normalizePlanTypes(req.QuestionTypes)
	cacheKey := fmt.Sprintf("quizplan:%s:%d:%s", level, req.TotalPoints, strings.Join(types, ","))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var plan dto.QuizPlan
			if unmarshalErr := json.Unmarshal([]byte(cached), &plan); unmarshalErr == nil {
				observability.QuizPlans().WithLabelValues(level, "cache_hit").Inc()
				return dto.QuizPlanResponse{Plan: plan, CacheHit: true}, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read quiz plan cache")
		}
	}

	result, err := s.planner.Plan(planner.Request{
		TargetPoints: req.TotalPoints,
		AllowedTypes: types,
		Level:        req.Level,
	})
	if err != nil {
		span.RecordError(err)
		observability.QuizPlans().WithLabelValues(levelLabel(req.Level), "rejected").Inc()
		if errors.Is(err, planner.ErrPlanInexact) {
			s.logger.Error().Err(err).Int("total_points", req.TotalPoints).Str("level", level).Msg("quiz plan failed exactness check")
		}
		return dto.QuizPlanResponse{}, err
	}

	plan := toQuizPlanDTO(result)
	observability.QuizPlans().WithLabelValues(string(result.Level), "planned").Inc()

	if s.cache != nil {
		if payload, err := json.Marshal(plan); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store quiz plan cache")
			}
		}
	}

	return dto.QuizPlanResponse{Plan: plan}, nil
}

func levelLabel(raw string) string {
	if level, ok := planner.ParseLevel(raw); ok {
		return string(level)
	}
	return "unknown"
}

// normalizePlanTypes sorts and deduplicates the requested types so a plan depends only on the type set.
func normalizePlanTypes(types []string) []string {
	normalized := make([]string, 0, len(types))
	seen := make(map[string]struct{}, len(types))
	for _, typ := range types {
		key := strings.ToLower(strings.TrimSpace(typ))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	sort.Strings(normalized)
	return normalized
}

func toQuizPlanDTO(plan planner.Plan) dto.QuizPlan {
	questions := make([]dto.PlannedQuestion, 0, len(plan.Questions))
	for _, question := range plan.Questions {
		questions = append(questions, dto.PlannedQuestion{
			QuestionNumber: question.QuestionNumber,
			Type:           question.Type,
			Points:         question.Points,
			Rationale:      question.Rationale,
			PairsCount:     question.PairsCount,
		})
	}

	return dto.QuizPlan{
		TotalPoints:            plan.TotalPoints,
		Level:                  string(plan.Level),
		EstimatedQuestionCount: plan.EstimatedCount,
		Questions:              questions,
		PointDistribution:      plan.PointDistribution,
		Validation: dto.PlanValidation{
			ComputedTotal: plan.Validation.ComputedTotal,
			TargetTotal:   plan.Validation.TargetTotal,
			PointsMatch:   plan.Validation.PointsMatch,
		},
	}
}
