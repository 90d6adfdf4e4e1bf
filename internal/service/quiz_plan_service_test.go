package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/planner"
)

func TestQuizPlanServiceCachesPlans(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewQuizPlanService(planner.New(nil), redisClient, time.Minute, validator.New(), zerolog.Nop())

	req := dto.QuizPlanRequest{TotalPoints: 10, QuestionTypes: []string{"true_false", "multiple_choice"}, Level: "a1"}
	first, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.True(t, first.Plan.Validation.PointsMatch)
	require.Equal(t, "A1", first.Plan.Level)

	total := 0
	for _, question := range first.Plan.Questions {
		total += question.Points
	}
	require.Equal(t, 10, total)

	// Type order does not change the cache key.
	reordered := dto.QuizPlanRequest{TotalPoints: 10, QuestionTypes: []string{"multiple_choice", "true_false"}, Level: "A1"}
	second, err := svc.Plan(context.Background(), reordered)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Plan.TotalPoints, second.Plan.TotalPoints)
	require.Len(t, second.Plan.Questions, len(first.Plan.Questions))

	require.True(t, mr.Exists("quizplan:A1:10:multiple_choice,true_false"))
}

func TestQuizPlanServiceWithoutCache(t *testing.T) {
	svc := NewQuizPlanService(planner.New(nil), nil, time.Minute, validator.New(), zerolog.Nop())

	resp, err := svc.Plan(context.Background(), dto.QuizPlanRequest{TotalPoints: 12, QuestionTypes: []string{"matching"}, Level: "B1"})
	require.NoError(t, err)
	require.Equal(t, 12, resp.Plan.Validation.ComputedTotal)
	for _, question := range resp.Plan.Questions {
		require.Equal(t, question.Points, question.PairsCount)
	}
}

func TestQuizPlanServiceRejectsIneligibleTypes(t *testing.T) {
	svc := NewQuizPlanService(planner.New(nil), nil, time.Minute, validator.New(), zerolog.Nop())

	_, err := svc.Plan(context.Background(), dto.QuizPlanRequest{TotalPoints: 12, QuestionTypes: []string{"essay"}, Level: "A1"})
	require.ErrorIs(t, err, planner.ErrNoEligibleTypes)

	_, err = svc.Plan(context.Background(), dto.QuizPlanRequest{TotalPoints: 12, QuestionTypes: []string{"essay"}, Level: "Z9"})
	require.ErrorIs(t, err, planner.ErrUnknownLevel)
}

func TestQuizPlanServiceValidatesRequest(t *testing.T) {
	svc := NewQuizPlanService(planner.New(nil), nil, time.Minute, validator.New(), zerolog.Nop())

	_, err := svc.Plan(context.Background(), dto.QuizPlanRequest{TotalPoints: 0, QuestionTypes: []string{"essay"}, Level: "A1"})
	require.Error(t, err)

	_, err = svc.Plan(context.Background(), dto.QuizPlanRequest{TotalPoints: 5, Level: "A1"})
	require.Error(t, err)
}
