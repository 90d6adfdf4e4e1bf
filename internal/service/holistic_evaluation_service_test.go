package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/models"
	"github.com/noah-isme/gema-lingua-api/pkg/ai"
)

type memoryHolisticRepo struct {
	items     []models.HolisticEvaluation
	createErr error
}

func (m *memoryHolisticRepo) AttemptExists(ctx context.Context, userID, taskID uint, attemptNumber int) (bool, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.TaskID == taskID && item.AttemptNumber == attemptNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryHolisticRepo) Create(ctx context.Context, evaluation *models.HolisticEvaluation) error {
	if m.createErr != nil {
		return m.createErr
	}
	evaluation.ID = uint(len(m.items) + 1)
	evaluation.CreatedAt = time.Now()
	m.items = append(m.items, *evaluation)
	return nil
}

type dimensionJudge struct {
	judgment ai.Judgment
	err      error
	last     ai.JudgeRequest
}

func (d *dimensionJudge) Provider() string { return "dimension" }

func (d *dimensionJudge) Judge(ctx context.Context, req ai.JudgeRequest) (ai.Judgment, error) {
	d.last = req
	return d.judgment, d.err
}

func writingRequest(attempt int) dto.HolisticEvaluationRequest {
	return dto.HolisticEvaluationRequest{
		UserID:        4,
		TaskID:        8,
		AttemptNumber: attempt,
		Skill:         models.SkillWriting,
		ResponseText:  "<p>Last summer I visited my grandparents in Bandung.</p>",
		Prompt:        "Write about a trip.",
	}
}

func TestHolisticEvaluationScoresDimensions(t *testing.T) {
	repo := &memoryHolisticRepo{}
	judge := &dimensionJudge{judgment: ai.Judgment{
		Feedback: "Clear and <i>well organised</i>.",
		DimensionScores: map[string]float64{
			"task_achievement": 8,
			"coherence":        7,
			"vocabulary":       12,
			"grammar":          6.5,
		},
	}}
	events := &recordingPublisher{}
	svc := NewHolisticEvaluationService(repo, judge, time.Second, events, validator.New(), zerolog.Nop())

	resp, err := svc.Evaluate(context.Background(), writingRequest(1))
	require.NoError(t, err)
	require.Equal(t, ai.KindWriting, judge.last.Kind)
	require.Equal(t, []string{"task_achievement", "coherence", "vocabulary", "grammar"}, judge.last.Dimensions)
	require.Equal(t, "Last summer I visited my grandparents in Bandung.", judge.last.UserAnswer)

	require.Equal(t, 10.0, resp.DimensionScores["vocabulary"])
	require.Equal(t, 7.88, resp.OverallScore)
	require.Equal(t, HolisticMaxScore, resp.MaxScore)
	require.Equal(t, "Clear and well organised.", resp.Feedback)
	require.Equal(t, "dimension", resp.Provider)
	require.False(t, resp.RequiresManualReview)

	require.Len(t, repo.items, 1)
	require.Len(t, events.events, 1)
	require.Equal(t, ScoreEventHolistic, events.events[0].Kind)
}

func TestHolisticEvaluationRejectsDuplicateAttempt(t *testing.T) {
	repo := &memoryHolisticRepo{}
	judge := &dimensionJudge{judgment: ai.Judgment{DimensionScores: map[string]float64{
		"task_achievement": 5, "coherence": 5, "vocabulary": 5, "grammar": 5,
	}}}
	svc := NewHolisticEvaluationService(repo, judge, time.Second, nil, validator.New(), zerolog.Nop())

	_, err := svc.Evaluate(context.Background(), writingRequest(1))
	require.NoError(t, err)

	_, err = svc.Evaluate(context.Background(), writingRequest(1))
	require.ErrorIs(t, err, ErrDuplicateAttempt)
	require.Len(t, repo.items, 1)

	_, err = svc.Evaluate(context.Background(), writingRequest(2))
	require.NoError(t, err)
	require.Len(t, repo.items, 2)
}

func TestHolisticEvaluationJudgeFailureNeedsManualReview(t *testing.T) {
	repo := &memoryHolisticRepo{}
	judge := &dimensionJudge{err: &ai.ErrJudgeUnavailable{Provider: "dimension", Err: errors.New("quota")}}
	svc := NewHolisticEvaluationService(repo, judge, time.Second, nil, validator.New(), zerolog.Nop())

	req := writingRequest(1)
	req.Skill = models.SkillSpeaking

	resp, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	require.True(t, resp.RequiresManualReview)
	require.Zero(t, resp.OverallScore)
	require.Len(t, resp.DimensionScores, 4)
	require.Contains(t, resp.DimensionScores, "pronunciation")
	require.Len(t, repo.items, 1)
}

func TestHolisticEvaluationMissingDimensionNeedsManualReview(t *testing.T) {
	repo := &memoryHolisticRepo{}
	judge := &dimensionJudge{judgment: ai.Judgment{DimensionScores: map[string]float64{"grammar": 9}}}
	svc := NewHolisticEvaluationService(repo, judge, time.Second, nil, validator.New(), zerolog.Nop())

	resp, err := svc.Evaluate(context.Background(), writingRequest(1))
	require.NoError(t, err)
	require.True(t, resp.RequiresManualReview)
	require.Zero(t, resp.DimensionScores["grammar"])
}

func TestHolisticEvaluationWithoutJudge(t *testing.T) {
	repo := &memoryHolisticRepo{}
	svc := NewHolisticEvaluationService(repo, nil, time.Second, nil, validator.New(), zerolog.Nop())

	resp, err := svc.Evaluate(context.Background(), writingRequest(1))
	require.NoError(t, err)
	require.True(t, resp.RequiresManualReview)
	require.Empty(t, resp.Provider)
}

func TestHolisticEvaluationValidatesSkill(t *testing.T) {
	svc := NewHolisticEvaluationService(&memoryHolisticRepo{}, nil, time.Second, nil, validator.New(), zerolog.Nop())

	req := writingRequest(1)
	req.Skill = "listening"
	_, err := svc.Evaluate(context.Background(), req)
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
}

func TestHolisticEvaluationSurfacesPersistenceFailure(t *testing.T) {
	repo := &memoryHolisticRepo{createErr: errors.New("read only")}
	svc := NewHolisticEvaluationService(repo, nil, time.Second, nil, validator.New(), zerolog.Nop())

	_, err := svc.Evaluate(context.Background(), writingRequest(1))
	require.ErrorIs(t, err, ErrScorePersistence)
}
