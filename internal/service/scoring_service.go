package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/models"
	"github.com/noah-isme/gema-lingua-api/internal/observability"
	"github.com/noah-isme/gema-lingua-api/internal/repository"
	"github.com/noah-isme/gema-lingua-api/internal/scoring"
)

// ScoringService scores submitted answers and stores the results.
type ScoringService interface {
	ScoreAnswer(ctx context.Context, req dto.ScoreAnswerRequest) (dto.ScoreResultResponse, error)
	ScoreBatch(ctx context.Context, req dto.ScoreBatchRequest) (dto.ScoreBatchResponse, error)
	ListResults(ctx context.Context, taskID uint, query dto.ScoreHistoryQuery) ([]dto.ScoreHistoryItem, error)
}

var (
	// ErrQuestionNotFound indicates the question does not exist in the given task.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrTaskHasNoQuestions indicates the task has nothing to score against.
	ErrTaskHasNoQuestions = errors.New("task has no questions")
	// ErrInvalidQuestion indicates a stored question cannot be scored.
	ErrInvalidQuestion = errors.New("question is not scorable")
	// ErrScorePersistence indicates a computed score could not be stored.
	ErrScorePersistence = errors.New("failed to store score result")
)

type scoringService struct {
	questions repository.QuestionRepository
	scores    repository.ScoreRepository
	engine    *scoring.Engine
	events    ScoreEventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewScoringService constructs the scoring orchestrator. events may be nil.
func NewScoringService(questions repository.QuestionRepository, scores repository.ScoreRepository, engine *scoring.Engine, events ScoreEventPublisher, validate *validator.Validate, logger zerolog.Logger) ScoringService {
	if events == nil {
		events = noopScoreEventPublisher{}
	}

	return &scoringService{
		questions: questions,
		scores:    scores,
		engine:    engine,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "scoring_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-lingua-api/internal/service/scoring"),
	}
}

func (s *scoringService) ScoreAnswer(ctx context.Context, req dto.ScoreAnswerRequest) (dto.ScoreResultResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ScoreResultResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scoring.score_answer", trace.WithAttributes(
		attribute.Int64("scoring.task_id", int64(req.TaskID)),
		attribute.Int64("scoring.question_id", int64(req.QuestionID)),
		attribute.Int("scoring.attempt_number", req.AttemptNumber),
	))
	defer span.End()

	stored, err := s.questions.GetForTask(ctx, req.QuestionID, req.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreResultResponse{}, ErrQuestionNotFound
		}
		span.RecordError(err)
		return dto.ScoreResultResponse{}, err
	}

	question, err := parseQuestion(stored)
	if err != nil {
		return dto.ScoreResultResponse{}, err
	}

	result := s.engine.Evaluate(ctx, question, req.UserAnswer)
	record := newScoreRecord(req.UserID, req.TaskID, req.AttemptNumber, question, result)

	if err := s.scores.Create(ctx, &record); err != nil {
		span.RecordError(err)
		observability.ScorePersistFailures().WithLabelValues("single").Inc()
		s.logger.Error().Err(err).Uint("question_id", question.ID).Uint("user_id", req.UserID).Msg("failed to store score result")
		return dto.ScoreResultResponse{}, fmt.Errorf("%w: %v", ErrScorePersistence, err)
	}

	s.events.PublishScoreRecorded(ctx, questionEvent(record, result))
	return dto.NewScoreResultResponse(record), nil
}

func (s *scoringService) ScoreBatch(ctx context.Context, req dto.ScoreBatchRequest) (dto.ScoreBatchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ScoreBatchResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scoring.score_batch", trace.WithAttributes(
		attribute.Int64("scoring.task_id", int64(req.TaskID)),
		attribute.Int("scoring.answers", len(req.Answers)),
	))
	defer span.End()

	stored, err := s.questions.ListByTask(ctx, req.TaskID)
	if err != nil {
		span.RecordError(err)
		return dto.ScoreBatchResponse{}, err
	}
	if len(stored) == 0 {
		return dto.ScoreBatchResponse{}, ErrTaskHasNoQuestions
	}

	summary := dto.BatchSummary{TotalQuestions: len(stored)}
	byID := make(map[uint]scoring.Question, len(stored))
	for _, item := range stored {
		question, err := parseQuestion(item)
		if err != nil {
			// Unscorable rows stay out of the denominator so a corrupt point value cannot skew it.
			s.logger.Warn().Err(err).Uint("question_id", item.ID).Msg("stored question cannot be scored")
			continue
		}
		summary.TotalPointsPossible += question.Points
		byID[question.ID] = question
	}

	results := make([]dto.ScoreResultResponse, 0, len(req.Answers))
	scored := make(map[uint]struct{}, len(req.Answers))
	for _, answer := range req.Answers {
		if ctx.Err() != nil {
			summary.Incomplete = true
			s.logger.Warn().Err(ctx.Err()).Uint("task_id", req.TaskID).Int("scored", len(results)).Msg("batch scoring interrupted")
			break
		}

		question, ok := byID[answer.QuestionID]
		if !ok {
			summary.SkippedQuestionIDs = append(summary.SkippedQuestionIDs, answer.QuestionID)
			s.logger.Warn().Uint("task_id", req.TaskID).Uint("question_id", answer.QuestionID).Msg("question not found in task, skipping answer")
			continue
		}
		if _, seen := scored[question.ID]; seen {
			summary.SkippedQuestionIDs = append(summary.SkippedQuestionIDs, answer.QuestionID)
			s.logger.Warn().Uint("task_id", req.TaskID).Uint("question_id", answer.QuestionID).Msg("duplicate answer in batch, keeping the first")
			continue
		}
		scored[question.ID] = struct{}{}

		result := s.engine.Evaluate(ctx, question, answer.UserAnswer)
		record := newScoreRecord(req.UserID, req.TaskID, req.AttemptNumber, question, result)

		if err := s.scores.Create(ctx, &record); err != nil {
			observability.ScorePersistFailures().WithLabelValues("batch").Inc()
			s.logger.Error().Err(err).Uint("question_id", question.ID).Uint("user_id", req.UserID).Msg("failed to store score result, continuing batch")
		} else {
			s.events.PublishScoreRecorded(ctx, questionEvent(record, result))
		}

		summary.TotalPointsEarned += record.PointsEarned
		results = append(results, dto.NewScoreResultResponse(record))
	}

	summary.AnsweredQuestions = len(results)
	summary.TotalPointsEarned = scoring.Round2(summary.TotalPointsEarned)
	summary.TotalPointsPossible = scoring.Round2(summary.TotalPointsPossible)
	if summary.TotalPointsPossible > 0 {
		summary.PercentageScore = scoring.Round2(summary.TotalPointsEarned / summary.TotalPointsPossible * 100)
	}

	return dto.ScoreBatchResponse{Results: results, Summary: summary}, nil
}

func (s *scoringService) ListResults(ctx context.Context, taskID uint, query dto.ScoreHistoryQuery) ([]dto.ScoreHistoryItem, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	results, err := s.scores.List(ctx, repository.ScoreFilter{
		TaskID:        taskID,
		UserID:        query.UserID,
		AttemptNumber: query.AttemptNumber,
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.ScoreHistoryItem, 0, len(results))
	for _, result := range results {
		items = append(items, dto.NewScoreHistoryItem(result))
	}
	return items, nil
}

// parseQuestion decodes the stored answer and classifies the body once per load.
func parseQuestion(stored models.Question) (scoring.Question, error) {
	var answer interface{}
	if len(stored.CorrectAnswer) > 0 {
		if err := json.Unmarshal(stored.CorrectAnswer, &answer); err != nil {
			return scoring.Question{}, fmt.Errorf("%w: question %d: decode correct answer: %v", ErrInvalidQuestion, stored.ID, err)
		}
	}

	question, err := scoring.Parse(scoring.Record{
		ID:     stored.ID,
		TaskID: stored.TaskID,
		Number: stored.QuestionNumber,
		Type:   stored.QuestionType,
		Points: stored.Points,
		Body:   map[string]interface{}(stored.Body),
		Answer: answer,
	})
	if err != nil {
		return scoring.Question{}, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	return question, nil
}

func newScoreRecord(userID, taskID uint, attempt int, question scoring.Question, result scoring.Result) models.ScoreResult {
	return models.ScoreResult{
		UserID:         userID,
		TaskID:         taskID,
		AttemptNumber:  attempt,
		QuestionID:     question.ID,
		QuestionNumber: question.Number,
		IsCorrect:      result.IsCorrect,
		PointsEarned:   result.PointsEarned,
		MaxPoints:      question.Points,
		EvaluationData: datatypes.JSONMap(result.EvaluationData),
	}
}

func questionEvent(record models.ScoreResult, result scoring.Result) ScoreRecordedEvent {
	return ScoreRecordedEvent{
		Kind:                 ScoreEventQuestion,
		UserID:               record.UserID,
		TaskID:               record.TaskID,
		QuestionID:           record.QuestionID,
		AttemptNumber:        record.AttemptNumber,
		IsCorrect:            record.IsCorrect,
		PointsEarned:         record.PointsEarned,
		MaxPoints:            record.MaxPoints,
		RequiresManualReview: result.RequiresManualReview(),
		RecordedAt:           record.CreatedAt,
	}
}
