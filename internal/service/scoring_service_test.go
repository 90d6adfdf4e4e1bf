package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lingua-api/internal/dto"
	"github.com/noah-isme/gema-lingua-api/internal/models"
	"github.com/noah-isme/gema-lingua-api/internal/repository"
	"github.com/noah-isme/gema-lingua-api/internal/scoring"
	"github.com/noah-isme/gema-lingua-api/pkg/ai"
)

type countingJudge struct {
	judgment ai.Judgment
	calls    int
}

func (c *countingJudge) Provider() string { return "counting" }

func (c *countingJudge) Judge(ctx context.Context, req ai.JudgeRequest) (ai.Judgment, error) {
	c.calls++
	return c.judgment, nil
}

type failingScoreRepo struct {
	attempts int
}

func (f *failingScoreRepo) Create(ctx context.Context, result *models.ScoreResult) error {
	f.attempts++
	return errors.New("disk full")
}

func (f *failingScoreRepo) List(ctx context.Context, filter repository.ScoreFilter) ([]models.ScoreResult, error) {
	return nil, nil
}

type recordingPublisher struct {
	events []ScoreRecordedEvent
}

func (r *recordingPublisher) PublishScoreRecorded(ctx context.Context, event ScoreRecordedEvent) {
	r.events = append(r.events, event)
}

type scoringFixture struct {
	db        *gorm.DB
	task      models.Task
	questions map[string]models.Question
}

func setupScoringFixture(t *testing.T) scoringFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}, &models.Question{}, &models.ScoreResult{}, &models.HolisticEvaluation{}))

	task := models.Task{Title: "Daily routines", Level: "A2"}
	require.NoError(t, db.Create(&task).Error)

	questions := map[string]models.Question{
		"choice": {
			TaskID: task.ID, QuestionNumber: 1, QuestionType: "multiple_choice", Points: 1,
			Body: datatypes.JSONMap{"question": "She ___ at seven.", "options": []interface{}{"wake up", "wakes up"}, "correct_answer": "wakes up"},
		},
		"matching": {
			TaskID: task.ID, QuestionNumber: 2, QuestionType: "matching", Points: 3,
			Body:          datatypes.JSONMap{"question": "Match the times"},
			CorrectAnswer: datatypes.JSON(`{"a":"1","b":"2","c":"3"}`),
		},
		"checkbox": {
			TaskID: task.ID, QuestionNumber: 3, QuestionType: "checkbox", Points: 2,
			Body: datatypes.JSONMap{"question": "Pick the verbs", "options": []interface{}{"a", "b", "c"}, "correct_answer": []interface{}{"b", "c"}},
		},
		"essay": {
			TaskID: task.ID, QuestionNumber: 4, QuestionType: "essay", Points: 4,
			Body: datatypes.JSONMap{"question": "Describe your morning.", "min_words": 10},
		},
	}
	for key, question := range questions {
		q := question
		require.NoError(t, db.Create(&q).Error)
		questions[key] = q
	}

	return scoringFixture{db: db, task: task, questions: questions}
}

func newTestScoringService(fixture scoringFixture, scores repository.ScoreRepository, judge ai.Judge, events ScoreEventPublisher) ScoringService {
	engine := scoring.NewEngine(scoring.NewSubjectiveEvaluator(judge, scoring.SubjectiveConfig{}, zerolog.Nop()))
	if scores == nil {
		scores = repository.NewScoreRepository(fixture.db)
	}
	return NewScoringService(repository.NewQuestionRepository(fixture.db), scores, engine, events, validator.New(), zerolog.Nop())
}

func TestScoringServiceScoreAnswerPersistsResult(t *testing.T) {
	fixture := setupScoringFixture(t)
	events := &recordingPublisher{}
	svc := newTestScoringService(fixture, nil, nil, events)

	matching := fixture.questions["matching"]
	resp, err := svc.ScoreAnswer(context.Background(), dto.ScoreAnswerRequest{
		UserID:        42,
		TaskID:        fixture.task.ID,
		QuestionID:    matching.ID,
		UserAnswer:    map[string]interface{}{"a": "1", "b": "9", "c": "3"},
		AttemptNumber: 1,
	})
	require.NoError(t, err)
	require.Equal(t, matching.ID, resp.QuestionID)
	require.Equal(t, 2, resp.QuestionNumber)
	require.False(t, resp.IsCorrect)
	require.Equal(t, 2.0, resp.PointsEarned)
	require.Equal(t, 3.0, resp.MaxPoints)
	require.Equal(t, "pair_match", resp.EvaluationData["method"])

	var stored []models.ScoreResult
	require.NoError(t, fixture.db.Find(&stored).Error)
	require.Len(t, stored, 1)
	require.Equal(t, uint(42), stored[0].UserID)
	require.Equal(t, 1, stored[0].AttemptNumber)

	require.Len(t, events.events, 1)
	require.Equal(t, ScoreEventQuestion, events.events[0].Kind)
	require.Equal(t, 2.0, events.events[0].PointsEarned)
}

func TestScoringServiceScoreAnswerAllowsResubmission(t *testing.T) {
	fixture := setupScoringFixture(t)
	svc := newTestScoringService(fixture, nil, nil, nil)

	req := dto.ScoreAnswerRequest{UserID: 1, TaskID: fixture.task.ID, QuestionID: fixture.questions["choice"].ID, UserAnswer: "wakes up", AttemptNumber: 1}
	_, err := svc.ScoreAnswer(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.ScoreAnswer(context.Background(), req)
	require.NoError(t, err)

	var count int64
	require.NoError(t, fixture.db.Model(&models.ScoreResult{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestScoringServiceScoreAnswerNotFound(t *testing.T) {
	fixture := setupScoringFixture(t)
	svc := newTestScoringService(fixture, nil, nil, nil)

	_, err := svc.ScoreAnswer(context.Background(), dto.ScoreAnswerRequest{UserID: 1, TaskID: fixture.task.ID, QuestionID: 9999, UserAnswer: "x", AttemptNumber: 1})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	// A question from the right id but the wrong task is also not found.
	_, err = svc.ScoreAnswer(context.Background(), dto.ScoreAnswerRequest{UserID: 1, TaskID: fixture.task.ID + 1, QuestionID: fixture.questions["choice"].ID, UserAnswer: "x", AttemptNumber: 1})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	var count int64
	require.NoError(t, fixture.db.Model(&models.ScoreResult{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestScoringServiceScoreAnswerSurfacesPersistenceFailure(t *testing.T) {
	fixture := setupScoringFixture(t)
	events := &recordingPublisher{}
	svc := newTestScoringService(fixture, &failingScoreRepo{}, nil, events)

	_, err := svc.ScoreAnswer(context.Background(), dto.ScoreAnswerRequest{UserID: 1, TaskID: fixture.task.ID, QuestionID: fixture.questions["choice"].ID, UserAnswer: "wakes up", AttemptNumber: 1})
	require.ErrorIs(t, err, ErrScorePersistence)
	require.Empty(t, events.events)
}

func TestScoringServiceScoreAnswerValidatesInput(t *testing.T) {
	fixture := setupScoringFixture(t)
	svc := newTestScoringService(fixture, nil, nil, nil)

	_, err := svc.ScoreAnswer(context.Background(), dto.ScoreAnswerRequest{UserID: 1, TaskID: fixture.task.ID, QuestionID: 1, AttemptNumber: 0})
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
}

func TestScoringServiceScoreBatchSkipsMissingQuestions(t *testing.T) {
	fixture := setupScoringFixture(t)
	svc := newTestScoringService(fixture, nil, nil, nil)

	resp, err := svc.ScoreBatch(context.Background(), dto.ScoreBatchRequest{
		UserID:        7,
		TaskID:        fixture.task.ID,
		AttemptNumber: 2,
		Answers: []dto.BatchAnswer{
			{QuestionID: fixture.questions["choice"].ID, UserAnswer: "Wakes Up"},
			{QuestionID: 9999, UserAnswer: "lost"},
			{QuestionID: fixture.questions["matching"].ID, UserAnswer: map[string]interface{}{"a": "1", "b": "9", "c": "3"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	require.Equal(t, []uint{9999}, resp.Summary.SkippedQuestionIDs)
	require.Equal(t, 4, resp.Summary.TotalQuestions)
	require.Equal(t, 2, resp.Summary.AnsweredQuestions)
	require.Equal(t, 3.0, resp.Summary.TotalPointsEarned)
	// Unanswered questions still count: 1 + 3 + 2 + 4.
	require.Equal(t, 10.0, resp.Summary.TotalPointsPossible)
	require.Equal(t, 30.0, resp.Summary.PercentageScore)
	require.False(t, resp.Summary.Incomplete)

	var stored []models.ScoreResult
	require.NoError(t, fixture.db.Where("attempt_number = ?", 2).Find(&stored).Error)
	require.Len(t, stored, 2)
}

func TestScoringServiceScoreBatchContinuesAfterPersistenceFailure(t *testing.T) {
	fixture := setupScoringFixture(t)
	repo := &failingScoreRepo{}
	svc := newTestScoringService(fixture, repo, nil, nil)

	resp, err := svc.ScoreBatch(context.Background(), dto.ScoreBatchRequest{
		UserID:        7,
		TaskID:        fixture.task.ID,
		AttemptNumber: 1,
		Answers: []dto.BatchAnswer{
			{QuestionID: fixture.questions["choice"].ID, UserAnswer: "wakes up"},
			{QuestionID: fixture.questions["checkbox"].ID, UserAnswer: []interface{}{"c", "B"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, repo.attempts)
	require.Len(t, resp.Results, 2)
	require.Equal(t, 3.0, resp.Summary.TotalPointsEarned)
	require.Equal(t, 30.0, resp.Summary.PercentageScore)
}

type cancellingPublisher struct {
	cancel context.CancelFunc
	events int
}

func (c *cancellingPublisher) PublishScoreRecorded(ctx context.Context, event ScoreRecordedEvent) {
	c.events++
	c.cancel()
}

func TestScoringServiceScoreBatchStopsWhenCancelled(t *testing.T) {
	fixture := setupScoringFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	publisher := &cancellingPublisher{cancel: cancel}
	svc := newTestScoringService(fixture, nil, nil, publisher)

	resp, err := svc.ScoreBatch(ctx, dto.ScoreBatchRequest{
		UserID:        7,
		TaskID:        fixture.task.ID,
		AttemptNumber: 1,
		Answers: []dto.BatchAnswer{
			{QuestionID: fixture.questions["choice"].ID, UserAnswer: "wakes up"},
			{QuestionID: fixture.questions["checkbox"].ID, UserAnswer: []interface{}{"b", "c"}},
		},
	})
	require.NoError(t, err)
	require.True(t, resp.Summary.Incomplete)
	require.Len(t, resp.Results, 1)
	require.Equal(t, 1, publisher.events)
	require.Equal(t, 10.0, resp.Summary.TotalPointsPossible)
	require.Equal(t, 10.0, resp.Summary.PercentageScore)

	// The answer scored before the interruption stays stored.
	var count int64
	require.NoError(t, fixture.db.Model(&models.ScoreResult{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestScoringServiceScoreBatchShortEssaySkipsJudge(t *testing.T) {
	fixture := setupScoringFixture(t)
	judge := &countingJudge{judgment: ai.Judgment{IsCorrect: true, PointsEarned: 4}}
	svc := newTestScoringService(fixture, nil, judge, nil)

	resp, err := svc.ScoreBatch(context.Background(), dto.ScoreBatchRequest{
		UserID:        3,
		TaskID:        fixture.task.ID,
		AttemptNumber: 1,
		Answers:       []dto.BatchAnswer{{QuestionID: fixture.questions["essay"].ID, UserAnswer: "I wake up early."}},
	})
	require.NoError(t, err)
	require.Zero(t, judge.calls)
	require.Len(t, resp.Results, 1)
	require.Zero(t, resp.Results[0].PointsEarned)
}

func TestScoringServiceScoreBatchScoresEachQuestionOnce(t *testing.T) {
	fixture := setupScoringFixture(t)
	svc := newTestScoringService(fixture, nil, nil, nil)
	matchingID := fixture.questions["matching"].ID
	full := map[string]interface{}{"a": "1", "b": "2", "c": "3"}

	resp, err := svc.ScoreBatch(context.Background(), dto.ScoreBatchRequest{
		UserID:        7,
		TaskID:        fixture.task.ID,
		AttemptNumber: 1,
		Answers: []dto.BatchAnswer{
			{QuestionID: matchingID, UserAnswer: full},
			{QuestionID: matchingID, UserAnswer: full},
			{QuestionID: matchingID, UserAnswer: full},
			{QuestionID: matchingID, UserAnswer: full},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, 1, resp.Summary.AnsweredQuestions)
	require.Equal(t, []uint{matchingID, matchingID, matchingID}, resp.Summary.SkippedQuestionIDs)
	require.Equal(t, 3.0, resp.Summary.TotalPointsEarned)
	require.Equal(t, 10.0, resp.Summary.TotalPointsPossible)
	require.Equal(t, 30.0, resp.Summary.PercentageScore)

	var count int64
	require.NoError(t, fixture.db.Model(&models.ScoreResult{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestScoringServiceScoreBatchIgnoresCorruptPointsInTotal(t *testing.T) {
	fixture := setupScoringFixture(t)
	corrupt := models.Question{
		TaskID: fixture.task.ID, QuestionNumber: 5, QuestionType: "multiple_choice", Points: -6,
		Body: datatypes.JSONMap{"question": "Broken", "options": []interface{}{"a"}, "correct_answer": "a"},
	}
	require.NoError(t, fixture.db.Create(&corrupt).Error)
	svc := newTestScoringService(fixture, nil, nil, nil)

	resp, err := svc.ScoreBatch(context.Background(), dto.ScoreBatchRequest{
		UserID:        7,
		TaskID:        fixture.task.ID,
		AttemptNumber: 1,
		Answers: []dto.BatchAnswer{
			{QuestionID: fixture.questions["choice"].ID, UserAnswer: "wakes up"},
			{QuestionID: corrupt.ID, UserAnswer: "a"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 5, resp.Summary.TotalQuestions)
	require.Equal(t, 10.0, resp.Summary.TotalPointsPossible)
	require.Equal(t, []uint{corrupt.ID}, resp.Summary.SkippedQuestionIDs)
	require.Equal(t, 10.0, resp.Summary.PercentageScore)
}

func TestScoringServiceParsesStoredNumbers(t *testing.T) {
	fixture := setupScoringFixture(t)
	numeric := models.Question{
		TaskID: fixture.task.ID, QuestionNumber: 6, QuestionType: "multiple_choice", Points: 1,
		Body: datatypes.JSONMap{"question": "2 + 2?", "options": []interface{}{3, 4, 5}, "correct_answer": 4},
	}
	require.NoError(t, fixture.db.Create(&numeric).Error)

	repo := repository.NewQuestionRepository(fixture.db)
	essay, err := repo.GetForTask(context.Background(), fixture.questions["essay"].ID, fixture.task.ID)
	require.NoError(t, err)
	parsedEssay, err := parseQuestion(essay)
	require.NoError(t, err)
	require.Equal(t, 10, parsedEssay.Essay.MinWords)

	stored, err := repo.GetForTask(context.Background(), numeric.ID, fixture.task.ID)
	require.NoError(t, err)
	parsed, err := parseQuestion(stored)
	require.NoError(t, err)
	require.Equal(t, scoring.ShapeOptionList, parsed.Shape())

	svc := newTestScoringService(fixture, nil, nil, nil)
	result, err := svc.ScoreAnswer(context.Background(), dto.ScoreAnswerRequest{
		UserID: 7, TaskID: fixture.task.ID, QuestionID: numeric.ID, AttemptNumber: 1, UserAnswer: 4.0,
	})
	require.NoError(t, err)
	require.True(t, result.IsCorrect)
}

func TestScoringServiceScoreBatchUnknownTask(t *testing.T) {
	fixture := setupScoringFixture(t)
	svc := newTestScoringService(fixture, nil, nil, nil)

	_, err := svc.ScoreBatch(context.Background(), dto.ScoreBatchRequest{
		UserID:        3,
		TaskID:        fixture.task.ID + 100,
		AttemptNumber: 1,
		Answers:       []dto.BatchAnswer{{QuestionID: 1, UserAnswer: "x"}},
	})
	require.ErrorIs(t, err, ErrTaskHasNoQuestions)
}

func TestScoringServiceListResults(t *testing.T) {
	fixture := setupScoringFixture(t)
	svc := newTestScoringService(fixture, nil, nil, nil)
	ctx := context.Background()

	for _, attempt := range []int{1, 2} {
		_, err := svc.ScoreAnswer(ctx, dto.ScoreAnswerRequest{UserID: 5, TaskID: fixture.task.ID, QuestionID: fixture.questions["choice"].ID, UserAnswer: "wake up", AttemptNumber: attempt})
		require.NoError(t, err)
	}

	items, err := svc.ListResults(ctx, fixture.task.ID, dto.ScoreHistoryQuery{UserID: 5, AttemptNumber: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].AttemptNumber)
	require.False(t, items[0].IsCorrect)

	all, err := svc.ListResults(ctx, fixture.task.ID, dto.ScoreHistoryQuery{UserID: 5})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
