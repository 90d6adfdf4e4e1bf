package dto

import (
	"time"

	"github.com/noah-isme/gema-lingua-api/internal/models"
)

// ScoreAnswerRequest scores a single submitted answer.
type ScoreAnswerRequest struct {
	UserID        uint        `json:"user_id" validate:"required"`
	TaskID        uint        `json:"task_id" validate:"required"`
	QuestionID    uint        `json:"question_id" validate:"required"`
	UserAnswer    interface{} `json:"user_answer"`
	AttemptNumber int         `json:"attempt_number" validate:"required,min=1"`
}

// BatchAnswer is one answer inside a batch submission.
type BatchAnswer struct {
	QuestionID uint        `json:"question_id" validate:"required"`
	UserAnswer interface{} `json:"user_answer"`
}

// ScoreBatchRequest scores every answer of one attempt at a task.
type ScoreBatchRequest struct {
	UserID        uint          `json:"user_id" validate:"required"`
	TaskID        uint          `json:"task_id" validate:"required"`
	AttemptNumber int           `json:"attempt_number" validate:"required,min=1"`
	Answers       []BatchAnswer `json:"answers" validate:"required,min=1,dive"`
}

// ScoreResultResponse is the scored outcome of one answer.
type ScoreResultResponse struct {
	QuestionID     uint                   `json:"question_id"`
	QuestionNumber int                    `json:"question_number"`
	IsCorrect      bool                   `json:"is_correct"`
	PointsEarned   float64                `json:"points_earned"`
	EvaluationData map[string]interface{} `json:"evaluation_data"`
	MaxPoints      float64                `json:"max_points"`
}

// BatchSummary aggregates a batch. The possible total counts every question in the task.
type BatchSummary struct {
	TotalQuestions      int     `json:"total_questions"`
	AnsweredQuestions   int     `json:"answered_questions"`
	TotalPointsEarned   float64 `json:"total_points_earned"`
	TotalPointsPossible float64 `json:"total_points_possible"`
	PercentageScore     float64 `json:"percentage_score"`
	SkippedQuestionIDs  []uint  `json:"skipped_question_ids,omitempty"`
	Incomplete          bool    `json:"incomplete,omitempty"`
}

// ScoreBatchResponse wraps batch results with their summary.
type ScoreBatchResponse struct {
	Results []ScoreResultResponse `json:"results"`
	Summary BatchSummary          `json:"summary"`
}

// ScoreHistoryQuery filters persisted results of a task.
type ScoreHistoryQuery struct {
	UserID        uint `query:"user_id"`
	AttemptNumber int  `query:"attempt_number" validate:"omitempty,min=1"`
}

// ScoreHistoryItem is a persisted score result.
type ScoreHistoryItem struct {
	ID            uint `json:"id"`
	UserID        uint `json:"user_id"`
	TaskID        uint `json:"task_id"`
	AttemptNumber int  `json:"attempt_number"`
	ScoreResultResponse
	CreatedAt time.Time `json:"created_at"`
}

// HolisticEvaluationRequest submits a speaking transcript or a piece of writing for a multi-dimension judgment.
type HolisticEvaluationRequest struct {
	UserID        uint   `json:"user_id" validate:"required"`
	TaskID        uint   `json:"task_id" validate:"required"`
	AttemptNumber int    `json:"attempt_number" validate:"required,min=1"`
	Skill         string `json:"skill" validate:"required,oneof=speaking writing"`
	ResponseText  string `json:"response_text" validate:"required"`
	Prompt        string `json:"prompt"`
}

// HolisticEvaluationResponse is the persisted holistic judgment.
type HolisticEvaluationResponse struct {
	ID                   uint               `json:"id"`
	UserID               uint               `json:"user_id"`
	TaskID               uint               `json:"task_id"`
	AttemptNumber        int                `json:"attempt_number"`
	Skill                string             `json:"skill"`
	OverallScore         float64            `json:"overall_score"`
	MaxScore             float64            `json:"max_score"`
	DimensionScores      map[string]float64 `json:"dimension_scores"`
	Feedback             string             `json:"feedback"`
	Provider             string             `json:"provider,omitempty"`
	RequiresManualReview bool               `json:"requires_manual_review"`
	CreatedAt            time.Time          `json:"created_at"`
}

// NewScoreResultResponse builds a response DTO from a stored score result.
func NewScoreResultResponse(result models.ScoreResult) ScoreResultResponse {
	data := map[string]interface{}(result.EvaluationData)
	if data == nil {
		data = map[string]interface{}{}
	}
	return ScoreResultResponse{
		QuestionID:     result.QuestionID,
		QuestionNumber: result.QuestionNumber,
		IsCorrect:      result.IsCorrect,
		PointsEarned:   result.PointsEarned,
		EvaluationData: data,
		MaxPoints:      result.MaxPoints,
	}
}

// NewScoreHistoryItem builds a history entry from a stored score result.
func NewScoreHistoryItem(result models.ScoreResult) ScoreHistoryItem {
	return ScoreHistoryItem{
		ID:                  result.ID,
		UserID:              result.UserID,
		TaskID:              result.TaskID,
		AttemptNumber:       result.AttemptNumber,
		ScoreResultResponse: NewScoreResultResponse(result),
		CreatedAt:           result.CreatedAt,
	}
}

// NewHolisticEvaluationResponse builds a response DTO from a stored holistic evaluation.
func NewHolisticEvaluationResponse(evaluation models.HolisticEvaluation) HolisticEvaluationResponse {
	scores := make(map[string]float64, len(evaluation.DimensionScores))
	for dimension, value := range evaluation.DimensionScores {
		switch v := value.(type) {
		case float64:
			scores[dimension] = v
		case int:
			scores[dimension] = float64(v)
		}
	}

	return HolisticEvaluationResponse{
		ID:                   evaluation.ID,
		UserID:               evaluation.UserID,
		TaskID:               evaluation.TaskID,
		AttemptNumber:        evaluation.AttemptNumber,
		Skill:                evaluation.Skill,
		OverallScore:         evaluation.OverallScore,
		MaxScore:             evaluation.MaxScore,
		DimensionScores:      scores,
		Feedback:             evaluation.Feedback,
		Provider:             evaluation.Provider,
		RequiresManualReview: evaluation.RequiresManualReview,
		CreatedAt:            evaluation.CreatedAt,
	}
}
