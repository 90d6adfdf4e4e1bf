package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreResult is the persisted outcome of scoring one answer. Rows are append-only; resubmitting
// the same attempt inserts another row.
type ScoreResult struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         uint              `gorm:"not null;index:idx_score_attempt" json:"user_id"`
	TaskID         uint              `gorm:"not null;index:idx_score_attempt" json:"task_id"`
	AttemptNumber  int               `gorm:"not null;index:idx_score_attempt" json:"attempt_number"`
	QuestionID     uint              `gorm:"not null;index" json:"question_id"`
	QuestionNumber int               `json:"question_number"`
	IsCorrect      bool              `json:"is_correct"`
	PointsEarned   float64           `json:"points_earned"`
	MaxPoints      float64           `json:"max_points"`
	EvaluationData datatypes.JSONMap `json:"evaluation_data"`
	CreatedAt      time.Time         `json:"created_at"`
}

// HolisticEvaluation is the persisted multi-dimension judgment of a speaking or writing response.
type HolisticEvaluation struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	UserID               uint              `gorm:"not null;index:idx_holistic_attempt" json:"user_id"`
	TaskID               uint              `gorm:"not null;index:idx_holistic_attempt" json:"task_id"`
	AttemptNumber        int               `gorm:"not null;index:idx_holistic_attempt" json:"attempt_number"`
	Skill                string            `gorm:"size:16;not null" json:"skill"`
	ResponseText         string            `gorm:"type:text" json:"response_text"`
	OverallScore         float64           `json:"overall_score"`
	MaxScore             float64           `json:"max_score"`
	DimensionScores      datatypes.JSONMap `json:"dimension_scores"`
	Feedback             string            `gorm:"type:text" json:"feedback"`
	Provider             string            `gorm:"size:32" json:"provider"`
	RequiresManualReview bool              `json:"requires_manual_review"`
	CreatedAt            time.Time         `json:"created_at"`
}

const (
	// SkillSpeaking marks a transcribed spoken response.
	SkillSpeaking = "speaking"
	// SkillWriting marks a written response.
	SkillWriting = "writing"
)
