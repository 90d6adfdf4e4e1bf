package models

import (
	"time"

	"gorm.io/datatypes"
)

// Task groups the questions a learner answers in one sitting.
type Task struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Level     string     `gorm:"size:8" json:"level"`
	Skill     string     `gorm:"size:32" json:"skill"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Questions []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// Question is an authored question as stored. Body keeps the historical free-form encoding;
// it is classified into a typed variant when loaded for scoring.
type Question struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	TaskID         uint              `gorm:"not null;index" json:"task_id"`
	QuestionNumber int               `gorm:"not null" json:"question_number"`
	QuestionType   string            `gorm:"size:64;not null" json:"question_type"`
	Points         float64           `gorm:"not null" json:"points"`
	Body           datatypes.JSONMap `json:"body"`
	CorrectAnswer  datatypes.JSON    `json:"correct_answer"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
