package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lingua-api/internal/models"
)

// QuestionRepository reads authored questions for scoring.
type QuestionRepository interface {
	ListByTask(ctx context.Context, taskID uint) ([]models.Question, error)
	GetForTask(ctx context.Context, questionID, taskID uint) (models.Question, error)
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

type questionRepository struct {
	db *gorm.DB
}

func (r *questionRepository) ListByTask(ctx context.Context, taskID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("question_number ASC").
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetForTask returns gorm.ErrRecordNotFound when the question does not exist or belongs to another task.
func (r *questionRepository) GetForTask(ctx context.Context, questionID, taskID uint) (models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", questionID, taskID).
		First(&question).Error
	if err != nil {
		return models.Question{}, err
	}
	return question, nil
}
