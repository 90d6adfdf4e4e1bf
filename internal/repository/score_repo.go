package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lingua-api/internal/models"
)

// ScoreFilter narrows score history queries. Zero values match everything.
type ScoreFilter struct {
	TaskID        uint
	UserID        uint
	AttemptNumber int
}

// ScoreRepository persists per-question score results.
type ScoreRepository interface {
	Create(ctx context.Context, result *models.ScoreResult) error
	List(ctx context.Context, filter ScoreFilter) ([]models.ScoreResult, error)
}

// NewScoreRepository constructs a score repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

type scoreRepository struct {
	db *gorm.DB
}

func (r *scoreRepository) Create(ctx context.Context, result *models.ScoreResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *scoreRepository) List(ctx context.Context, filter ScoreFilter) ([]models.ScoreResult, error) {
	query := r.db.WithContext(ctx).Model(&models.ScoreResult{})
	if filter.TaskID != 0 {
		query = query.Where("task_id = ?", filter.TaskID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.AttemptNumber != 0 {
		query = query.Where("attempt_number = ?", filter.AttemptNumber)
	}

	var results []models.ScoreResult
	if err := query.Order("created_at DESC").Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// HolisticRepository persists holistic speaking and writing evaluations.
type HolisticRepository interface {
	AttemptExists(ctx context.Context, userID, taskID uint, attemptNumber int) (bool, error)
	Create(ctx context.Context, evaluation *models.HolisticEvaluation) error
}

// NewHolisticRepository constructs a holistic evaluation repository.
func NewHolisticRepository(db *gorm.DB) HolisticRepository {
	return &holisticRepository{db: db}
}

type holisticRepository struct {
	db *gorm.DB
}

func (r *holisticRepository) AttemptExists(ctx context.Context, userID, taskID uint, attemptNumber int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.HolisticEvaluation{}).
		Where("user_id = ? AND task_id = ? AND attempt_number = ?", userID, taskID, attemptNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *holisticRepository) Create(ctx context.Context, evaluation *models.HolisticEvaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}
