package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rezoomai/resume-api/internal/models"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

type FeedbackRepository interface {
	Create(feedback *models.Feedback) error
	FindByUser(userID string, limit int) ([]models.Feedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(feedback *models.Feedback) error {
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	if err := r.db.Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// FindByUser returns the newest entries first. limit is clamped to
// [1, MaxHistoryLimit]; zero or less selects DefaultHistoryLimit.
func (r *feedbackRepository) FindByUser(userID string, limit int) ([]models.Feedback, error) {
	var items []models.Feedback
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(HistoryLimit(limit)).
		Find(&items).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	return items, nil
}

func HistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
