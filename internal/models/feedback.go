package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is one saved analysis in a user's history.
type Feedback struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    string          `gorm:"type:text;not null;index:idx_feedback_user_created,priority:1" json:"userId"`
	JobTitle  string          `gorm:"type:text" json:"jobTitle,omitempty"`
	Company   string          `gorm:"type:text" json:"company,omitempty"`
	Analysis  *AnalysisResult `gorm:"type:jsonb;serializer:json;not null" json:"analysis"`
	CreatedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_feedback_user_created,priority:2,sort:desc" json:"createdAt"`
}

func (Feedback) TableName() string {
	return "feedback"
}

type SaveFeedbackRequest struct {
	JobTitle string          `json:"jobTitle"`
	Company  string          `json:"company"`
	Analysis *AnalysisResult `json:"analysis"`
}

type UserProfile struct {
	UserID      string    `gorm:"type:text;primary_key" json:"userId"`
	Email       string    `gorm:"type:text" json:"email,omitempty"`
	DisplayName string    `gorm:"type:text" json:"displayName,omitempty"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

type UpdateProfileRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"displayName"`
}
