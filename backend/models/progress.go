package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// LessonProgress keeps at most one row per (user, lesson); the composite
// unique index backs the no-double-credit guarantee on lesson completion.
type LessonProgress struct {
	gorm.Model
	UserID      uint   `gorm:"uniqueIndex:idx_user_lesson;not null"`
	LessonID    uint   `gorm:"uniqueIndex:idx_user_lesson;not null"`
	Status      string `gorm:"default:not_started"`
	StartedAt   *time.Time
	CompletedAt *time.Time
}
