package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	gorm.Model
	LessonID      uint           `gorm:"index;not null"`
	Question      string         `gorm:"not null"`
	Options       datatypes.JSON // ordered array of option strings
	CorrectAnswer int
	Explanation   string
	XPReward      int `gorm:"default:0"`
}

// QuizAttempt is append-only history. Correct is computed server-side
// against Quiz.CorrectAnswer, never taken from the request body.
type QuizAttempt struct {
	gorm.Model
	UserID      uint `gorm:"index;not null"`
	QuizID      uint `gorm:"index;not null"`
	Answer      int
	Correct     bool
	SubmittedAt time.Time
}
