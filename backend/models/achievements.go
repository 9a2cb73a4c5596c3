package models

import (
	"time"

	"gorm.io/gorm"
)

// Achievement requirement types.
const (
	RequirementLessonsCompleted = "lessons_completed"
	RequirementStreakDays       = "streak_days"
	RequirementTotalXP          = "total_xp"
	RequirementLevel            = "level"
	RequirementPathsCompleted   = "paths_completed"
)

// Achievement is static reference data seeded at startup.
type Achievement struct {
	gorm.Model
	Title           string `gorm:"not null;uniqueIndex"`
	Description     string
	Icon            string
	XPReward        int    `gorm:"default:0"`
	RequirementType string `gorm:"not null"`
	Threshold       int    `gorm:"not null"`
}

type UserAchievement struct {
	gorm.Model
	UserID        uint `gorm:"uniqueIndex:idx_user_achievement;not null"`
	AchievementID uint `gorm:"uniqueIndex:idx_user_achievement;not null"`
	UnlockedAt    time.Time
}
