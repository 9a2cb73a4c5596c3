package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:user"` // user, admin
}

// UserProgress holds the running totals for one user. Level is always
// recomputed from TotalXP when XP changes, never updated on its own.
type UserProgress struct {
	gorm.Model
	UserID     uint `gorm:"uniqueIndex;not null"`
	TotalXP    int  `gorm:"default:0"`
	Level      int  `gorm:"default:1"`
	StreakDays int  `gorm:"default:0"`
	LastActive time.Time
}

type LoginHistory struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	LoginTime time.Time
}
