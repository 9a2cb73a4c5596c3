package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository is a saved snapshot of one GitHub analysis result. The analysis
// blob is stored as-is; nothing re-fetches or refreshes it.
type Repository struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	URL         string `gorm:"not null"`
	Name        string
	Description string
	Language    string
	Stars       int
	Analysis    datatypes.JSON
}
