package models

import "gorm.io/gorm"

type LearningPath struct {
	gorm.Model
	Title          string `gorm:"not null"`
	Description    string
	Difficulty     string // beginner, intermediate, advanced
	EstimatedHours int
	OrderIndex     int
	Lessons        []Lesson `gorm:"constraint:OnDelete:CASCADE"`
}

type Lesson struct {
	gorm.Model
	LearningPathID   uint `gorm:"index;not null"`
	Title            string
	Content          string
	Difficulty       string
	XPReward         int `gorm:"default:0"`
	OrderIndex       int
	EstimatedMinutes int
	Quizzes          []Quiz `gorm:"constraint:OnDelete:CASCADE"`
}
