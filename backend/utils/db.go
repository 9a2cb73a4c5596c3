package utils

import (
	"fmt"
	"project/backend/config"
	"project/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := SeedAchievements(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProgress{},
		&models.LoginHistory{},
		&models.LearningPath{},
		&models.Lesson{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.LessonProgress{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Repository{},
	)
}

// SeedAchievements inserts the static achievement catalog. Existing titles
// are left untouched so reruns are safe.
func SeedAchievements(db *gorm.DB) error {
	achievements := []models.Achievement{
		{Title: "First Steps", Description: "Complete your first lesson", Icon: "footprints", XPReward: 10, RequirementType: models.RequirementLessonsCompleted, Threshold: 1},
		{Title: "Getting Serious", Description: "Complete 10 lessons", Icon: "books", XPReward: 50, RequirementType: models.RequirementLessonsCompleted, Threshold: 10},
		{Title: "Scholar", Description: "Complete 50 lessons", Icon: "graduation-cap", XPReward: 200, RequirementType: models.RequirementLessonsCompleted, Threshold: 50},
		{Title: "On a Roll", Description: "Keep a 3 day streak", Icon: "fire", XPReward: 15, RequirementType: models.RequirementStreakDays, Threshold: 3},
		{Title: "Unstoppable", Description: "Keep a 30 day streak", Icon: "rocket", XPReward: 150, RequirementType: models.RequirementStreakDays, Threshold: 30},
		{Title: "Century", Description: "Earn 100 XP", Icon: "medal", XPReward: 20, RequirementType: models.RequirementTotalXP, Threshold: 100},
		{Title: "High Achiever", Description: "Earn 1000 XP", Icon: "trophy", XPReward: 100, RequirementType: models.RequirementTotalXP, Threshold: 1000},
		{Title: "Level 5", Description: "Reach level 5", Icon: "star", XPReward: 50, RequirementType: models.RequirementLevel, Threshold: 5},
		{Title: "Pathfinder", Description: "Finish a learning path", Icon: "map", XPReward: 100, RequirementType: models.RequirementPathsCompleted, Threshold: 1},
	}

	for _, a := range achievements {
		var existing models.Achievement
		if err := db.Where("title = ?", a.Title).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&a).Error; err != nil {
			return err
		}
	}

	return nil
}
