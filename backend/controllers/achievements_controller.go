package controllers

import (
	"project/backend/config"
	"project/backend/middleware"
	"project/backend/models"
	"project/backend/services"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AchievementsController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Progression *services.ProgressionService
}

func NewAchievementsController(db *gorm.DB, cfg *config.Config) *AchievementsController {
	return &AchievementsController{DB: db, Cfg: cfg, Progression: services.NewProgressionService(db)}
}

func (ac *AchievementsController) ListAchievements(c *fiber.Ctx) error {
	var achievements []models.Achievement
	if err := ac.DB.Order("threshold ASC").Find(&achievements).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{"achievements": achievements})
}

// ListUserAchievements returns the caller's unlocked achievements joined
// with the catalog entries.
func (ac *AchievementsController) ListUserAchievements(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	var unlocked []models.UserAchievement
	if err := ac.DB.Where("user_id = ?", userID).Order("unlocked_at ASC").Find(&unlocked).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(unlocked))
	for _, ua := range unlocked {
		var a models.Achievement
		if err := ac.DB.First(&a, ua.AchievementID).Error; err != nil {
			continue
		}
		result = append(result, fiber.Map{
			"id":          a.ID,
			"title":       a.Title,
			"description": a.Description,
			"icon":        a.Icon,
			"xp_reward":   a.XPReward,
			"unlocked_at": ua.UnlockedAt,
		})
	}

	return c.JSON(fiber.Map{"achievements": result})
}

// Recheck re-runs achievement evaluation for the caller. Safe to call any
// number of times; unlocks are never revoked.
func (ac *AchievementsController) Recheck(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	var newly []models.Achievement
	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		newly, err = ac.Progression.EvaluateAchievements(tx, userID)
		return err
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not evaluate achievements")
	}

	return c.JSON(fiber.Map{"unlocked": newly})
}
