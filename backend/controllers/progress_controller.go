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

type ProgressController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Progression *services.ProgressionService
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Progression: services.NewProgressionService(db)}
}

// ListProgress returns the caller's lesson progress rows.
func (pc *ProgressController) ListProgress(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)
	limit, offset := listParams(c)

	query := pc.DB.Model(&models.LessonProgress{}).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var rows []models.LessonProgress
	if err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, rows, total, limit, offset)
}

// GetUserProgress godoc
// @Summary Get progression totals
// @Description Returns the caller's XP, level, streak and aggregate stats
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/progress [get]
func (pc *ProgressController) GetUserProgress(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	stats, err := pc.Progression.Stats(pc.DB, userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var progress models.UserProgress
	pc.DB.Where("user_id = ?", userID).First(&progress)

	return c.JSON(fiber.Map{
		"total_xp":          stats.TotalXP,
		"level":             stats.Level,
		"streak_days":       stats.StreakDays,
		"lessons_completed": stats.LessonsCompleted,
		"paths_completed":   stats.PathsCompleted,
		"last_active":       progress.LastActive,
	})
}
