package controllers

import (
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PathsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewPathsController(db *gorm.DB, cfg *config.Config) *PathsController {
	return &PathsController{DB: db, Cfg: cfg}
}

// parseID validates a positive integer path parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func listParams(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit", "10"))
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	return utils.ClampLimit(limit), utils.ClampOffset(offset)
}

// ListPaths godoc
// @Summary List learning paths
// @Description Returns paginated learning paths, optionally filtered
// @Tags paths
// @Produce json
// @Param limit query int false "Page size (max 100)" default(10)
// @Param offset query int false "Offset" default(0)
// @Param search query string false "Title search term"
// @Param difficulty query string false "Difficulty filter"
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /paths [get]
func (pc *PathsController) ListPaths(c *fiber.Ctx) error {
	limit, offset := listParams(c)
	search := c.Query("search")
	difficulty := c.Query("difficulty")

	query := pc.DB.Model(&models.LearningPath{})
	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var total int64
	query.Count(&total)

	var paths []models.LearningPath
	if err := query.Order("order_index ASC").Limit(limit).Offset(offset).Find(&paths).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, paths, total, limit, offset)
}

func (pc *PathsController) GetPath(c *fiber.Ctx) error {
	pathID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid path ID")
	}

	var path models.LearningPath
	if err := pc.DB.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&path, pathID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Learning path not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{"path": path})
}

func (pc *PathsController) CreatePath(c *fiber.Ctx) error {
	var input struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		Difficulty     string `json:"difficulty"`
		EstimatedHours int    `json:"estimated_hours"`
		OrderIndex     int    `json:"order_index"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, utils.CodeInvalidInput, "title is required")
	}

	path := models.LearningPath{
		Title:          input.Title,
		Description:    input.Description,
		Difficulty:     input.Difficulty,
		EstimatedHours: input.EstimatedHours,
		OrderIndex:     input.OrderIndex,
	}
	if err := pc.DB.Create(&path).Error; err != nil {
		return utils.InternalServerError(c, "Could not create learning path")
	}

	return c.JSON(fiber.Map{
		"message": "Learning path created",
		"path":    path,
	})
}

func (pc *PathsController) UpdatePath(c *fiber.Ctx) error {
	pathID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid path ID")
	}

	var input struct {
		Title          *string `json:"title"`
		Description    *string `json:"description"`
		Difficulty     *string `json:"difficulty"`
		EstimatedHours *int    `json:"estimated_hours"`
		OrderIndex     *int    `json:"order_index"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}

	var path models.LearningPath
	if err := pc.DB.First(&path, pathID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Learning path not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	// Only fields present in the payload change; an empty payload is a
	// no-op returning the current record.
	if input.Title != nil {
		path.Title = *input.Title
	}
	if input.Description != nil {
		path.Description = *input.Description
	}
	if input.Difficulty != nil {
		path.Difficulty = *input.Difficulty
	}
	if input.EstimatedHours != nil {
		path.EstimatedHours = *input.EstimatedHours
	}
	if input.OrderIndex != nil {
		path.OrderIndex = *input.OrderIndex
	}

	if err := pc.DB.Save(&path).Error; err != nil {
		return utils.InternalServerError(c, "Could not update learning path")
	}

	return c.JSON(fiber.Map{
		"message": "Learning path updated",
		"path":    path,
	})
}

func (pc *PathsController) DeletePath(c *fiber.Ctx) error {
	pathID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid path ID")
	}

	var path models.LearningPath
	if err := pc.DB.First(&path, pathID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Learning path not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	// Lessons and their quizzes go with the path.
	if err := pc.DB.Select("Lessons").Delete(&path).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete learning path")
	}

	return c.JSON(fiber.Map{
		"message": "Learning path deleted",
		"path":    path,
	})
}

func (pc *PathsController) ListLessons(c *fiber.Ctx) error {
	pathID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid path ID")
	}

	var path models.LearningPath
	if err := pc.DB.First(&path, pathID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Learning path not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	limit, offset := listParams(c)

	var total int64
	pc.DB.Model(&models.Lesson{}).Where("learning_path_id = ?", pathID).Count(&total)

	var lessons []models.Lesson
	if err := pc.DB.Where("learning_path_id = ?", pathID).
		Order("order_index ASC").Limit(limit).Offset(offset).
		Find(&lessons).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, lessons, total, limit, offset)
}

func (pc *PathsController) AddLesson(c *fiber.Ctx) error {
	pathID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid path ID")
	}

	var input struct {
		Title            string `json:"title"`
		Content          string `json:"content"`
		Difficulty       string `json:"difficulty"`
		XPReward         int    `json:"xp_reward"`
		OrderIndex       int    `json:"order_index"`
		EstimatedMinutes int    `json:"estimated_minutes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, utils.CodeInvalidInput, "title is required")
	}

	// The referenced path must exist before the insert.
	var path models.LearningPath
	if err := pc.DB.First(&path, pathID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, utils.CodeReferenceNotFound, "Learning path not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	orderIndex := input.OrderIndex
	if orderIndex == 0 {
		var lessonCount int64
		pc.DB.Model(&models.Lesson{}).Where("learning_path_id = ?", pathID).Count(&lessonCount)
		orderIndex = int(lessonCount) + 1
	}

	lesson := models.Lesson{
		LearningPathID:   pathID,
		Title:            input.Title,
		Content:          input.Content,
		Difficulty:       input.Difficulty,
		XPReward:         input.XPReward,
		OrderIndex:       orderIndex,
		EstimatedMinutes: input.EstimatedMinutes,
	}
	if err := pc.DB.Create(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not create lesson")
	}

	return c.JSON(fiber.Map{
		"message": "Lesson added",
		"lesson":  lesson,
	})
}
