package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"project/backend/config"
	"project/backend/middleware"
	"project/backend/models"
	"project/backend/services"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RepositoriesController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	GitHub *services.GitHubService
}

func NewRepositoriesController(db *gorm.DB, cfg *config.Config) *RepositoriesController {
	return &RepositoriesController{DB: db, Cfg: cfg, GitHub: services.NewGitHubService(cfg)}
}

// Analyze godoc
// @Summary Analyze a GitHub repository
// @Description Fetches a one-shot metadata summary; nothing is persisted
// @Tags repositories
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /github/analyze [post]
func (rc *RepositoriesController) Analyze(c *fiber.Ctx) error {
	var input struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}
	if input.URL == "" {
		return utils.BadRequest(c, utils.CodeInvalidInput, "url is required")
	}

	ctx, cancel := context.WithTimeout(c.Context(), rc.Cfg.HTTPTimeout)
	defer cancel()

	analysis, err := rc.GitHub.AnalyzeRepository(ctx, input.URL)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRepoURL) {
			return utils.BadRequest(c, utils.CodeInvalidInput, "Not a valid GitHub repository URL")
		}
		var upstream *services.UpstreamError
		if errors.As(err, &upstream) {
			if upstream.StatusCode == fiber.StatusNotFound {
				return utils.Error(c, fiber.StatusNotFound, utils.CodeUpstreamNotFound, "Repository not found on GitHub")
			}
			return utils.Error(c, fiber.StatusBadGateway, utils.CodeUpstreamError, upstream.Error())
		}
		return utils.Error(c, fiber.StatusBadGateway, utils.CodeUpstreamError, "Could not reach GitHub")
	}

	return c.JSON(fiber.Map{"analysis": analysis})
}

// SaveRepository persists an analysis snapshot for the caller.
func (rc *RepositoriesController) SaveRepository(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	var input struct {
		URL         string          `json:"url"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Language    string          `json:"language"`
		Stars       int             `json:"stars"`
		Analysis    json.RawMessage `json:"analysis"`
		UserID      *uint           `json:"user_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}
	if input.UserID != nil {
		return utils.BadRequest(c, utils.CodeIdentityInPayload, "user_id may not be supplied")
	}
	if input.URL == "" {
		return utils.BadRequest(c, utils.CodeInvalidInput, "url is required")
	}

	repo := models.Repository{
		UserID:      userID,
		URL:         input.URL,
		Name:        input.Name,
		Description: input.Description,
		Language:    input.Language,
		Stars:       input.Stars,
		Analysis:    datatypes.JSON(input.Analysis),
	}
	if err := rc.DB.Create(&repo).Error; err != nil {
		return utils.InternalServerError(c, "Could not save repository")
	}

	return c.JSON(fiber.Map{
		"message":    "Repository saved",
		"repository": repo,
	})
}

func (rc *RepositoriesController) ListRepositories(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)
	limit, offset := listParams(c)

	query := rc.DB.Model(&models.Repository{}).Where("user_id = ?", userID)
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var repos []models.Repository
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&repos).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, repos, total, limit, offset)
}

func (rc *RepositoriesController) GetRepository(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	repoID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid repository ID")
	}

	// Scoped by owner; another user's id behaves like a missing record.
	var repo models.Repository
	if err := rc.DB.Where("id = ? AND user_id = ?", repoID, userID).First(&repo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Repository not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{"repository": repo})
}

func (rc *RepositoriesController) UpdateRepository(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	repoID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid repository ID")
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		UserID      *uint   `json:"user_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}
	if input.UserID != nil {
		return utils.BadRequest(c, utils.CodeIdentityInPayload, "user_id may not be supplied")
	}

	var repo models.Repository
	if err := rc.DB.Where("id = ? AND user_id = ?", repoID, userID).First(&repo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Repository not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Name != nil {
		repo.Name = *input.Name
	}
	if input.Description != nil {
		repo.Description = *input.Description
	}

	if err := rc.DB.Save(&repo).Error; err != nil {
		return utils.InternalServerError(c, "Could not update repository")
	}

	return c.JSON(fiber.Map{
		"message":    "Repository updated",
		"repository": repo,
	})
}

func (rc *RepositoriesController) DeleteRepository(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	repoID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid repository ID")
	}

	var repo models.Repository
	if err := rc.DB.Where("id = ? AND user_id = ?", repoID, userID).First(&repo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Repository not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := rc.DB.Delete(&repo).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete repository")
	}

	return c.JSON(fiber.Map{
		"message":    "Repository deleted",
		"repository": repo,
	})
}
