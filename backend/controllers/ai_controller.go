package controllers

import (
	"context"
	"errors"
	"project/backend/config"
	"project/backend/services"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AIController struct {
	DB  *gorm.DB
	Cfg *config.Config
	AI  *services.AIService
}

func NewAIController(db *gorm.DB, cfg *config.Config) *AIController {
	return &AIController{DB: db, Cfg: cfg, AI: services.NewAIService(cfg)}
}

// ExplainCode godoc
// @Summary Explain a code snippet
// @Description Returns a natural-language explanation from the AI provider
// @Tags ai
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/explain [post]
func (ai *AIController) ExplainCode(c *fiber.Ctx) error {
	var input struct {
		Code     string `json:"code"`
		Question string `json:"question"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}
	if input.Code == "" {
		return utils.BadRequest(c, utils.CodeInvalidInput, "code is required")
	}

	ctx, cancel := context.WithTimeout(c.Context(), ai.Cfg.HTTPTimeout)
	defer cancel()

	explanation, err := ai.AI.ExplainCode(ctx, input.Code, input.Question)
	if err != nil {
		return utils.Error(c, fiber.StatusBadGateway, utils.CodeUpstreamError, "AI provider request failed")
	}

	return c.JSON(fiber.Map{"explanation": explanation})
}

// GenerateQuiz godoc
// @Summary Generate quiz questions
// @Description Asks the AI provider for multiple-choice questions about a topic or code snippet
// @Tags ai
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/quiz [post]
func (ai *AIController) GenerateQuiz(c *fiber.Ctx) error {
	var input struct {
		Topic string `json:"topic"`
		Code  string `json:"code"`
		Count int    `json:"count"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}

	subject := input.Topic
	if subject == "" {
		subject = input.Code
	}
	if subject == "" {
		return utils.BadRequest(c, utils.CodeInvalidInput, "topic or code is required")
	}

	ctx, cancel := context.WithTimeout(c.Context(), ai.Cfg.HTTPTimeout)
	defer cancel()

	questions, err := ai.AI.GenerateQuiz(ctx, subject, input.Count)
	if err != nil {
		if errors.Is(err, services.ErrGenerationFailed) {
			return utils.Error(c, fiber.StatusBadGateway, utils.CodeGenerationFailed, "Provider output could not be parsed")
		}
		return utils.Error(c, fiber.StatusBadGateway, utils.CodeUpstreamError, "AI provider request failed")
	}

	return c.JSON(fiber.Map{"questions": questions})
}
