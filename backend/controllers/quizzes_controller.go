package controllers

import (
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

type QuizzesController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Progression *services.ProgressionService
}

func NewQuizzesController(db *gorm.DB, cfg *config.Config) *QuizzesController {
	return &QuizzesController{DB: db, Cfg: cfg, Progression: services.NewProgressionService(db)}
}

func (qc *QuizzesController) GetQuiz(c *fiber.Ctx) error {
	quizID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid quiz ID")
	}

	var quiz models.Quiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if !middleware.IsAdmin(c) {
		quiz.CorrectAnswer = -1
		quiz.Explanation = ""
	}

	return c.JSON(fiber.Map{"quiz": quiz})
}

func (qc *QuizzesController) UpdateQuiz(c *fiber.Ctx) error {
	quizID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid quiz ID")
	}

	var input struct {
		Question      *string   `json:"question"`
		Options       *[]string `json:"options"`
		CorrectAnswer *int      `json:"correct_answer"`
		Explanation   *string   `json:"explanation"`
		XPReward      *int      `json:"xp_reward"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}

	var quiz models.Quiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Question != nil {
		quiz.Question = *input.Question
	}
	if input.Options != nil {
		if len(*input.Options) < 2 {
			return utils.BadRequest(c, utils.CodeInvalidInput, "at least two options are required")
		}
		optionsJSON, err := json.Marshal(*input.Options)
		if err != nil {
			return utils.InternalServerError(c, "Could not encode options")
		}
		quiz.Options = datatypes.JSON(optionsJSON)
	}
	if input.CorrectAnswer != nil {
		quiz.CorrectAnswer = *input.CorrectAnswer
	}
	if input.Explanation != nil {
		quiz.Explanation = *input.Explanation
	}
	if input.XPReward != nil {
		quiz.XPReward = *input.XPReward
	}

	var options []string
	if err := json.Unmarshal(quiz.Options, &options); err == nil {
		if quiz.CorrectAnswer < 0 || quiz.CorrectAnswer >= len(options) {
			return utils.BadRequest(c, utils.CodeInvalidInput, "correct_answer must index into options")
		}
	}

	if err := qc.DB.Save(&quiz).Error; err != nil {
		return utils.InternalServerError(c, "Could not update quiz")
	}

	return c.JSON(fiber.Map{
		"message": "Quiz updated",
		"quiz":    quiz,
	})
}

func (qc *QuizzesController) DeleteQuiz(c *fiber.Ctx) error {
	quizID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid quiz ID")
	}

	var quiz models.Quiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := qc.DB.Delete(&quiz).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete quiz")
	}

	return c.JSON(fiber.Map{
		"message": "Quiz deleted",
		"quiz":    quiz,
	})
}

// SubmitAttempt godoc
// @Summary Submit a quiz answer
// @Description Stores the attempt; correctness is computed server-side
// @Tags quizzes
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/attempts [post]
func (qc *QuizzesController) SubmitAttempt(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	quizID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid quiz ID")
	}

	var input struct {
		Answer *int  `json:"answer"`
		UserID *uint `json:"user_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}
	// The caller's identity comes from the token, never from the body.
	if input.UserID != nil {
		return utils.BadRequest(c, utils.CodeIdentityInPayload, "user_id may not be supplied")
	}
	if input.Answer == nil {
		return utils.BadRequest(c, utils.CodeInvalidInput, "answer is required")
	}

	result, err := qc.Progression.RecordQuizAttempt(userID, quizID, *input.Answer)
	if err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not record attempt")
	}

	return c.JSON(fiber.Map{
		"attempt":     result.Attempt,
		"correct":     result.Correct,
		"explanation": result.Explanation,
		"xp_awarded":  result.XPAwarded,
	})
}

func (qc *QuizzesController) ListAttempts(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)
	limit, offset := listParams(c)

	query := qc.DB.Model(&models.QuizAttempt{}).Where("user_id = ?", userID)
	if quizID := c.Query("quiz_id"); quizID != "" {
		query = query.Where("quiz_id = ?", quizID)
	}

	var total int64
	query.Count(&total)

	var attempts []models.QuizAttempt
	if err := query.Order("submitted_at DESC").Limit(limit).Offset(offset).Find(&attempts).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, attempts, total, limit, offset)
}
