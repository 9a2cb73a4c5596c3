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

type LessonsController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Progression *services.ProgressionService
}

func NewLessonsController(db *gorm.DB, cfg *config.Config) *LessonsController {
	return &LessonsController{DB: db, Cfg: cfg, Progression: services.NewProgressionService(db)}
}

func (lc *LessonsController) GetLesson(c *fiber.Ctx) error {
	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := lc.DB.Preload("Quizzes").First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	// Correct answers stay server-side for learners.
	if !middleware.IsAdmin(c) {
		for i := range lesson.Quizzes {
			lesson.Quizzes[i].CorrectAnswer = -1
		}
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

func (lc *LessonsController) UpdateLesson(c *fiber.Ctx) error {
	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	var input struct {
		Title            *string `json:"title"`
		Content          *string `json:"content"`
		Difficulty       *string `json:"difficulty"`
		XPReward         *int    `json:"xp_reward"`
		OrderIndex       *int    `json:"order_index"`
		EstimatedMinutes *int    `json:"estimated_minutes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != nil {
		lesson.Title = *input.Title
	}
	if input.Content != nil {
		lesson.Content = *input.Content
	}
	if input.Difficulty != nil {
		lesson.Difficulty = *input.Difficulty
	}
	if input.XPReward != nil {
		lesson.XPReward = *input.XPReward
	}
	if input.OrderIndex != nil {
		lesson.OrderIndex = *input.OrderIndex
	}
	if input.EstimatedMinutes != nil {
		lesson.EstimatedMinutes = *input.EstimatedMinutes
	}

	if err := lc.DB.Save(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not update lesson")
	}

	return c.JSON(fiber.Map{
		"message": "Lesson updated",
		"lesson":  lesson,
	})
}

func (lc *LessonsController) DeleteLesson(c *fiber.Ctx) error {
	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := lc.DB.Select("Quizzes").Delete(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete lesson")
	}

	return c.JSON(fiber.Map{
		"message": "Lesson deleted",
		"lesson":  lesson,
	})
}

func (lc *LessonsController) ListQuizzes(c *fiber.Ctx) error {
	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var quizzes []models.Quiz
	if err := lc.DB.Where("lesson_id = ?", lessonID).Find(&quizzes).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	if !middleware.IsAdmin(c) {
		for i := range quizzes {
			quizzes[i].CorrectAnswer = -1
		}
	}

	return c.JSON(fiber.Map{"quizzes": quizzes})
}

func (lc *LessonsController) AddQuiz(c *fiber.Ctx) error {
	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	var input struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correct_answer"`
		Explanation   string   `json:"explanation"`
		XPReward      int      `json:"xp_reward"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, utils.CodeInvalidJSON, "Cannot parse JSON")
	}

	if input.Question == "" || len(input.Options) < 2 {
		return utils.BadRequest(c, utils.CodeInvalidInput, "question and at least two options are required")
	}
	if input.CorrectAnswer < 0 || input.CorrectAnswer >= len(input.Options) {
		return utils.BadRequest(c, utils.CodeInvalidInput, "correct_answer must index into options")
	}

	// The referenced lesson must exist before the insert.
	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, utils.CodeReferenceNotFound, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	optionsJSON, err := json.Marshal(input.Options)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode options")
	}

	quiz := models.Quiz{
		LessonID:      lessonID,
		Question:      input.Question,
		Options:       datatypes.JSON(optionsJSON),
		CorrectAnswer: input.CorrectAnswer,
		Explanation:   input.Explanation,
		XPReward:      input.XPReward,
	}
	if err := lc.DB.Create(&quiz).Error; err != nil {
		return utils.InternalServerError(c, "Could not create quiz")
	}

	return c.JSON(fiber.Map{
		"message": "Quiz added",
		"quiz":    quiz,
	})
}

// CompleteLesson godoc
// @Summary Complete a lesson
// @Description Marks the lesson completed for the caller and credits its XP once
// @Tags lessons
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/complete [post]
func (lc *LessonsController) CompleteLesson(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	result, err := lc.Progression.CompleteLesson(userID, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not complete lesson")
	}

	unlocked := make([]fiber.Map, 0, len(result.Unlocked))
	for _, a := range result.Unlocked {
		unlocked = append(unlocked, fiber.Map{
			"id":        a.ID,
			"title":     a.Title,
			"icon":      a.Icon,
			"xp_reward": a.XPReward,
		})
	}

	return c.JSON(fiber.Map{
		"message":           "Lesson completed",
		"already_completed": result.AlreadyCompleted,
		"xp_awarded":        result.XPAwarded,
		"progress":          result.Progress,
		"user_progress":     result.UserProgress,
		"unlocked":          unlocked,
	})
}

func (lc *LessonsController) GetLessonProgress(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	var progress models.LessonProgress
	if err := lc.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{
				"progress": fiber.Map{
					"lesson_id": lessonID,
					"status":    models.StatusNotStarted,
				},
			})
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{"progress": progress})
}

func (lc *LessonsController) StartLesson(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	lessonID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, utils.CodeInvalidID, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	progress, err := lc.Progression.StartLesson(userID, lessonID)
	if err != nil {
		return utils.InternalServerError(c, "Could not start lesson")
	}

	return c.JSON(fiber.Map{
		"message":  "Lesson started",
		"progress": progress,
	})
}
