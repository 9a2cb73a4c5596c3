package routes

import (
	"project/backend/config"
	"project/backend/controllers"
	"project/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Learning paths and their lessons
	pathsController := controllers.NewPathsController(db, cfg)
	paths := app.Group("/api/paths", authMiddleware)
	paths.Get("/", pathsController.ListPaths)
	paths.Get("/:id", pathsController.GetPath)
	paths.Get("/:id/lessons", pathsController.ListLessons)
	paths.Post("/", adminMiddleware, pathsController.CreatePath)
	paths.Put("/:id", adminMiddleware, pathsController.UpdatePath)
	paths.Delete("/:id", adminMiddleware, pathsController.DeletePath)
	paths.Post("/:id/lessons", adminMiddleware, pathsController.AddLesson)

	// Lessons, their quizzes and completion
	lessonsController := controllers.NewLessonsController(db, cfg)
	lessons := app.Group("/api/lessons", authMiddleware)
	lessons.Get("/:id", lessonsController.GetLesson)
	lessons.Get("/:id/quizzes", lessonsController.ListQuizzes)
	lessons.Get("/:id/progress", lessonsController.GetLessonProgress)
	lessons.Post("/:id/start", lessonsController.StartLesson)
	lessons.Post("/:id/complete", lessonsController.CompleteLesson)
	lessons.Put("/:id", adminMiddleware, lessonsController.UpdateLesson)
	lessons.Delete("/:id", adminMiddleware, lessonsController.DeleteLesson)
	lessons.Post("/:id/quizzes", adminMiddleware, lessonsController.AddQuiz)

	// Quizzes and attempts
	quizzesController := controllers.NewQuizzesController(db, cfg)
	quizzes := app.Group("/api/quizzes", authMiddleware)
	quizzes.Get("/:id", quizzesController.GetQuiz)
	quizzes.Post("/:id/attempts", quizzesController.SubmitAttempt)
	quizzes.Put("/:id", adminMiddleware, quizzesController.UpdateQuiz)
	quizzes.Delete("/:id", adminMiddleware, quizzesController.DeleteQuiz)
	app.Get("/api/attempts", authMiddleware, quizzesController.ListAttempts)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress", authMiddleware, progressController.ListProgress)
	app.Get("/api/user/progress", authMiddleware, progressController.GetUserProgress)

	// Achievements
	achievementsController := controllers.NewAchievementsController(db, cfg)
	app.Get("/api/achievements", authMiddleware, achievementsController.ListAchievements)
	app.Get("/api/user/achievements", authMiddleware, achievementsController.ListUserAchievements)
	app.Post("/api/user/achievements/recheck", authMiddleware, achievementsController.Recheck)

	// GitHub analysis and saved repositories
	repositoriesController := controllers.NewRepositoriesController(db, cfg)
	app.Post("/api/github/analyze", authMiddleware, repositoriesController.Analyze)
	repos := app.Group("/api/repositories", authMiddleware)
	repos.Get("/", repositoriesController.ListRepositories)
	repos.Get("/:id", repositoriesController.GetRepository)
	repos.Post("/", repositoriesController.SaveRepository)
	repos.Put("/:id", repositoriesController.UpdateRepository)
	repos.Delete("/:id", repositoriesController.DeleteRepository)

	// AI helpers
	aiController := controllers.NewAIController(db, cfg)
	app.Post("/api/ai/explain", authMiddleware, aiController.ExplainCode)
	app.Post("/api/ai/quiz", authMiddleware, aiController.GenerateQuiz)
}
