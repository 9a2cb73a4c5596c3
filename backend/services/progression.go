package services

import (
	"errors"
	"project/backend/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrQuizNotFound   = errors.New("quiz not found")
)

// ProgressionService owns all XP, level, streak and achievement bookkeeping.
// Handlers read derived fields from it and never recompute them.
type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// LevelForXP derives the level from total XP. Level is never stored
// independently; every XP mutation goes through CreditXP which recomputes it.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/100 + 1
}

type CompletionResult struct {
	Progress         models.LessonProgress
	UserProgress     models.UserProgress
	XPAwarded        int
	AlreadyCompleted bool
	Unlocked         []models.Achievement
}

// CompleteLesson marks the lesson completed and credits its XP in one
// transaction. Completing an already-completed lesson is a no-op and
// credits nothing.
func (s *ProgressionService) CompleteLesson(userID, lessonID uint) (*CompletionResult, error) {
	result := &CompletionResult{}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, lessonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLessonNotFound
			}
			return err
		}

		var progress models.LessonProgress
		err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err == nil && progress.Status == models.StatusCompleted {
			userProgress, uerr := s.ensureUserProgress(tx, userID)
			if uerr != nil {
				return uerr
			}
			result.Progress = progress
			result.UserProgress = *userProgress
			result.AlreadyCompleted = true
			return nil
		}

		now := time.Now()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = models.LessonProgress{
				UserID:    userID,
				LessonID:  lessonID,
				StartedAt: &now,
			}
		}
		progress.Status = models.StatusCompleted
		progress.CompletedAt = &now
		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		userProgress, err := s.lockUserProgress(tx, userID)
		if err != nil {
			return err
		}

		creditXP(userProgress, lesson.XPReward)
		rollStreak(userProgress, now)
		if err := tx.Save(userProgress).Error; err != nil {
			return err
		}

		unlocked, err := s.EvaluateAchievements(tx, userID)
		if err != nil {
			return err
		}

		// Re-read totals: achievement rewards may have credited more XP.
		if err := tx.Where("user_id = ?", userID).First(userProgress).Error; err != nil {
			return err
		}

		result.Progress = progress
		result.UserProgress = *userProgress
		result.XPAwarded = lesson.XPReward
		result.Unlocked = unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// StartLesson records that the user opened the lesson. A completed row is
// left alone.
func (s *ProgressionService) StartLesson(userID, lessonID uint) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	err := s.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil {
		if progress.Status == models.StatusNotStarted {
			now := time.Now()
			progress.Status = models.StatusInProgress
			progress.StartedAt = &now
			if err := s.DB.Save(&progress).Error; err != nil {
				return nil, err
			}
		}
		return &progress, nil
	}

	now := time.Now()
	progress = models.LessonProgress{
		UserID:    userID,
		LessonID:  lessonID,
		Status:    models.StatusInProgress,
		StartedAt: &now,
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

type AttemptResult struct {
	Attempt     models.QuizAttempt
	Correct     bool
	Explanation string
	XPAwarded   int
	Unlocked    []models.Achievement
}

// RecordQuizAttempt stores the attempt with correctness computed against the
// stored correct answer. Quiz XP is credited only on the first correct
// attempt for that quiz.
func (s *ProgressionService) RecordQuizAttempt(userID, quizID uint, answer int) (*AttemptResult, error) {
	result := &AttemptResult{}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var quiz models.Quiz
		if err := tx.First(&quiz, quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuizNotFound
			}
			return err
		}

		correct := answer == quiz.CorrectAnswer

		var priorCorrect int64
		if err := tx.Model(&models.QuizAttempt{}).
			Where("user_id = ? AND quiz_id = ? AND correct = ?", userID, quizID, true).
			Count(&priorCorrect).Error; err != nil {
			return err
		}

		attempt := models.QuizAttempt{
			UserID:      userID,
			QuizID:      quizID,
			Answer:      answer,
			Correct:     correct,
			SubmittedAt: time.Now(),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		if correct && priorCorrect == 0 && quiz.XPReward > 0 {
			userProgress, err := s.lockUserProgress(tx, userID)
			if err != nil {
				return err
			}
			creditXP(userProgress, quiz.XPReward)
			rollStreak(userProgress, time.Now())
			if err := tx.Save(userProgress).Error; err != nil {
				return err
			}
			result.XPAwarded = quiz.XPReward
		}

		unlocked, err := s.EvaluateAchievements(tx, userID)
		if err != nil {
			return err
		}

		result.Attempt = attempt
		result.Correct = correct
		result.Explanation = quiz.Explanation
		result.Unlocked = unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// TouchActivity rolls the caller's streak for a login or similar activity
// that awards no XP.
func (s *ProgressionService) TouchActivity(userID uint) (*models.UserProgress, error) {
	var progress *models.UserProgress

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		p, err := s.lockUserProgress(tx, userID)
		if err != nil {
			return err
		}
		rollStreak(p, time.Now())
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		if _, err := s.EvaluateAchievements(tx, userID); err != nil {
			return err
		}
		progress = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return progress, nil
}

// UserStats are the aggregate counters achievements are judged against.
type UserStats struct {
	LessonsCompleted int
	StreakDays       int
	TotalXP          int
	Level            int
	PathsCompleted   int
}

func (s *ProgressionService) Stats(tx *gorm.DB, userID uint) (*UserStats, error) {
	userProgress, err := s.ensureUserProgress(tx, userID)
	if err != nil {
		return nil, err
	}

	var lessonsCompleted int64
	if err := tx.Model(&models.LessonProgress{}).
		Where("user_id = ? AND status = ?", userID, models.StatusCompleted).
		Count(&lessonsCompleted).Error; err != nil {
		return nil, err
	}

	var pathsCompleted int64
	if err := tx.Raw(`
		SELECT COUNT(*) FROM learning_paths lp
		WHERE lp.deleted_at IS NULL
		AND (SELECT COUNT(*) FROM lessons l
			WHERE l.learning_path_id = lp.id AND l.deleted_at IS NULL) > 0
		AND (SELECT COUNT(*) FROM lessons l
			WHERE l.learning_path_id = lp.id AND l.deleted_at IS NULL)
		  = (SELECT COUNT(*) FROM lessons l
			JOIN lesson_progresses p ON p.lesson_id = l.id
				AND p.user_id = ? AND p.status = ? AND p.deleted_at IS NULL
			WHERE l.learning_path_id = lp.id AND l.deleted_at IS NULL)
	`, userID, models.StatusCompleted).Scan(&pathsCompleted).Error; err != nil {
		return nil, err
	}

	return &UserStats{
		LessonsCompleted: int(lessonsCompleted),
		StreakDays:       userProgress.StreakDays,
		TotalXP:          userProgress.TotalXP,
		Level:            userProgress.Level,
		PathsCompleted:   int(pathsCompleted),
	}, nil
}

// EvaluateAchievements inserts one UserAchievement per newly crossed
// threshold and credits the attached XP rewards. Runs to a fixpoint, so
// calling it again on unchanged state unlocks nothing further. Already
// unlocked achievements are never touched.
func (s *ProgressionService) EvaluateAchievements(tx *gorm.DB, userID uint) ([]models.Achievement, error) {
	var unlocked []models.Achievement

	// Reward XP can push totals over further thresholds; loop until stable.
	for i := 0; i < 5; i++ {
		newly, err := s.evaluateOnce(tx, userID)
		if err != nil {
			return nil, err
		}
		if len(newly) == 0 {
			break
		}
		unlocked = append(unlocked, newly...)
	}

	return unlocked, nil
}

func (s *ProgressionService) evaluateOnce(tx *gorm.DB, userID uint) ([]models.Achievement, error) {
	stats, err := s.Stats(tx, userID)
	if err != nil {
		return nil, err
	}

	var achievements []models.Achievement
	if err := tx.Find(&achievements).Error; err != nil {
		return nil, err
	}

	var existing []models.UserAchievement
	if err := tx.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
		return nil, err
	}
	have := make(map[uint]bool, len(existing))
	for _, ua := range existing {
		have[ua.AchievementID] = true
	}

	var newly []models.Achievement
	rewardXP := 0
	for _, a := range achievements {
		if have[a.ID] || !crossed(a, stats) {
			continue
		}

		ua := models.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			UnlockedAt:    time.Now(),
		}
		// The composite unique index makes concurrent unlocks collapse
		// into one row.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ua).Error; err != nil {
			return nil, err
		}

		newly = append(newly, a)
		rewardXP += a.XPReward
	}

	if rewardXP > 0 {
		userProgress, err := s.lockUserProgress(tx, userID)
		if err != nil {
			return nil, err
		}
		creditXP(userProgress, rewardXP)
		if err := tx.Save(userProgress).Error; err != nil {
			return nil, err
		}
	}

	return newly, nil
}

func crossed(a models.Achievement, stats *UserStats) bool {
	switch a.RequirementType {
	case models.RequirementLessonsCompleted:
		return stats.LessonsCompleted >= a.Threshold
	case models.RequirementStreakDays:
		return stats.StreakDays >= a.Threshold
	case models.RequirementTotalXP:
		return stats.TotalXP >= a.Threshold
	case models.RequirementLevel:
		return stats.Level >= a.Threshold
	case models.RequirementPathsCompleted:
		return stats.PathsCompleted >= a.Threshold
	}
	return false
}

func (s *ProgressionService) ensureUserProgress(tx *gorm.DB, userID uint) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := tx.Where("user_id = ?", userID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.UserProgress{
			UserID:     userID,
			Level:      1,
			LastActive: time.Now(),
		}
		if err := tx.Create(&progress).Error; err != nil {
			return nil, err
		}
		return &progress, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// lockUserProgress takes the row lock that serializes concurrent XP credits
// for the same user. SQLite has no FOR UPDATE and serializes writers on its
// own, so the clause is only applied on postgres.
func (s *ProgressionService) lockUserProgress(tx *gorm.DB, userID uint) (*models.UserProgress, error) {
	if _, err := s.ensureUserProgress(tx, userID); err != nil {
		return nil, err
	}

	query := tx
	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var progress models.UserProgress
	if err := query.Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func creditXP(p *models.UserProgress, amount int) {
	p.TotalXP += amount
	p.Level = LevelForXP(p.TotalXP)
}

// rollStreak applies the same rule used at login: activity on a new day
// within 48h of the last one extends the streak, a longer gap resets it.
func rollStreak(p *models.UserProgress, now time.Time) {
	sameDay := p.LastActive.Year() == now.Year() && p.LastActive.YearDay() == now.YearDay()
	switch {
	case p.StreakDays == 0:
		p.StreakDays = 1
	case sameDay:
		// already counted today
	case now.Sub(p.LastActive) < 48*time.Hour:
		p.StreakDays++
	default:
		p.StreakDays = 1
	}
	p.LastActive = now
}
