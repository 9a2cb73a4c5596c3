package services

import (
	"encoding/json"
	"fmt"
	"project/backend/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One in-memory database per test, shared across pooled connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProgress{},
		&models.LearningPath{},
		&models.Lesson{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.LessonProgress{},
		&models.Achievement{},
		&models.UserAchievement{},
	))

	return db
}

func seedLesson(t *testing.T, db *gorm.DB, xp int) models.Lesson {
	t.Helper()

	path := models.LearningPath{Title: "JS Basics", Difficulty: "beginner", EstimatedHours: 12, OrderIndex: 1}
	require.NoError(t, db.Create(&path).Error)

	lesson := models.Lesson{LearningPathID: path.ID, Title: "Variables", XPReward: xp, OrderIndex: 1}
	require.NoError(t, db.Create(&lesson).Error)

	return lesson
}

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{-10, 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelForXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestCompleteLessonCreditsXP(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	lesson := seedLesson(t, db, 50)

	result, err := svc.CompleteLesson(1, lesson.ID)
	require.NoError(t, err)

	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, 50, result.XPAwarded)
	assert.Equal(t, models.StatusCompleted, result.Progress.Status)
	assert.Equal(t, 50, result.UserProgress.TotalXP)
	assert.Equal(t, 1, result.UserProgress.Level)
}

func TestCompleteLessonTwiceDoesNotDoubleCredit(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	lesson := seedLesson(t, db, 50)

	first, err := svc.CompleteLesson(1, lesson.ID)
	require.NoError(t, err)

	second, err := svc.CompleteLesson(1, lesson.ID)
	require.NoError(t, err)

	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, 0, second.XPAwarded)
	assert.Equal(t, first.UserProgress.TotalXP, second.UserProgress.TotalXP)

	var count int64
	db.Model(&models.LessonProgress{}).Where("user_id = ? AND lesson_id = ?", 1, lesson.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCompleteLessonLevelRollover(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	path := models.LearningPath{Title: "JS Basics", Difficulty: "beginner"}
	require.NoError(t, db.Create(&path).Error)

	first := models.Lesson{LearningPathID: path.ID, Title: "Variables", XPReward: 50}
	second := models.Lesson{LearningPathID: path.ID, Title: "Functions", XPReward: 50}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	result, err := svc.CompleteLesson(1, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, result.UserProgress.TotalXP)
	assert.Equal(t, 1, result.UserProgress.Level)

	result, err = svc.CompleteLesson(1, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, result.UserProgress.TotalXP)
	assert.Equal(t, 2, result.UserProgress.Level)
}

func TestCompleteLessonMissingLesson(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	_, err := svc.CompleteLesson(1, 999)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestRecordQuizAttemptComputesCorrectness(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	lesson := seedLesson(t, db, 0)

	options, _ := json.Marshal([]string{"a", "b", "c", "d"})
	quiz := models.Quiz{
		LessonID:      lesson.ID,
		Question:      "Pick b",
		Options:       datatypes.JSON(options),
		CorrectAnswer: 1,
		XPReward:      10,
	}
	require.NoError(t, db.Create(&quiz).Error)

	wrong, err := svc.RecordQuizAttempt(1, quiz.ID, 3)
	require.NoError(t, err)
	assert.False(t, wrong.Correct)
	assert.Equal(t, 0, wrong.XPAwarded)

	right, err := svc.RecordQuizAttempt(1, quiz.ID, 1)
	require.NoError(t, err)
	assert.True(t, right.Correct)
	assert.Equal(t, 10, right.XPAwarded)

	// Attempts are append-only history.
	var count int64
	db.Model(&models.QuizAttempt{}).Where("user_id = ? AND quiz_id = ?", 1, quiz.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestQuizXPCreditedOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	lesson := seedLesson(t, db, 0)

	options, _ := json.Marshal([]string{"a", "b"})
	quiz := models.Quiz{LessonID: lesson.ID, Question: "q", Options: datatypes.JSON(options), CorrectAnswer: 0, XPReward: 10}
	require.NoError(t, db.Create(&quiz).Error)

	_, err := svc.RecordQuizAttempt(1, quiz.ID, 0)
	require.NoError(t, err)

	repeat, err := svc.RecordQuizAttempt(1, quiz.ID, 0)
	require.NoError(t, err)
	assert.True(t, repeat.Correct)
	assert.Equal(t, 0, repeat.XPAwarded)

	var progress models.UserProgress
	require.NoError(t, db.Where("user_id = ?", 1).First(&progress).Error)
	assert.Equal(t, 10, progress.TotalXP)
}

func TestEvaluateAchievementsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	require.NoError(t, db.Create(&models.Achievement{
		Title:           "First Steps",
		XPReward:        10,
		RequirementType: models.RequirementLessonsCompleted,
		Threshold:       1,
	}).Error)

	lesson := seedLesson(t, db, 20)
	result, err := svc.CompleteLesson(1, lesson.ID)
	require.NoError(t, err)
	require.Len(t, result.Unlocked, 1)
	assert.Equal(t, "First Steps", result.Unlocked[0].Title)

	// Reward XP landed on top of the lesson XP.
	assert.Equal(t, 30, result.UserProgress.TotalXP)

	// A second evaluation on unchanged state unlocks nothing and never
	// removes a previous unlock.
	again, err := svc.EvaluateAchievements(db, 1)
	require.NoError(t, err)
	assert.Empty(t, again)

	var count int64
	db.Model(&models.UserAchievement{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEvaluateAchievementsRewardXPCascades(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	require.NoError(t, db.Create(&models.Achievement{
		Title:           "First Steps",
		XPReward:        60,
		RequirementType: models.RequirementLessonsCompleted,
		Threshold:       1,
	}).Error)
	require.NoError(t, db.Create(&models.Achievement{
		Title:           "Century",
		XPReward:        0,
		RequirementType: models.RequirementTotalXP,
		Threshold:       100,
	}).Error)

	lesson := seedLesson(t, db, 50)
	result, err := svc.CompleteLesson(1, lesson.ID)
	require.NoError(t, err)

	// 50 lesson XP + 60 reward XP crosses the 100 XP threshold in the same
	// evaluation pass.
	titles := make([]string, 0, len(result.Unlocked))
	for _, a := range result.Unlocked {
		titles = append(titles, a.Title)
	}
	assert.ElementsMatch(t, []string{"First Steps", "Century"}, titles)
	assert.Equal(t, 110, result.UserProgress.TotalXP)
	assert.Equal(t, 2, result.UserProgress.Level)
}

func TestPathsCompletedStat(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	path := models.LearningPath{Title: "Go Basics"}
	require.NoError(t, db.Create(&path).Error)
	a := models.Lesson{LearningPathID: path.ID, Title: "one", XPReward: 5}
	b := models.Lesson{LearningPathID: path.ID, Title: "two", XPReward: 5}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	_, err := svc.CompleteLesson(1, a.ID)
	require.NoError(t, err)

	stats, err := svc.Stats(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PathsCompleted)

	_, err = svc.CompleteLesson(1, b.ID)
	require.NoError(t, err)

	stats, err = svc.Stats(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PathsCompleted)
	assert.Equal(t, 2, stats.LessonsCompleted)
}
