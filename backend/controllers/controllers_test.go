package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"project/backend/config"
	"project/backend/models"
	"project/backend/routes"
	"project/backend/utils"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	App *fiber.App
	DB  *gorm.DB
	Cfg *config.Config
}

// setupEnv builds a fresh app over an in-memory database. The GitHub API
// base URL can be pointed at a test server before routes are wired.
func setupEnv(t *testing.T, githubURL string) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	require.NoError(t, utils.SeedAchievements(db))

	cfg := &config.Config{
		JWTSecret:    "testsecret",
		GitHubAPIURL: githubURL,
		OpenAIAPIURL: "http://127.0.0.1:0",
		HTTPTimeout:  5 * time.Second,
	}

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg)

	return &testEnv{App: app, DB: db, Cfg: cfg}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	var result map[string]interface{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		json.Unmarshal(data, &result)
	}

	return resp, result
}

// register creates a user through the API and returns its token.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()

	resp, result := e.request(t, "POST", "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotEmpty(t, result["token"])

	return result["token"].(string)
}

// registerAdmin creates a user, promotes it and returns a token carrying the
// admin role.
func (e *testEnv) registerAdmin(t *testing.T, username string) string {
	t.Helper()

	e.register(t, username)
	require.NoError(t, e.DB.Model(&models.User{}).
		Where("username = ?", username).
		Update("role", "admin").Error)

	resp, result := e.request(t, "POST", "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	return result["token"].(string)
}

func (e *testEnv) createPath(t *testing.T, adminToken, title string) uint {
	t.Helper()

	resp, result := e.request(t, "POST", "/api/paths", adminToken, map[string]interface{}{
		"title":           title,
		"difficulty":      "beginner",
		"estimated_hours": 12,
		"order_index":     1,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	return uint(result["path"].(map[string]interface{})["ID"].(float64))
}

func (e *testEnv) createLesson(t *testing.T, adminToken string, pathID uint, title string, xp int) uint {
	t.Helper()

	resp, result := e.request(t, "POST", fmt.Sprintf("/api/paths/%d/lessons", pathID), adminToken, map[string]interface{}{
		"title":     title,
		"content":   "lesson content",
		"xp_reward": xp,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	return uint(result["lesson"].(map[string]interface{})["ID"].(float64))
}
