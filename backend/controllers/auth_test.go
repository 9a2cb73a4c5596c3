package controllers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupEnv(t, "")

	resp, result := env.request(t, "POST", "/api/auth/register", "", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, result["token"])
	assert.NotEmpty(t, result["user"])

	resp, result = env.request(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "newuser",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, result["token"])
}

func TestRegisterMissingFields(t *testing.T) {
	env := setupEnv(t, "")

	resp, result := env.request(t, "POST", "/api/auth/register", "", map[string]string{
		"username": "incomplete",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", result["code"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupEnv(t, "")
	env.register(t, "someone")

	resp, result := env.request(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "someone",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", result["code"])
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	env := setupEnv(t, "")

	resp, result := env.request(t, "GET", "/api/user/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", result["code"])
}

func TestGetProfile(t *testing.T) {
	env := setupEnv(t, "")
	token := env.register(t, "profileuser")

	resp, result := env.request(t, "GET", "/api/user/profile", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "profileuser", result["username"])
	assert.Equal(t, "profileuser@example.com", result["email"])
}

func TestAdminRouteForbiddenForUser(t *testing.T) {
	env := setupEnv(t, "")
	token := env.register(t, "plainuser")

	resp, result := env.request(t, "POST", "/api/paths", token, map[string]interface{}{
		"title": "Not allowed",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", result["code"])
}
