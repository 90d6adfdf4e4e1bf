package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newPlanningApp(role interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != nil {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	app.Use(RequireRole("admin", "Teacher"))
	app.Post("/api/v2/quiz-plans", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsStaff(t *testing.T) {
	for _, role := range []interface{}{"admin", " TEACHER ", "Instructor"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v2/quiz-plans", nil)
		resp, err := newPlanningApp(role).Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, role)
	}
}

func TestRequireRoleRejectsLearnersAndAnonymous(t *testing.T) {
	for _, role := range []interface{}{"student", "learner", nil} {
		req := httptest.NewRequest(http.MethodPost, "/api/v2/quiz-plans", nil)
		resp, err := newPlanningApp(role).Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode, role)

		var body struct {
			Details struct {
				AllowedRoles []string `json:"allowed_roles"`
			} `json:"details"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, []string{"admin", "teacher"}, body.Details.AllowedRoles)
	}
}

func TestCanonicalRoleFoldsAliases(t *testing.T) {
	require.Equal(t, AuthRoleStudent, canonicalRole(" Learner "))
	require.Equal(t, AuthRoleTeacher, canonicalRole("instructor"))
	require.Equal(t, "admin", canonicalRole("ADMIN"))
	require.Equal(t, AuthRoleStudent, normalizeRole([]interface{}{"", "pupil"}))
	require.Equal(t, "", normalizeRole(42))
}
