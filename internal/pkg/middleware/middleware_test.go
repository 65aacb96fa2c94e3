package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
	"github.com/fcescuela/clubhouse/internal/pkg/database/dbtest"
	"github.com/fcescuela/clubhouse/internal/pkg/middleware"
	"github.com/fcescuela/clubhouse/internal/pkg/session"
	"github.com/fcescuela/clubhouse/internal/pkg/usercontext"
)

func newApp(t *testing.T, apiKey string) (*fiber.App, *models.User, *models.User) {
	t.Helper()
	db := dbtest.New(t)
	fan := &models.User{Name: "Fan", Email: "fan@example.com", Role: models.ROLE_USER, MembershipType: "vip"}
	admin := &models.User{Name: "Admin", Email: "admin@example.com", Role: models.ROLE_ADMIN}
	require.NoError(t, db.Create(fan).Error)
	require.NoError(t, db.Create(admin).Error)

	store := session.NewStore(nil, session.Config{})
	app := fiber.New()
	app.Use(middleware.UserContextMiddleware(store, repository.NewUserRepository(db)))
	app.Use(middleware.AdminAPIKeyMiddleware(apiKey))

	app.Get("/login/:id", func(c *fiber.Ctx) error {
		id, _ := strconv.Atoi(c.Params("id"))
		return session.Login(store, c, uint(id))
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})
	app.Get("/private", middleware.RequireAPISessionAuth, func(c *fiber.Ctx) error {
		return c.SendString(usercontext.CurrentUser(c).Email)
	})
	app.Get("/admin", middleware.RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, fan, admin
}

func login(t *testing.T, app *fiber.App, id uint) *http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login/"+strconv.Itoa(int(id)), nil))
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func get(t *testing.T, app *fiber.App, path string, cookie *http.Cookie, headers map[string]string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestUserContextMiddleware(t *testing.T) {
	app, fan, _ := newApp(t, "")

	_, body := get(t, app, "/whoami", nil, nil)
	var anon usercontext.UserContext
	require.NoError(t, json.Unmarshal([]byte(body), &anon))
	assert.False(t, anon.IsLoggedIn)

	cookie := login(t, app, fan.ID)
	_, body = get(t, app, "/whoami", cookie, nil)
	var uc usercontext.UserContext
	require.NoError(t, json.Unmarshal([]byte(body), &uc))
	assert.True(t, uc.IsLoggedIn)
	assert.Equal(t, fan.ID, uc.UserID)
	assert.Equal(t, "vip", uc.Plan)
	assert.Contains(t, uc.Avatar, "gravatar.com/avatar/")
	assert.False(t, uc.IsAdmin)

	ghost := login(t, app, 999)
	_, body = get(t, app, "/whoami", ghost, nil)
	require.NoError(t, json.Unmarshal([]byte(body), &uc))
	assert.False(t, uc.IsLoggedIn, "unknown users stay anonymous")
}

func TestRequireAPISessionAuth(t *testing.T) {
	app, fan, _ := newApp(t, "")

	resp, body := get(t, app, "/private", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "login required")

	resp, body = get(t, app, "/private", login(t, app, fan.ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "fan@example.com", body)
}

func TestRequireAdmin(t *testing.T) {
	app, fan, admin := newApp(t, "s3cret")

	tests := []struct {
		name    string
		cookie  *http.Cookie
		headers map[string]string
		want    int
	}{
		{"anonymous", nil, nil, fiber.StatusUnauthorized},
		{"member", login(t, app, fan.ID), nil, fiber.StatusForbidden},
		{"admin session", login(t, app, admin.ID), nil, fiber.StatusNoContent},
		{"api key header", nil, map[string]string{"X-API-Key": "s3cret"}, fiber.StatusNoContent},
		{"bearer token", nil, map[string]string{"Authorization": "Bearer s3cret"}, fiber.StatusNoContent},
		{"wrong key", nil, map[string]string{"X-API-Key": "nope"}, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := get(t, app, "/admin", tt.cookie, tt.headers)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
