package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resellerdash/config"
	"resellerdash/models"
	"resellerdash/utils"
)

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", Protected(), func(c *fiber.Ctx) error {
		admin, ok := CurrentAdmin(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(admin.Username)
	})
	return app
}

func TestProtected(t *testing.T) {
	config.AppConfig.JWTSecret = "middleware-secret"
	config.AppConfig.JWTExpiry = time.Hour
	token, _, err := utils.GenerateJWTToken(models.AdminUser{AdminID: 1, Username: "admin"})
	require.NoError(t, err)
	app := protectedApp()

	cases := []struct {
		name   string
		build  func() *http.Request
		status int
	}{
		{"no token", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/me", nil) }, fiber.StatusUnauthorized},
		{"bad scheme", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			r.Header.Set("Authorization", "Basic abc")
			return r
		}, fiber.StatusUnauthorized},
		{"garbage token", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			r.Header.Set("Authorization", "Bearer nope")
			return r
		}, fiber.StatusUnauthorized},
		{"bearer", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			return r
		}, fiber.StatusOK},
		{"query", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/me?token="+token, nil) }, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(tc.build())
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "admin", string(body))
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{
		AllowedOrigins: ParseOrigins("https://dash.example.com, http://localhost:3000"),
		AllowedMethods: []string{"GET"},
		MaxAge:         600,
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://dash.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLoginRateLimiter(t *testing.T) {
	config.AppConfig.LoginRateLimit = 2
	config.AppConfig.Redis.Enabled = false
	app := fiber.New()
	app.Post("/login", LoginRateLimiter(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
