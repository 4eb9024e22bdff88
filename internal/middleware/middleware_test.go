package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "classroom-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func identityApp() *fiber.App {
	app := fiber.New()
	app.Use(Identity(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		return c.JSON(fiber.Map{"user_id": UserID(c), "role": role})
	})
	return app
}

func TestIdentityAllowsAnonymousRequests(t *testing.T) {
	resp, err := identityApp().Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, float64(0), body["user_id"])
}

func TestIdentityExtractsClaims(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "42", "role": "Student", "exp": time.Now().Add(time.Hour).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := identityApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, float64(42), body["user_id"])
	require.Equal(t, "student", body["role"])
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	cases := map[string]string{
		"wrong secret": "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": 1}),
		"expired":      "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Hour).Unix()}),
		"not bearer":   "Basic abc",
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		resp, err := identityApp().Test(req)
		require.NoError(t, err, name)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestCorrelationIDPropagates(t *testing.T) {
	app := fiber.New()
	Register(app, Config{Logger: func() *zerolog.Logger { l := zerolog.Nop(); return &l }()})
	app.Get("/api/v1/ping", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationIDFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(CorrelationHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get(CorrelationHeader))
}

func TestRateLimitPerIdentity(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User") == "7" {
			c.Locals("user_id", uint(7))
		}
		return c.Next()
	})
	app.Post("/take", RateLimit("take", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/take", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, send("7"))
	require.Equal(t, fiber.StatusOK, send("7"))
	require.Equal(t, fiber.StatusTooManyRequests, send("7"))
	require.Equal(t, fiber.StatusOK, send(""), "anonymous callers are keyed separately")
}
