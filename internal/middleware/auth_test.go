package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"videotube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func viewerToken(t *testing.T, sub string, exp time.Duration) string {
	return signToken(t, jwt.MapClaims{"sub": sub, "exp": time.Now().Add(exp).Unix()}, jwt.SigningMethodHS256, testSecret)
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"viewer":  ViewerID(c),
			"context": observability.ViewerID(c.UserContext()),
		})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedViewer string
	}{
		{"Happy Path", "Bearer " + viewerToken(t, "alice", time.Hour), http.StatusOK, "alice"},
		{"Missing Header", "", http.StatusUnauthorized, ""},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, ""},
		{"Expired Token", "Bearer " + viewerToken(t, "alice", -time.Hour), http.StatusUnauthorized, ""},
		{"Wrong Secret", "Bearer " + signToken(t, jwt.MapClaims{"sub": "alice"}, jwt.SigningMethodHS256, "other-secret"), http.StatusUnauthorized, ""},
		{"Missing Subject", "Bearer " + signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256, testSecret), http.StatusUnauthorized, ""},
		{"Wrong Algorithm", "Bearer " + signToken(t, jwt.MapClaims{"sub": "alice"}, jwt.SigningMethodHS512, testSecret), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedViewer, body["viewer"])
				assert.Equal(t, tt.expectedViewer, body["context"])
			} else {
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/test", OptionalAuth(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(ViewerID(c))
	})

	tests := []struct {
		name       string
		authHeader string
		want       string
	}{
		{"valid token", "Bearer " + viewerToken(t, "bob", time.Hour), "bob"},
		{"no token", "", ""},
		{"expired token", "Bearer " + viewerToken(t, "bob", -time.Hour), ""},
		{"garbage", "Bearer nope", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
