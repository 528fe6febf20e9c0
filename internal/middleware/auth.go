// Package middleware provides the fiber middleware of the HTTP boundary.
package middleware

import (
	"strings"

	"videotube/internal/models"
	"videotube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ViewerLocal is the fiber local holding the authenticated viewer id.
const ViewerLocal = "viewerID"

// ViewerID returns the viewer id set by AuthRequired or OptionalAuth, or "".
func ViewerID(c *fiber.Ctx) string {
	if v, ok := c.Locals(ViewerLocal).(string); ok {
		return v
	}
	return ""
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", models.NewUnauthorizedError("Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.NewUnauthorizedError("Invalid authorization header format")
	}
	return parts[1], nil
}

// parseViewer validates an HS256 token and returns its subject.
func parseViewer(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}

	// subject claim per RFC 7519
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", models.NewUnauthorizedError("Invalid token structure - missing subject")
	}
	if err := models.ValidateID("token subject", sub); err != nil {
		return "", models.NewUnauthorizedError("Invalid viewer id in token")
	}
	return sub, nil
}

func setViewer(c *fiber.Ctx, viewerID string) {
	c.Locals(ViewerLocal, viewerID)
	c.SetUserContext(observability.WithViewerID(c.UserContext(), viewerID))
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		viewerID, err := parseViewer(tokenString, secret)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		setViewer(c, viewerID)
		return c.Next()
	}
}

// OptionalAuth identifies the viewer when a valid token is present. A missing
// or invalid token leaves the request anonymous.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Next()
		}
		viewerID, err := parseViewer(tokenString, secret)
		if err != nil {
			observability.Logger.DebugContext(c.UserContext(), "ignoring invalid token on optional auth route",
				"path", c.Path())
			return c.Next()
		}
		setViewer(c, viewerID)
		return c.Next()
	}
}
