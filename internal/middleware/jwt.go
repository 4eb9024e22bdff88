package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/classroom-api/internal/utils"
)

// Identity reads the caller identity from an optional bearer token.
// Requests without an Authorization header pass through anonymously; a malformed
// or unverifiable token is rejected. Tokens are issued elsewhere.
func Identity(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return c.Next()
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.FailWithCode(c, fiber.StatusUnauthorized, "unauthorized", "invalid authorization header", nil)
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.FailWithCode(c, fiber.StatusUnauthorized, "unauthorized", "invalid token", nil)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.FailWithCode(c, fiber.StatusUnauthorized, "unauthorized", "invalid token claims", nil)
		}

		if userID, ok := userIDFromClaims(claims); ok {
			c.Locals("user_id", userID)
		}
		if role := roleFromClaims(claims); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

// UserID returns the identity set by Identity, or zero for anonymous callers.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}

func userIDFromClaims(claims jwt.MapClaims) (uint, bool) {
	for _, key := range []string{"user_id", "sub", "id"} {
		switch v := claims[key].(type) {
		case float64:
			if v > 0 && v == float64(uint(v)) {
				return uint(v), true
			}
		case string:
			if parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil && parsed > 0 {
				return uint(parsed), true
			}
		}
	}
	return 0, false
}

func roleFromClaims(claims jwt.MapClaims) string {
	switch v := claims["role"].(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []interface{}:
		for _, item := range v {
			if role, ok := item.(string); ok && strings.TrimSpace(role) != "" {
				return strings.ToLower(strings.TrimSpace(role))
			}
		}
	}
	return ""
}
