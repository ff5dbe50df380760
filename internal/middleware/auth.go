// Package middleware provides the HTTP middleware for the Albedo API:
// JWT authentication, role guards and request logging.
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/albedo-dev/albedo/internal/auth"
)

// Locals keys populated by RequireAuth.
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalUserRole  = "user_role"
	LocalToken     = "token"
)

// Authenticator validates an access token and returns its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// RequireAuth validates the bearer token and stores the caller's
// identity in Locals. Requests without a valid token get 401.
func RequireAuth(authn Authenticator) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return unauthorized(c, "missing bearer token")
		}

		claims, err := authn.Authenticate(c.RequestCtx(), token)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalUserEmail, claims.Email)
		c.Locals(LocalUserRole, claims.Role)
		c.Locals(LocalToken, token)
		return c.Next()
	}
}

// RequireRole allows only callers whose role is in the list. It must
// run after RequireAuth.
func RequireRole(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		role, _ := c.Locals(LocalUserRole).(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"ok":     false,
			"errors": fiber.Map{"msg": "insufficient permissions"},
		})
	}
}

func extractBearerToken(c fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"ok":     false,
		"errors": fiber.Map{"msg": msg},
	})
}
