package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albedo-dev/albedo/internal/auth"
)

type stubAuthenticator struct {
	claims *auth.Claims
	err    error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func stubClaims(role string) *auth.Claims {
	return &auth.Claims{
		Email: "alice@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newProtectedApp(authn Authenticator, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	final := func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals(LocalUserID),
			"email":   c.Locals(LocalUserEmail),
			"role":    c.Locals(LocalUserRole),
		})
	}
	// Middleware runs in registration order, before the handler.
	chain := make([]any, 0, len(extra)+1)
	for _, h := range extra {
		chain = append(chain, h)
	}
	chain = append(chain, final)
	app.Get("/protected", RequireAuth(authn), chain...)
	return app
}

func TestRequireAuth_ValidToken(t *testing.T) {
	claims := stubClaims(auth.RoleUser)
	app := newProtectedApp(&stubAuthenticator{claims: claims})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), claims.Subject)
	assert.Contains(t, string(body), "alice@example.com")
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	app := newProtectedApp(&stubAuthenticator{claims: stubClaims(auth.RoleUser)})

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	app := newProtectedApp(&stubAuthenticator{claims: stubClaims(auth.RoleUser)})

	for _, header := range []string{"some-token", "Basic abc123", "Bearer"} {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)

		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}

func TestRequireAuth_RejectedToken(t *testing.T) {
	app := newProtectedApp(&stubAuthenticator{err: auth.ErrTokenInvalid})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer revoked-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"ok":false`)
}

func TestRequireRole(t *testing.T) {
	t.Run("allowed role passes", func(t *testing.T) {
		app := newProtectedApp(
			&stubAuthenticator{claims: stubClaims(auth.RoleAdmin)},
			RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin),
		)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer token")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		app := newProtectedApp(
			&stubAuthenticator{claims: stubClaims(auth.RoleUser)},
			RequireRole(auth.RoleAdmin),
		)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer token")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}
