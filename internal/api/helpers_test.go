package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/config"
	"github.com/albedo-dev/albedo/internal/observability"
	"github.com/albedo-dev/albedo/internal/query"
	"github.com/albedo-dev/albedo/internal/resource"
)

// testEnv bundles the server with its in-memory backends.
type testEnv struct {
	server *Server

	users      *resource.MockStore
	assistants *resource.MockStore
	entities   *resource.MockStore
	cities     *resource.MockStore

	authSvc   *auth.Service
	userRepo  *auth.MockUserRepository
	jwtMgr    *auth.JWTManager
	healthErr map[string]error
}

const testJWTSecret = "test-secret-key-that-is-long-enough!"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Environment: "development",
		Server: config.ServerConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
			BodyLimit:    1 << 20,
		},
		Auth: config.AuthConfig{
			JWTSecret:           testJWTSecret,
			JWTExpiry:           time.Hour,
			LoginAttemptLimit:   5,
			BlockDuration:       2 * time.Hour,
			PasswordResetExpiry: 2 * time.Hour,
		},
		API: config.APIConfig{DefaultPageSize: 10, MaxPageSize: 100},
	}

	reg := resource.NewRegistry()
	limits := query.Limits{DefaultPageSize: 10, MaxPageSize: 100}

	env := &testEnv{
		users:      resource.NewMockStore(reg.Users),
		assistants: resource.NewMockStore(reg.Assistants),
		entities:   resource.NewMockStore(reg.Entities),
		cities:     resource.NewMockStore(reg.Cities),
		userRepo:   auth.NewMockUserRepository(),
		jwtMgr:     auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry),
		healthErr:  map[string]error{},
	}

	env.authSvc = auth.NewService(
		env.userRepo,
		auth.NewMockPasswordResetRepository(),
		auth.NewMockAccessLogRepository(),
		auth.NewMemoryBlacklist(),
		env.jwtMgr,
		cfg.Auth,
		cfg.IsDevelopment(),
	)

	env.server = NewServer(Deps{
		Config:      cfg,
		AuthService: env.authSvc,
		Users:       resource.NewService(reg.Users, env.users, limits),
		Assistants:  resource.NewService(reg.Assistants, env.assistants, limits),
		Entities:    resource.NewService(reg.Entities, env.entities, limits),
		Cities:      resource.NewService(reg.Cities, env.cities, limits),
		Metrics:     observability.NewMetrics(),
		HealthChecks: map[string]HealthCheck{
			"database": func(ctx context.Context) error { return env.healthErr["database"] },
			"redis":    func(ctx context.Context) error { return env.healthErr["redis"] },
		},
	})
	return env
}

// token registers a user with the role and returns a bearer token.
func (env *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	result, err := env.authSvc.Register(context.Background(), auth.RegisterInput{
		Name:     "Fixture " + role,
		Email:    role + "@example.com",
		Password: "fixture-password",
	})
	require.NoError(t, err)

	user := result.User
	user.Role = role
	require.NoError(t, env.userRepo.Update(context.Background(), user))

	token, err := env.jwtMgr.Generate(user)
	require.NoError(t, err)
	return token
}

// request performs one request against the app and decodes the JSON
// response body.
func (env *testEnv) request(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.server.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" &&
		resp.StatusCode != http.StatusNoContent {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

// payload extracts the success payload as a map.
func payload(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	p, ok := body["payload"].(map[string]any)
	require.True(t, ok, "body has no object payload: %v", body)
	return p
}
