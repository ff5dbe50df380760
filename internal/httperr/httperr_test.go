package httperr

import (
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/database"
	"github.com/albedo-dev/albedo/internal/query"
	"github.com/albedo-dev/albedo/internal/resource"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingNotifier) NotifyError(source string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, source)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func respondStatus(t *testing.T, err error, notifier Notifier) (int, string) {
	t.Helper()
	app := fiber.New()
	app.Get("/boom", func(c fiber.Ctx) error {
		return Respond(c, err, notifier)
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	resp, testErr := app.Test(req)
	require.NoError(t, testErr)
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	return resp.StatusCode, string(body)
}

func TestRespond_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid id", resource.ErrInvalidID, fiber.StatusBadRequest},
		{"already verified", auth.ErrAlreadyVerified, fiber.StatusBadRequest},
		{"bad credentials", auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"bad token", auth.ErrTokenInvalid, fiber.StatusUnauthorized},
		{"not found", database.ErrNotFound, fiber.StatusNotFound},
		{"user not found", auth.ErrUserNotFound, fiber.StatusNotFound},
		{"conflict", resource.ErrConflict, fiber.StatusConflict},
		{"duplicate", database.ErrDuplicate, fiber.StatusConflict},
		{"foreign key violation", database.ErrForeignKey, fiber.StatusConflict},
		{"email taken", auth.ErrEmailTaken, fiber.StatusConflict},
		{"account blocked", auth.ErrAccountBlocked, fiber.StatusConflict},
		{"coercion failure", &query.CoercionError{Field: "verified", Expected: "bool", Value: "x"}, fiber.StatusUnprocessableEntity},
		{"invalid data", database.ErrInvalidData, fiber.StatusUnprocessableEntity},
		{"wrapped not found", errors.Join(errors.New("ctx"), database.ErrNotFound), fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respondStatus(t, tt.err, nil)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body, `"ok":false`)
			assert.Contains(t, body, `"msg"`)
		})
	}
}

func TestRespond_UnknownErrorIsOpaque500(t *testing.T) {
	notifier := &recordingNotifier{}
	status, body := respondStatus(t, errors.New("pq: connection reset"), notifier)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, "internal server error")
	assert.NotContains(t, body, "connection reset", "internals must not leak to clients")
	assert.Equal(t, 1, notifier.count())
}

func TestRespond_ClientErrorsSkipNotifier(t *testing.T) {
	notifier := &recordingNotifier{}
	status, _ := respondStatus(t, database.ErrNotFound, notifier)

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Zero(t, notifier.count())
}

func TestOKEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c fiber.Ctx) error {
		return OK(c, fiber.StatusOK, fiber.Map{"value": 42})
	})

	req := httptest.NewRequest("GET", "/ok", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"ok":true`)
	assert.Contains(t, string(body), `"payload"`)
	assert.Contains(t, string(body), `"value":42`)
}
