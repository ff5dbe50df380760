package api

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/resource"
)

func seedAssistantWithEntities(env *testEnv) {
	env.assistants.Seed(
		resource.Record{"name": "support-bot"},
		resource.Record{"name": "sales-bot"},
	)
	env.entities.Seed(
		resource.Record{"name": "greeting", "assistant_id": int64(1)},
		resource.Record{"name": "farewell", "assistant_id": int64(1)},
		resource.Record{"name": "pricing", "assistant_id": int64(2)},
	)
}

func TestEntities_ListIsScopedToAssistant(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.RoleUser)
	seedAssistantWithEntities(env)

	status, body := env.request(t, "GET", "/api/v1/assistants/1/entities", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	p := payload(t, body)
	items, ok := p["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
	for _, item := range items {
		rec := item.(map[string]any)
		assert.Equal(t, "1", fmt.Sprint(rec["assistant_id"]))
	}
}

func TestEntities_UnknownAssistantIs404(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.RoleUser)
	seedAssistantWithEntities(env)

	status, body := env.request(t, "GET", "/api/v1/assistants/99/entities", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, false, body["ok"])
}

func TestEntities_WrongParentIs403(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.RoleUser)
	seedAssistantWithEntities(env)

	// Entity 3 belongs to assistant 2, not assistant 1.
	status, body := env.request(t, "GET", "/api/v1/assistants/1/entities/3", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, false, body["ok"])

	// Writes through the wrong parent are rejected the same way.
	status, _ = env.request(t, "PUT", "/api/v1/assistants/1/entities/3", token, map[string]any{
		"name": "hijacked",
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = env.request(t, "DELETE", "/api/v1/assistants/1/entities/3", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, 3, env.entities.Len())
}

func TestEntities_CreateBindsParentFromPath(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.RoleUser)
	seedAssistantWithEntities(env)

	status, body := env.request(t, "POST", "/api/v1/assistants/2/entities", token, map[string]any{
		"name": "refund",
		// The body's parent id must lose against the path.
		"assistant_id": 1,
	})
	require.Equal(t, fiber.StatusCreated, status)
	created := payload(t, body)
	assert.Equal(t, "2", fmt.Sprint(created["assistant_id"]))
}

func TestEntities_UpdateCannotMoveBetweenAssistants(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.RoleUser)
	seedAssistantWithEntities(env)

	status, body := env.request(t, "PUT", "/api/v1/assistants/1/entities/1", token, map[string]any{
		"name":         "renamed",
		"assistant_id": 2,
	})
	require.Equal(t, fiber.StatusOK, status)

	updated := payload(t, body)
	assert.Equal(t, "renamed", updated["name"])
	assert.Equal(t, "1", fmt.Sprint(updated["assistant_id"]), "parent link is immutable")
}

func TestEntities_GetAndDeleteWithCorrectParent(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.RoleUser)
	seedAssistantWithEntities(env)

	status, body := env.request(t, "GET", "/api/v1/assistants/2/entities/3", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pricing", payload(t, body)["name"])

	status, _ = env.request(t, "DELETE", "/api/v1/assistants/2/entities/3", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, env.entities.Len())
}
