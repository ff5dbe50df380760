package api

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/albedo-dev/albedo/internal/httperr"
	"github.com/albedo-dev/albedo/internal/resource"
)

// EntityHandler serves entities nested under an assistant. Every
// operation first resolves the assistant from the path; entity reads
// and writes are scoped to it, and touching an entity through the
// wrong assistant is a 403.
type EntityHandler struct {
	entities   *resource.Service
	assistants *resource.Service
	notifier   httperr.Notifier
}

// NewEntityHandler creates the nested entities handler.
func NewEntityHandler(entities, assistants *resource.Service, notifier httperr.Notifier) *EntityHandler {
	return &EntityHandler{entities: entities, assistants: assistants, notifier: notifier}
}

// resolveAssistant parses the assistant path id and confirms the
// assistant exists. The typed id is returned for scoping.
func (h *EntityHandler) resolveAssistant(c fiber.Ctx) (any, error) {
	raw := c.Params("assistantID")
	if _, err := h.assistants.Get(c.RequestCtx(), raw); err != nil {
		return nil, err
	}
	return h.assistants.Descriptor().ParseID(raw)
}

// ownedBy reports whether the entity record belongs to the assistant.
func ownedBy(rec resource.Record, assistantID any) bool {
	return fmt.Sprint(rec["assistant_id"]) == fmt.Sprint(assistantID)
}

// List returns a page of the assistant's entities.
// GET /api/v1/assistants/:assistantID/entities
func (h *EntityHandler) List(c fiber.Ctx) error {
	assistantID, err := h.resolveAssistant(c)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	page, err := h.entities.List(c.RequestCtx(), c.Queries(), resource.Record{"assistant_id": assistantID})
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, page)
}

// ListAll returns every entity of the assistant.
// GET /api/v1/assistants/:assistantID/entities/all
func (h *EntityHandler) ListAll(c fiber.Ctx) error {
	assistantID, err := h.resolveAssistant(c)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	items, err := h.entities.ListAll(c.RequestCtx(), resource.Record{"assistant_id": assistantID})
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, items)
}

// Get returns one entity of the assistant.
// GET /api/v1/assistants/:assistantID/entities/:id
func (h *EntityHandler) Get(c fiber.Ctx) error {
	assistantID, err := h.resolveAssistant(c)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	rec, err := h.entities.Get(c.RequestCtx(), c.Params("id"))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	if !ownedBy(rec, assistantID) {
		return httperr.Fail(c, fiber.StatusForbidden, "entity does not belong to this assistant")
	}
	return httperr.OK(c, fiber.StatusOK, rec)
}

// Create inserts an entity under the assistant. The parent id comes
// from the path; any assistant_id in the body is overridden.
// POST /api/v1/assistants/:assistantID/entities
func (h *EntityHandler) Create(c fiber.Ctx) error {
	assistantID, err := h.resolveAssistant(c)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	data, err := bindRecord(c, h.entities.Descriptor())
	if err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	data["assistant_id"] = assistantID

	rec, err := h.entities.Create(c.RequestCtx(), data)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusCreated, rec)
}

// Update applies a partial update to the assistant's entity. The
// parent link is immutable through this endpoint.
// PUT /api/v1/assistants/:assistantID/entities/:id
func (h *EntityHandler) Update(c fiber.Ctx) error {
	assistantID, err := h.resolveAssistant(c)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	current, err := h.entities.Get(c.RequestCtx(), c.Params("id"))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	if !ownedBy(current, assistantID) {
		return httperr.Fail(c, fiber.StatusForbidden, "entity does not belong to this assistant")
	}

	data, err := bindRecord(c, h.entities.Descriptor())
	if err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	delete(data, "assistant_id")
	if len(data) == 0 {
		return httperr.Fail(c, fiber.StatusUnprocessableEntity, "request body contains no usable fields")
	}

	rec, err := h.entities.Update(c.RequestCtx(), c.Params("id"), data)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, rec)
}

// Delete removes the assistant's entity and returns it.
// DELETE /api/v1/assistants/:assistantID/entities/:id
func (h *EntityHandler) Delete(c fiber.Ctx) error {
	assistantID, err := h.resolveAssistant(c)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	current, err := h.entities.Get(c.RequestCtx(), c.Params("id"))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	if !ownedBy(current, assistantID) {
		return httperr.Fail(c, fiber.StatusForbidden, "entity does not belong to this assistant")
	}

	rec, err := h.entities.Delete(c.RequestCtx(), c.Params("id"))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, rec)
}
