// Package api wires the Fiber HTTP layer: route registration, request
// handlers and the server lifecycle.
package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/albedo-dev/albedo/internal/httperr"
	"github.com/albedo-dev/albedo/internal/resource"
)

// ResourceHandler serves the generic CRUD endpoints for one resource.
type ResourceHandler struct {
	svc      *resource.Service
	notifier httperr.Notifier
}

// NewResourceHandler creates a handler over the resource service.
func NewResourceHandler(svc *resource.Service, notifier httperr.Notifier) *ResourceHandler {
	return &ResourceHandler{svc: svc, notifier: notifier}
}

// List returns a page of records.
// GET /api/v1/<resource>
func (h *ResourceHandler) List(c fiber.Ctx) error {
	page, err := h.svc.List(c.RequestCtx(), c.Queries(), nil)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, page)
}

// ListAll returns every record without pagination.
// GET /api/v1/<resource>/all
func (h *ResourceHandler) ListAll(c fiber.Ctx) error {
	items, err := h.svc.ListAll(c.RequestCtx(), nil)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, items)
}

// Get returns one record by id.
// GET /api/v1/<resource>/:id
func (h *ResourceHandler) Get(c fiber.Ctx) error {
	rec, err := h.svc.Get(c.RequestCtx(), c.Params("id"))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, rec)
}

// Create inserts a record from the request body.
// POST /api/v1/<resource>
func (h *ResourceHandler) Create(c fiber.Ctx) error {
	data, err := bindRecord(c, h.svc.Descriptor())
	if err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(data) == 0 {
		return httperr.Fail(c, fiber.StatusUnprocessableEntity, "request body contains no usable fields")
	}

	rec, err := h.svc.Create(c.RequestCtx(), data)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusCreated, rec)
}

// Update applies a partial update from the request body.
// PUT /api/v1/<resource>/:id
func (h *ResourceHandler) Update(c fiber.Ctx) error {
	data, err := bindRecord(c, h.svc.Descriptor())
	if err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(data) == 0 {
		return httperr.Fail(c, fiber.StatusUnprocessableEntity, "request body contains no usable fields")
	}

	rec, err := h.svc.Update(c.RequestCtx(), c.Params("id"), data)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, rec)
}

// Delete removes one record and returns it.
// DELETE /api/v1/<resource>/:id
func (h *ResourceHandler) Delete(c fiber.Ctx) error {
	rec, err := h.svc.Delete(c.RequestCtx(), c.Params("id"))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, rec)
}

// DeleteManyRequest is the body of a bulk delete.
type DeleteManyRequest struct {
	IDs []string `json:"ids"`
}

// DeleteMany removes a batch of records by id. One bad id rejects the
// whole request before anything is deleted.
// POST /api/v1/<resource>/delete_many
func (h *ResourceHandler) DeleteMany(c fiber.Ctx) error {
	var req DeleteManyRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.DeleteMany(c.RequestCtx(), req.IDs)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, result)
}

// bindRecord decodes the JSON body into a record, keeping only columns
// the resource schema declares writable. The primary key and the
// timestamps are server-managed and always dropped.
func bindRecord(c fiber.Ctx, desc *resource.Descriptor) (resource.Record, error) {
	var raw map[string]any
	if err := c.Bind().Body(&raw); err != nil {
		return nil, err
	}

	data := resource.Record{}
	for key, value := range raw {
		if key == desc.IDColumn || key == "created_at" || key == "updated_at" {
			continue
		}
		if !desc.Schema.HasColumn(key) {
			continue
		}
		data[key] = value
	}
	return data, nil
}
