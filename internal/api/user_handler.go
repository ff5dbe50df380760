package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/httperr"
	"github.com/albedo-dev/albedo/internal/resource"
)

// UserHandler extends the generic resource handler for the users
// resource: passwords arrive in plaintext and are hashed before the
// record reaches the store, and the hash never appears in responses.
type UserHandler struct {
	*ResourceHandler
}

// NewUserHandler creates the users management handler.
func NewUserHandler(svc *resource.Service, notifier httperr.Notifier) *UserHandler {
	return &UserHandler{ResourceHandler: NewResourceHandler(svc, notifier)}
}

type userWriteRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Verified *bool  `json:"verified"`
}

func (r userWriteRequest) record() (resource.Record, error) {
	data := resource.Record{}
	if r.Name != "" {
		data["name"] = r.Name
	}
	if r.Email != "" {
		data["email"] = r.Email
	}
	if r.Role != "" {
		data["role"] = r.Role
	}
	if r.Verified != nil {
		data["verified"] = *r.Verified
	}
	if r.Password != "" {
		hash, err := auth.HashPassword(r.Password)
		if err != nil {
			return nil, err
		}
		data["hashed_password"] = hash
	}
	return data, nil
}

// Create inserts a user with a hashed password.
// POST /api/v1/users
func (h *UserHandler) Create(c fiber.Ctx) error {
	var req userWriteRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return httperr.Fail(c, fiber.StatusUnprocessableEntity, "email and password are required")
	}

	data, err := req.record()
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	if _, ok := data["role"]; !ok {
		data["role"] = auth.RoleUser
	}

	rec, err := h.svc.Create(c.RequestCtx(), data)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusCreated, rec)
}

// Update applies a partial update, hashing the password when one is
// provided.
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c fiber.Ctx) error {
	var req userWriteRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	data, err := req.record()
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
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
