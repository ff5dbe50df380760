package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/httperr"
	"github.com/albedo-dev/albedo/internal/middleware"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	svc      *auth.Service
	notifier httperr.Notifier
	devMode  bool
}

// NewAuthHandler creates the auth handler. In development mode the
// verification and reset tokens are echoed in responses instead of
// being delivered by email.
func NewAuthHandler(svc *auth.Service, notifier httperr.Notifier, devMode bool) *AuthHandler {
	return &AuthHandler{svc: svc, notifier: notifier, devMode: devMode}
}

func requestMeta(c fiber.Ctx) auth.RequestMeta {
	return auth.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

// Register creates a new unverified account.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var in auth.RegisterInput
	if err := c.Bind().Body(&in); err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if in.Email == "" || in.Password == "" {
		return httperr.Fail(c, fiber.StatusUnprocessableEntity, "email and password are required")
	}

	result, err := h.svc.Register(c.RequestCtx(), in)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	payload := fiber.Map{"user": result.User}
	if h.devMode && result.VerificationToken != "" {
		payload["verification_token"] = result.VerificationToken
	}
	return httperr.OK(c, fiber.StatusCreated, payload)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns an access token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Login(c.RequestCtx(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	return httperr.OK(c, fiber.StatusOK, fiber.Map{
		"access_token": result.AccessToken,
		"token_type":   "bearer",
		"user":         result.User,
	})
}

// VerifyEmail consumes a verification token.
// GET /api/v1/auth/verify/:token
func (h *AuthHandler) VerifyEmail(c fiber.Ctx) error {
	user, err := h.svc.VerifyEmail(c.RequestCtx(), c.Params("token"))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, fiber.Map{
		"msg":  "email verified",
		"user": user,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts a password reset. The response is identical
// for known and unknown addresses.
// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.svc.ForgotPassword(c.RequestCtx(), req.Email, requestMeta(c))
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}

	payload := fiber.Map{"msg": "if the email exists, a reset link has been sent"}
	if h.devMode && token != "" {
		payload["reset_token"] = token
	}
	return httperr.OK(c, fiber.StatusOK, payload)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword consumes a reset token and sets a new password.
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" {
		return httperr.Fail(c, fiber.StatusUnprocessableEntity, "password is required")
	}

	if err := h.svc.ResetPassword(c.RequestCtx(), req.Token, req.Password); err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, fiber.Map{"msg": "password updated"})
}

// Logout revokes the presented token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalToken).(string)
	if err := h.svc.Logout(c.RequestCtx(), token); err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, fiber.Map{"msg": "logged out"})
}

// Me returns the authenticated user.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	claims, err := claimsFromLocals(c)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	id, err := claims.UserID()
	if err != nil {
		return httperr.Respond(c, auth.ErrTokenInvalid, h.notifier)
	}

	user, err := h.svc.GetUser(c.RequestCtx(), id)
	if err != nil {
		return httperr.Respond(c, err, h.notifier)
	}
	return httperr.OK(c, fiber.StatusOK, user)
}

// claimsFromLocals rebuilds the claims the auth middleware stored.
func claimsFromLocals(c fiber.Ctx) (*auth.Claims, error) {
	sub, _ := c.Locals(middleware.LocalUserID).(string)
	email, _ := c.Locals(middleware.LocalUserEmail).(string)
	role, _ := c.Locals(middleware.LocalUserRole).(string)
	if sub == "" {
		return nil, auth.ErrTokenInvalid
	}
	claims := &auth.Claims{Email: email, Role: role}
	claims.Subject = sub
	return claims, nil
}
