// Package httperr shapes every API response into the uniform envelope:
// {ok: true, payload: ...} on success and {ok: false, errors: {msg}} on
// failure, with domain errors mapped to HTTP status codes.
package httperr

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/database"
	"github.com/albedo-dev/albedo/internal/query"
	"github.com/albedo-dev/albedo/internal/resource"
)

// Notifier receives server-side failures. The Telegram notifier
// implements it; tests pass nil.
type Notifier interface {
	NotifyError(source string, err error)
}

// OK writes a success envelope.
func OK(c fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{
		"ok":      true,
		"payload": payload,
	})
}

// Fail writes a failure envelope with the given message.
func Fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"ok":     false,
		"errors": fiber.Map{"msg": msg},
	})
}

// Respond maps a domain error to its status code and writes the
// failure envelope. Unrecognized errors become an opaque 500; those are
// logged and forwarded to the notifier.
func Respond(c fiber.Ctx, err error, notifier Notifier) error {
	var cerr *query.CoercionError
	switch {
	case errors.Is(err, resource.ErrInvalidID):
		return Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrAlreadyVerified):
		return Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenInvalid):
		return Fail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return Fail(c, fiber.StatusNotFound, "resource not found")
	case errors.Is(err, resource.ErrConflict),
		errors.Is(err, database.ErrDuplicate),
		errors.Is(err, database.ErrForeignKey),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrAccountBlocked):
		return Fail(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &cerr), errors.Is(err, database.ErrInvalidData):
		return Fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("request failed")
	if notifier != nil {
		notifier.NotifyError(c.Method()+" "+c.Path(), err)
	}
	return Fail(c, fiber.StatusInternalServerError, "internal server error")
}
