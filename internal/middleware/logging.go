package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/albedo-dev/albedo/internal/logutil"
)

// RequestLogger logs one structured line per request. Authorization
// and cookie headers are masked before they reach the log.
func RequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.IP()).
			Str("authorization", logutil.SanitizeHeader("Authorization", c.Get("Authorization"))).
			Msg("request")

		return err
	}
}
