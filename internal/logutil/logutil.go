// Package logutil configures the global zerolog logger and provides
// sanitization helpers so credentials never reach the logs.
package logutil

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/albedo-dev/albedo/internal/config"
)

// Setup configures the global logger from config. Development mode uses
// the human-readable console writer; everything else emits JSON.
func Setup(cfg config.LoggingConfig, pretty bool) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty || cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}

// sensitiveHeaders are request headers whose values must never be logged.
var sensitiveHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
	"x-api-key":     {},
	"api-key":       {},
}

// SanitizeHeader returns the header value, masking it when the header
// carries credentials.
func SanitizeHeader(name, value string) string {
	if _, sensitive := sensitiveHeaders[strings.ToLower(name)]; sensitive && value != "" {
		return "******"
	}
	return value
}

// SanitizeHeaders masks credential-bearing entries in a header map.
// The input map is not modified.
func SanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		out[name] = SanitizeHeader(name, value)
	}
	return out
}
