package logutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		value    string
		expected string
	}{
		{
			name:     "authorization masked",
			header:   "Authorization",
			value:    "Bearer eyJhbGciOi...",
			expected: "******",
		},
		{
			name:     "cookie masked",
			header:   "Cookie",
			value:    "session=abc123",
			expected: "******",
		},
		{
			name:     "api key masked case-insensitively",
			header:   "X-API-Key",
			value:    "sk-secret",
			expected: "******",
		},
		{
			name:     "plain header untouched",
			header:   "Content-Type",
			value:    "application/json",
			expected: "application/json",
		},
		{
			name:     "empty sensitive value stays empty",
			header:   "Authorization",
			value:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeHeader(tt.header, tt.value))
		})
	}
}

func TestSanitizeHeaders_DoesNotMutateInput(t *testing.T) {
	in := map[string]string{
		"Authorization": "Bearer token",
		"Accept":        "application/json",
	}

	out := SanitizeHeaders(in)

	assert.Equal(t, "******", out["Authorization"])
	assert.Equal(t, "application/json", out["Accept"])
	assert.Equal(t, "Bearer token", in["Authorization"])
}
