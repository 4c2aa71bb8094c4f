package errors

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))

	out := FormatForCLI(ConfigError("PORT must be a number", nil))
	assert.Contains(t, out, "Error: PORT must be a number")
	assert.Contains(t, out, "Code: ERR_102_CONFIG_INVALID")

	// Plain errors are reported as internal
	out = FormatForCLI(errors.New("disk full"))
	assert.Contains(t, out, "Error: disk full")
	assert.Contains(t, out, "Code: ERR_501_INTERNAL")
}

func TestLogAttrs_PlainError(t *testing.T) {
	attrs := LogAttrs(errors.New("boom"))

	assert.Equal(t, []any{slog.String("error", "boom")}, attrs)
	assert.Nil(t, LogAttrs(nil))
}

func TestLogAttrs_ServiceErrorWithSortedDetails(t *testing.T) {
	err := DecodeError("missing document", nil).
		WithDetail("topic", "menu").
		WithDetail("key", "new")

	attrs := LogAttrs(err)

	assert.Equal(t, []any{
		slog.String("error", "[ERR_401_DECODE_FAILED] missing document"),
		slog.String("error_code", ErrCodeDecodeFailed),
		slog.String("category", "VALIDATION"),
		slog.Bool("retryable", false),
		slog.String("detail_key", "new"),
		slog.String("detail_topic", "menu"),
	}, attrs)
}
