package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"rewards/internal/core"
	"rewards/internal/services"
	"rewards/internal/source"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requestIDFrom reuses a well-formed incoming X-Request-ID or mints a new one.
func requestIDFrom(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Request-ID")); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// RequestID returns the request ID stored by the server middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusForError maps service errors to HTTP status codes and client messages.
func statusForError(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, core.ErrInvalidDateRange),
		errors.Is(err, core.ErrInvalidDateBound),
		errors.Is(err, services.ErrInvalidSort),
		errors.Is(err, ErrInvalidPage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, source.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, "transaction source unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request timed out"
	case errors.Is(err, context.Canceled):
		// Client went away; the status is only logged.
		return 499, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
