package web

// Errors are logged with full detail server-side and returned to clients
// through core.MapError as a message, a suggested action and a stable code.
// HTMX requests get an HTML alert fragment, API requests get JSON.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/logging"
	"github.com/JonMunkholm/intake/internal/pricing"
)

// Request-level errors. Their text matches the core.MapError patterns.
var (
	errNoFile           = errors.New("no file provided")
	errMalformedRequest = errors.New("malformed request")
	errUnknownVariant   = errors.New("unknown template variant")
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status of an error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errUnknownVariant):
		return http.StatusNotFound
	case errors.Is(err, pricing.ErrEmptySelection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrTooFewRows),
		errors.Is(err, core.ErrUnreadableFile),
		errors.Is(err, core.ErrMissingHeader):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNoFile), errors.Is(err, errMalformedRequest):
		return http.StatusBadRequest
	default:
		if core.IsUserFacing(err) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := ErrorAlert(msg).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render error alert", "error", err)
		}
		return
	}
	writeJSONStatus(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
