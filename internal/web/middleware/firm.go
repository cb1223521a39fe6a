package middleware

import (
	"context"
	"net/http"
	"strings"
)

// FirmHeader identifies the filing firm making a request.
const FirmHeader = "X-Firm-ID"

type firmKey struct{}

// Firm stores the X-Firm-ID header in the request context. Requests
// without it proceed with an empty firm; imports then skip applicant
// matching.
func Firm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(FirmHeader)); id != "" {
			r = r.WithContext(WithFirmID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// WithFirmID returns a context carrying the firm ID.
func WithFirmID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, firmKey{}, id)
}

// FirmID returns the firm ID stored by Firm, or "".
func FirmID(ctx context.Context) string {
	id, _ := ctx.Value(firmKey{}).(string)
	return id
}
