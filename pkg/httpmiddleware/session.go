package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionHeader carries the shopper's session identifier. The storefront
// front end generates one per browser and sends it on every request; the
// middleware mints a fresh one when it is absent so anonymous carts still
// get a stable slot key for the duration of the response.
const SessionHeader = "X-Session-ID"

// sessionIDKey is the context key for the session ID value.
type sessionIDKey struct{}

// SessionIDFromContext extracts the session ID from the context. It returns
// an empty string if no session ID is present.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Session returns a middleware that ensures every request carries a session
// ID. A valid incoming X-Session-ID header is reused; otherwise a new UUID
// is generated. The effective ID is echoed on the response so the front end
// can persist it.
func Session() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if !isValidRequestID(id) {
				id = uuid.New().String()
			}

			w.Header().Set(SessionHeader, id)

			ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
