package httputil

import (
	"context"
	"net/http"
)

// Unexported key type so other packages cannot collide with the value the
// auth middleware stores.
type contextKey string

const userIDKey contextKey = "userID"

// WithUserID returns a request whose context carries the authenticated
// user's ID. The auth middleware sets it after verifying the token; every
// repository query is scoped by it as the owner.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID returns the authenticated user ID, or "" when the request never
// passed through the auth middleware.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
