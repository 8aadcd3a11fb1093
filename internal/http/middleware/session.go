package middleware

import (
	"context"
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/auth"
)

type userSlotKey struct{}

// withUserSlot gives outer middleware a place to read the session user
// once the inner chain has run
func withUserSlot(ctx context.Context, slot **auth.CurrentUser) context.Context {
	return context.WithValue(ctx, userSlotKey{}, slot)
}

// CaptureUser records the authenticated user for Logging. Mount it right
// after authentication.
func CaptureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(userSlotKey{}).(**auth.CurrentUser); ok {
			if user, found := auth.FromContext(r.Context()); found {
				*slot = user
			}
		}
		next.ServeHTTP(w, r)
	})
}
