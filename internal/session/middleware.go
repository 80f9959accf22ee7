package session

import (
	"context"
	"net/http"

	"github.com/uptrace/bunrouter"
)

type sessionCtxKey struct{}

// FromContext retrieves the verified session from the request context.
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return session, ok
}

// AsRESTMiddleware returns a bunrouter middleware that requires a valid
// session cookie and stores the session in the request context.
func (m *Manager) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		cookie, err := req.Cookie(m.cookieName)
		if err != nil || cookie.Value == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return nil
		}

		sess, err := m.Verify(cookie.Value)
		if err != nil {
			http.Error(w, "Invalid session", http.StatusUnauthorized)
			return nil
		}

		ctx := context.WithValue(req.Context(), sessionCtxKey{}, sess)
		req = req.WithContext(ctx)

		return next(w, req)
	}
}
