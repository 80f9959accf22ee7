package admin

import (
	"net/http"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database"
	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Middleware restricts routes to site admins.
type Middleware struct {
	db     database.Client
	logger *zap.Logger
}

// New creates a new admin gate middleware.
func New(db database.Client, logger *zap.Logger) *Middleware {
	return &Middleware{
		db:     db,
		logger: logger.Named("admin_gate"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware that rejects callers who
// are not in the site admin allow-list. It must run behind the session
// middleware.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		sess, ok := session.FromContext(req.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return nil
		}

		isAdmin, err := m.db.Model().Admin().IsSiteAdmin(req.Context(), sess.UserID)
		if err != nil {
			m.logger.Error("Failed to check admin status",
				zap.String("userID", sess.UserID),
				zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)

			return nil
		}

		if !isAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return nil
		}

		return next(w, req)
	}
}
