package ratelimit

import (
	"net"
	"net/http"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/config"
	"github.com/Dpatt168/RoGrouper-sub001/pkg/utils"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const errRateLimit = "rate limit exceeded"

// limiterTTL is how long an idle client's limiter is kept around.
const limiterTTL = 10 * time.Minute

// Middleware implements per-IP rate limiting for API requests.
type Middleware struct {
	limiters *utils.TTLMap[string, *rate.Limiter]
	config   *config.RateLimit
	logger   *zap.Logger
}

// New creates a new rate limiting middleware.
func New(config *config.RateLimit, logger *zap.Logger) *Middleware {
	return &Middleware{
		limiters: utils.NewTTLMap[string, *rate.Limiter](limiterTTL),
		config:   config,
		logger:   logger.Named("ratelimit"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for rate limiting.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		clientIP := clientIP(req.Request)

		if !m.getLimiter(clientIP).Allow() {
			m.logger.Debug("Rate limit exceeded", zap.String("ip", clientIP))
			http.Error(w, errRateLimit, http.StatusTooManyRequests)

			return nil
		}

		return next(w, req)
	}
}

// getLimiter returns a rate limiter for the specified IP.
func (m *Middleware) getLimiter(clientIP string) *rate.Limiter {
	if limiter, exists := m.limiters.Get(clientIP); exists {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.BurstSize)
	m.limiters.Set(clientIP, limiter)

	return limiter
}

// clientIP extracts the client address, falling back to the raw remote
// address when it has no port.
func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}

	return host
}
