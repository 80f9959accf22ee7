package database

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// slowQueryThreshold is how long a document query may run before it is
// logged at warn level. Document reads are single-row JSONB lookups, so
// anything slower usually means a missing index or a saturated pool.
const slowQueryThreshold = 500 * time.Millisecond

// Hook logs bun queries through zap, flagging failures and slow queries.
type Hook struct {
	logger *zap.Logger
}

// NewHook creates a query hook that logs under the db_query namespace.
func NewHook(logger *zap.Logger) *Hook {
	return &Hook{logger: logger.Named("db_query")}
}

// BeforeQuery implements bun.QueryHook.
func (h *Hook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery logs the query with a level picked from its outcome.
func (h *Hook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.String("query", event.Query),
		zap.Duration("duration", duration),
	}

	switch {
	case event.Err != nil:
		h.logger.Error("Query failed", append(fields, zap.Error(event.Err))...)
	case duration >= slowQueryThreshold:
		h.logger.Warn("Slow query", fields...)
	default:
		h.logger.Debug("Query executed", fields...)
	}
}
