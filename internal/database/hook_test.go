package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueryHookLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		event     *bun.QueryEvent
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{
			name: "fast query logs at debug",
			event: &bun.QueryEvent{
				Query:     "SELECT data FROM documents",
				StartTime: time.Now(),
			},
			wantLevel: zap.DebugLevel,
			wantMsg:   "Query executed",
		},
		{
			name: "slow query logs at warn",
			event: &bun.QueryEvent{
				Query:     "SELECT data FROM documents",
				StartTime: time.Now().Add(-time.Second),
			},
			wantLevel: zap.WarnLevel,
			wantMsg:   "Slow query",
		},
		{
			name: "failed query logs at error",
			event: &bun.QueryEvent{
				Query:     "UPDATE documents SET data = data",
				StartTime: time.Now(),
				Err:       errors.New("connection reset"),
			},
			wantLevel: zap.ErrorLevel,
			wantMsg:   "Query failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.DebugLevel)
			hook := database.NewHook(zap.New(core))

			hook.AfterQuery(context.Background(), tt.event)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, tt.wantMsg, entries[0].Message)

			fields := entries[0].ContextMap()
			assert.Equal(t, tt.event.Query, fields["query"])
			assert.NotEmpty(t, fields["operation"])
		})
	}
}
