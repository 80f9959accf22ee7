package types_test

import (
	"testing"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingJoinTransitionGraph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    types.PendingJoinStatus
		to      types.PendingJoinStatus
		allowed bool
	}{
		{"pending to captcha completed", types.PendingJoinStatusPendingCaptcha, types.PendingJoinStatusCaptchaCompleted, true},
		{"pending to failed", types.PendingJoinStatusPendingCaptcha, types.PendingJoinStatusFailed, true},
		{"pending straight to joined", types.PendingJoinStatusPendingCaptcha, types.PendingJoinStatusJoined, false},
		{"captcha completed to joined", types.PendingJoinStatusCaptchaCompleted, types.PendingJoinStatusJoined, true},
		{"captcha completed to failed", types.PendingJoinStatusCaptchaCompleted, types.PendingJoinStatusFailed, true},
		{"captcha completed back to pending", types.PendingJoinStatusCaptchaCompleted, types.PendingJoinStatusPendingCaptcha, false},
		{"joined is terminal", types.PendingJoinStatusJoined, types.PendingJoinStatusFailed, false},
		{"failed is terminal", types.PendingJoinStatusFailed, types.PendingJoinStatusCaptchaCompleted, false},
		{"no self transition", types.PendingJoinStatusPendingCaptcha, types.PendingJoinStatusPendingCaptcha, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPendingJoinTransitionUpdatesRecord(t *testing.T) {
	t.Parallel()

	now := time.Now()
	record := &types.PendingBotJoin{
		ID:     "req-1",
		Status: types.PendingJoinStatusPendingCaptcha,
	}

	require.NoError(t, record.Transition(types.PendingJoinStatusCaptchaCompleted, now))
	assert.Equal(t, types.PendingJoinStatusCaptchaCompleted, record.Status)
	assert.Equal(t, now, record.UpdatedAt)
}

func TestPendingJoinInvalidTransitionLeavesRecordUnmodified(t *testing.T) {
	t.Parallel()

	updatedAt := time.Now().Add(-time.Hour)
	record := &types.PendingBotJoin{
		ID:        "req-1",
		Status:    types.PendingJoinStatusJoined,
		UpdatedAt: updatedAt,
	}

	err := record.Transition(types.PendingJoinStatusFailed, time.Now())
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	assert.Equal(t, types.PendingJoinStatusJoined, record.Status)
	assert.Equal(t, updatedAt, record.UpdatedAt)
}

func TestPendingJoinActionTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action string
		target types.PendingJoinStatus
		known  bool
	}{
		{"mark_captcha_completed", types.PendingJoinStatusCaptchaCompleted, true},
		{"mark_joined", types.PendingJoinStatusJoined, true},
		{"mark_failed", types.PendingJoinStatusFailed, true},
		{"delete", "", false},
		{"mark_pending", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			t.Parallel()

			target, known := types.PendingJoinActionTarget(tt.action)
			assert.Equal(t, tt.known, known)
			assert.Equal(t, tt.target, target)
		})
	}
}

func TestPendingJoinStatusValid(t *testing.T) {
	t.Parallel()

	assert.True(t, types.PendingJoinStatusPendingCaptcha.Valid())
	assert.True(t, types.PendingJoinStatusFailed.Valid())
	assert.False(t, types.PendingJoinStatus("nonsense").Valid())
}
