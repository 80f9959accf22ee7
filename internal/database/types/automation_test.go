package types_test

import (
	"testing"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/stretchr/testify/assert"
)

func TestSuspensionExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	past := types.Suspension{UserID: 1, ExpiresAt: now.Add(-time.Minute).UnixMilli()}
	assert.True(t, past.Expired(now))

	future := types.Suspension{UserID: 2, ExpiresAt: now.Add(time.Minute).UnixMilli()}
	assert.False(t, future.Expired(now))

	// Exact boundary counts as expired
	boundary := types.Suspension{UserID: 3, ExpiresAt: now.UnixMilli()}
	assert.True(t, boundary.Expired(time.UnixMilli(now.UnixMilli())))
}

func TestPartitionSuspensions(t *testing.T) {
	t.Parallel()

	now := time.Now()
	automation := &types.GroupAutomation{
		GroupID: "123",
		Suspensions: []types.Suspension{
			{UserID: 1, ExpiresAt: now.Add(-time.Hour).UnixMilli()},
			{UserID: 2, ExpiresAt: now.Add(time.Hour).UnixMilli()},
			{UserID: 3, ExpiresAt: now.Add(-time.Minute).UnixMilli()},
			{UserID: 4, ExpiresAt: now.Add(time.Minute).UnixMilli()},
		},
	}

	expired, pending := automation.PartitionSuspensions(now)

	// Order within each partition is preserved
	assert.Equal(t, []uint64{1, 3}, userIDs(expired))
	assert.Equal(t, []uint64{2, 4}, userIDs(pending))
}

func TestPartitionSuspensionsEmpty(t *testing.T) {
	t.Parallel()

	automation := &types.GroupAutomation{GroupID: "123"}

	expired, pending := automation.PartitionSuspensions(time.Now())
	assert.Empty(t, expired)
	assert.Empty(t, pending)
}

func userIDs(suspensions []types.Suspension) []uint64 {
	ids := make([]uint64, 0, len(suspensions))
	for _, s := range suspensions {
		ids = append(ids, s.UserID)
	}

	return ids
}
