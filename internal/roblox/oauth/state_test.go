package oauth_test

import (
	"testing"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/oauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupStateStore(t *testing.T, ttl time.Duration) (*oauth.StateStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return oauth.NewStateStore(client, ttl, zap.NewNop()), mr
}

func TestStateMintAndConsume(t *testing.T) {
	t.Parallel()

	store, _ := setupStateStore(t, time.Minute)
	ctx := t.Context()

	state, err := store.Mint(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	valid, err := store.Consume(ctx, state)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestStateReplayRejected(t *testing.T) {
	t.Parallel()

	store, _ := setupStateStore(t, time.Minute)
	ctx := t.Context()

	state, err := store.Mint(ctx)
	require.NoError(t, err)

	valid, err := store.Consume(ctx, state)
	require.NoError(t, err)
	require.True(t, valid)

	// Second consume of the same state must fail
	valid, err = store.Consume(ctx, state)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestStateUnknownRejected(t *testing.T) {
	t.Parallel()

	store, _ := setupStateStore(t, time.Minute)

	valid, err := store.Consume(t.Context(), "never-minted")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestStateEmptyRejected(t *testing.T) {
	t.Parallel()

	store, _ := setupStateStore(t, time.Minute)

	valid, err := store.Consume(t.Context(), "")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestStateExpires(t *testing.T) {
	t.Parallel()

	store, mr := setupStateStore(t, time.Second)
	ctx := t.Context()

	state, err := store.Mint(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	valid, err := store.Consume(ctx, state)
	require.NoError(t, err)
	assert.False(t, valid)
}
