package utils_test

import (
	"testing"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestTTLMap(t *testing.T) {
	t.Parallel()
	// Create a map with a short TTL for testing
	ttl := 100 * time.Millisecond
	m := utils.NewTTLMap[string, int](ttl)

	// Test Set and Get
	t.Run("basic set and get", func(t *testing.T) {
		t.Parallel()
		m.Set("test1", 123)
		value, exists := m.Get("test1")
		assert.True(t, exists)
		assert.Equal(t, 123, value)
	})

	// Test expiration
	t.Run("expiration", func(t *testing.T) {
		t.Parallel()
		m.Set("test2", 456)
		time.Sleep(ttl + 50*time.Millisecond) // Wait for expiration

		_, exists := m.Get("test2")
		assert.False(t, exists)
	})

	// Test Delete
	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		m.Set("test3", 789)
		m.Delete("test3")
		_, exists := m.Get("test3")
		assert.False(t, exists)
	})

	// Test non-existent key
	t.Run("non-existent key", func(t *testing.T) {
		t.Parallel()

		_, exists := m.Get("nonexistent")
		assert.False(t, exists)
	})

	// Test overwrite refreshes the value
	t.Run("overwrite", func(t *testing.T) {
		t.Parallel()
		m.Set("test4", 1)
		m.Set("test4", 2)
		value, exists := m.Get("test4")
		assert.True(t, exists)
		assert.Equal(t, 2, value)
	})
}

func TestTTLMapNonPositiveTTL(t *testing.T) {
	t.Parallel()

	// Construction must not panic and entries expire straight away
	for _, ttl := range []time.Duration{0, -time.Minute} {
		m := utils.NewTTLMap[string, int](ttl)
		m.Set("key", 1)

		_, exists := m.Get("key")
		assert.False(t, exists)
	}
}
