package fetcher_test

import (
	"testing"

	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	"github.com/stretchr/testify/assert"
)

func TestCoerceMemberLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"ten passes through", 10, 10},
		{"twenty five passes through", 25, 25},
		{"fifty passes through", 50, 50},
		{"hundred passes through", 100, 100},
		{"unsupported falls back", 37, 50},
		{"zero falls back", 0, 50},
		{"negative falls back", -5, 50},
		{"oversized falls back", 500, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fetcher.CoerceMemberLimit(tt.limit))
		})
	}
}
