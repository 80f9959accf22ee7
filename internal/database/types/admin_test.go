package types_test

import (
	"testing"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteAdminsAdd(t *testing.T) {
	t.Parallel()

	admins := &types.SiteAdmins{Admins: []string{"100"}}

	require.NoError(t, admins.Add("200"))
	assert.Equal(t, []string{"100", "200"}, admins.Admins)
}

func TestSiteAdminsAddDuplicateLeavesListUnchanged(t *testing.T) {
	t.Parallel()

	admins := &types.SiteAdmins{Admins: []string{"100", "200"}}

	err := admins.Add("200")
	require.ErrorIs(t, err, types.ErrAdminDuplicate)
	assert.Equal(t, []string{"100", "200"}, admins.Admins)
}

func TestSiteAdminsRemove(t *testing.T) {
	t.Parallel()

	admins := &types.SiteAdmins{Admins: []string{"100", "200"}}

	require.NoError(t, admins.Remove("200", "100"))
	assert.Equal(t, []string{"100"}, admins.Admins)
}

func TestSiteAdminsRemoveRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		admins  []string
		target  string
		actor   string
		wantErr error
	}{
		{"self removal", []string{"100", "200"}, "100", "100", types.ErrAdminSelfRemoval},
		{"unknown user", []string{"100", "200"}, "300", "100", types.ErrAdminNotFound},
		{"last admin", []string{"200"}, "200", "100", types.ErrAdminLastRemoval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			admins := &types.SiteAdmins{Admins: tt.admins}

			err := admins.Remove(tt.target, tt.actor)
			require.ErrorIs(t, err, tt.wantErr)

			// Rejections never mutate the list
			assert.Equal(t, tt.admins, admins.Admins)
		})
	}
}

func TestSiteAdminsContains(t *testing.T) {
	t.Parallel()

	admins := &types.SiteAdmins{Admins: []string{"100"}}

	assert.True(t, admins.Contains("100"))
	assert.False(t, admins.Contains("200"))
}
