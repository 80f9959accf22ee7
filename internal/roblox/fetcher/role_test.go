package fetcher

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRoleManager(t *testing.T, handler http.HandlerFunc) *RoleManager {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	manager := NewRoleManager("test-cookie", 5*time.Second, zap.NewNop())
	manager.baseURL = server.URL

	return manager
}

func TestSetMemberRoleRetriesWithCSRFToken(t *testing.T) {
	t.Parallel()

	var requests int

	manager := newTestRoleManager(t, func(w http.ResponseWriter, r *http.Request) {
		requests++

		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/v1/groups/123/users/456", r.URL.Path)

		cookie, err := r.Cookie(".ROBLOSECURITY")
		require.NoError(t, err)
		require.Equal(t, "test-cookie", cookie.Value)

		if r.Header.Get(csrfTokenHeader) == "" {
			w.Header().Set(csrfTokenHeader, "challenge-token")
			w.WriteHeader(http.StatusForbidden)

			return
		}

		assert.Equal(t, "challenge-token", r.Header.Get(csrfTokenHeader))
		w.WriteHeader(http.StatusOK)
	})

	err := manager.SetMemberRole(t.Context(), 123, 456, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestSetMemberRoleNoRetryWhenFirstAttemptSucceeds(t *testing.T) {
	t.Parallel()

	var requests int

	manager := newTestRoleManager(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	})

	err := manager.SetMemberRole(t.Context(), 123, 456, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestSetMemberRoleMissingCSRFToken(t *testing.T) {
	t.Parallel()

	manager := newTestRoleManager(t, func(w http.ResponseWriter, _ *http.Request) {
		// 403 without a token cannot be retried
		w.WriteHeader(http.StatusForbidden)
	})

	err := manager.SetMemberRole(t.Context(), 123, 456, 7)
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
}

func TestSetMemberRoleUpstreamFailure(t *testing.T) {
	t.Parallel()

	manager := newTestRoleManager(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "group not found", http.StatusNotFound)
	})

	err := manager.SetMemberRole(t.Context(), 123, 456, 7)
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "group not found")
	assert.True(t, errors.Is(err, ErrUpstreamStatus))
}
