package session_test

import (
	"net/http/httptest"
	"testing"

	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T, secret string, ttlMinutes int) *session.Manager {
	t.Helper()

	return session.NewManager(&config.Session{
		Secret:     secret,
		TTL:        ttlMinutes,
		CookieName: "rg_session",
		Secure:     true,
	}, zap.NewNop())
}

func TestMintVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	manager := newManager(t, "test-secret", 60)

	token, err := manager.Mint(&session.Session{
		UserID:      "12345",
		Username:    "builderman",
		DisplayName: "Builderman",
		AvatarURL:   "https://example.com/headshot.webp",
		AccessToken: "oauth-access-token",
	})
	require.NoError(t, err)

	sess, err := manager.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "12345", sess.UserID)
	assert.Equal(t, "builderman", sess.Username)
	assert.Equal(t, "Builderman", sess.DisplayName)
	assert.Equal(t, "https://example.com/headshot.webp", sess.AvatarURL)
	assert.Equal(t, "oauth-access-token", sess.AccessToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	manager := newManager(t, "test-secret", 60)

	token, err := manager.Mint(&session.Session{UserID: "12345", Username: "builderman"})
	require.NoError(t, err)

	_, err = manager.Verify(token + "x")
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	minter := newManager(t, "secret-a", 60)
	verifier := newManager(t, "secret-b", 60)

	token, err := minter.Mint(&session.Session{UserID: "12345"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	// Zero TTL means the token is already expired when minted
	manager := newManager(t, "test-secret", 0)

	token, err := manager.Mint(&session.Session{UserID: "12345"})
	require.NoError(t, err)

	_, err = manager.Verify(token)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	manager := newManager(t, "test-secret", 60)

	_, err := manager.Verify("not-a-token")
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestSessionCookieAttributes(t *testing.T) {
	t.Parallel()

	manager := newManager(t, "test-secret", 60)
	rec := httptest.NewRecorder()

	manager.SetCookie(rec, "token-value")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	cookie := cookies[0]
	assert.Equal(t, "rg_session", cookie.Name)
	assert.Equal(t, "token-value", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 3600, cookie.MaxAge)
}

func TestClearCookieExpires(t *testing.T) {
	t.Parallel()

	manager := newManager(t, "test-secret", 60)
	rec := httptest.NewRecorder()

	manager.ClearCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
