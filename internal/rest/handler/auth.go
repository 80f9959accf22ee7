package handler

import (
	"net/http"
	"strconv"

	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/oauth"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// AuthHandler handles the OAuth sign-in flow and session endpoints.
type AuthHandler struct {
	provider   *oauth.Provider
	states     *oauth.StateStore
	sessions   *session.Manager
	thumbnails *fetcher.ThumbnailFetcher
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	provider *oauth.Provider, states *oauth.StateStore, sessions *session.Manager,
	thumbnails *fetcher.ThumbnailFetcher, logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider:   provider,
		states:     states,
		sessions:   sessions,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

// Login mints a login state and returns the authorization URL.
func (h *AuthHandler) Login(w http.ResponseWriter, req bunrouter.Request) error {
	state, err := h.states.Mint(req.Context())
	if err != nil {
		h.logger.Error("Failed to mint login state", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to start login")
	}

	return bunrouter.JSON(w, restTypes.LoginResponse{
		URL:   h.provider.AuthCodeURL(state),
		State: state,
	})
}

// Callback completes the OAuth flow: the state is consumed, the code is
// exchanged, and a session cookie is set before redirecting to the dashboard.
func (h *AuthHandler) Callback(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	code := query.Get("code")
	if code == "" {
		return writeError(w, http.StatusBadRequest, "missing authorization code")
	}

	valid, err := h.states.Consume(req.Context(), query.Get("state"))
	if err != nil {
		h.logger.Error("Failed to validate login state", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to validate login state")
	}

	if !valid {
		return writeError(w, http.StatusBadRequest, "invalid or expired login state")
	}

	token, err := h.provider.Exchange(req.Context(), code)
	if err != nil {
		h.logger.Error("Failed to exchange authorization code", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "authorization code exchange failed")
	}

	info, err := h.provider.UserInfo(req.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("Failed to fetch user info", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to fetch user info")
	}

	signed, err := h.sessions.Mint(&session.Session{
		UserID:      info.Sub,
		Username:    info.PreferredUsername,
		DisplayName: info.Nickname,
		AvatarURL:   h.avatarURL(req, info),
		AccessToken: token.AccessToken,
	})
	if err != nil {
		h.logger.Error("Failed to mint session", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to create session")
	}

	h.sessions.SetCookie(w, signed)
	http.Redirect(w, req.Request, "/", http.StatusFound)

	return nil
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, req bunrouter.Request) error {
	h.sessions.ClearCookie(w)
	return bunrouter.JSON(w, restTypes.SuccessResponse{Success: true})
}

// Me describes the signed-in user, if any.
func (h *AuthHandler) Me(w http.ResponseWriter, req bunrouter.Request) error {
	cookie, err := req.Cookie(h.sessions.CookieName())
	if err != nil || cookie.Value == "" {
		return writeError(w, http.StatusUnauthorized, "not signed in")
	}

	sess, err := h.sessions.Verify(cookie.Value)
	if err != nil {
		return writeError(w, http.StatusUnauthorized, "invalid session")
	}

	return bunrouter.JSON(w, restTypes.MeResponse{
		UserID:      sess.UserID,
		Username:    sess.Username,
		DisplayName: sess.DisplayName,
		AvatarURL:   sess.AvatarURL,
	})
}

// avatarURL resolves the user's headshot, preferring the picture claim and
// falling back to a thumbnail lookup. Missing avatars are not an error.
func (h *AuthHandler) avatarURL(req bunrouter.Request, info *oauth.UserInfo) string {
	if info.Picture != "" {
		return info.Picture
	}

	userID, err := strconv.ParseUint(info.Sub, 10, 64)
	if err != nil {
		return ""
	}

	headshots := h.thumbnails.GetUserHeadshots(req.Context(), []uint64{userID})

	return headshots[userID]
}
