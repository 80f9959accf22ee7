package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// csrfTokenHeader is the header Roblox uses for CSRF challenges on
// authenticated writes.
const csrfTokenHeader = "x-csrf-token" //nolint:gosec // header name, not a credential

// RoleManager performs privileged role writes with the bot cookie.
// Write endpoints are not covered by the read API client, so requests go
// through a plain HTTP client with the cookie attached directly.
type RoleManager struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
	logger     *zap.Logger
}

// NewRoleManager creates a RoleManager using the given .ROBLOSECURITY cookie.
func NewRoleManager(cookie string, timeout time.Duration, logger *zap.Logger) *RoleManager {
	return &RoleManager{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://groups.roblox.com",
		cookie:     cookie,
		logger:     logger.Named("role_manager"),
	}
}

// SetMemberRole assigns a member to a role in a group. A 403 response is
// retried exactly once with the x-csrf-token the server handed back.
func (r *RoleManager) SetMemberRole(ctx context.Context, groupID, userID, roleID uint64) error {
	resp, err := r.patchRole(ctx, groupID, userID, roleID, "")
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusForbidden {
		token := resp.Header.Get(csrfTokenHeader)

		drainAndClose(resp)

		if token == "" {
			return &UpstreamError{StatusCode: resp.StatusCode, Body: "missing csrf token on 403 response"}
		}

		resp, err = r.patchRole(ctx, groupID, userID, roleID, token)
		if err != nil {
			return err
		}
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	r.logger.Debug("Set member role",
		zap.Uint64("groupID", groupID),
		zap.Uint64("userID", userID),
		zap.Uint64("roleID", roleID))

	return nil
}

func (r *RoleManager) patchRole(
	ctx context.Context, groupID, userID, roleID uint64, csrfToken string,
) (*http.Response, error) {
	url := fmt.Sprintf("%s/v1/groups/%d/users/%d", r.baseURL, groupID, userID)

	jsonBody, err := sonic.Marshal(map[string]uint64{"roleId": roleID})
	if err != nil {
		return nil, fmt.Errorf("error marshaling role request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating role request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: ".ROBLOSECURITY", Value: r.cookie})

	if csrfToken != "" {
		req.Header.Set(csrfTokenHeader, csrfToken)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing role request: %w", err)
	}

	return resp, nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
