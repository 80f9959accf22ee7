package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	authURL     = "https://apis.roblox.com/oauth/v1/authorize"
	tokenURL    = "https://apis.roblox.com/oauth/v1/token"
	userInfoURL = "https://apis.roblox.com/oauth/v1/userinfo"
)

var (
	// ErrExchangeFailed is returned when the token endpoint rejects the code.
	ErrExchangeFailed = errors.New("authorization code exchange failed")
	// ErrUserInfoFailed is returned when the userinfo endpoint rejects the token.
	ErrUserInfoFailed = errors.New("userinfo request failed")
)

// Config holds the Roblox OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Token is the result of an authorization code exchange.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token"`
}

// UserInfo is the OIDC userinfo claim set for a signed-in Roblox user.
// Sub carries the Roblox user id.
type UserInfo struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	Nickname          string `json:"nickname"`
	PreferredUsername string `json:"preferred_username"`
	Picture           string `json:"picture"`
}

// Provider implements the Roblox OIDC login flow.
type Provider struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new Roblox OAuth provider.
func New(config Config, timeout time.Duration, logger *zap.Logger) *Provider {
	return &Provider{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("oauth"),
	}
}

// AuthCodeURL builds the authorization URL for the given state.
func (p *Provider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURI},
		"response_type": {"code"},
		"scope":         {"openid profile"},
		"state":         {state},
	}

	return authURL + "?" + params.Encode()
}

// Exchange trades an authorization code for tokens.
func (p *Provider) Exchange(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.RedirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("Token exchange rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))

		return nil, fmt.Errorf("%w: status %d", ErrExchangeFailed, resp.StatusCode)
	}

	var token Token
	if err := sonic.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrExchangeFailed)
	}

	return &token, nil
}

// UserInfo fetches the OIDC claims for an access token.
func (p *Provider) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUserInfoFailed, resp.StatusCode)
	}

	var info UserInfo
	if err := sonic.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrUserInfoFailed)
	}

	return &info, nil
}
