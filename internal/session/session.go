package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/config"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrInvalidToken is returned when a session token fails verification.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrUnexpectedSigningMethod is returned when a token was signed with
	// something other than HMAC.
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
)

// Session is the signed-in user's identity carried by the session cookie.
type Session struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	AccessToken string `json:"-"`
}

// claims is the JWT claim set backing a session. The Roblox user id rides
// in the registered subject claim.
type claims struct {
	jwt.RegisteredClaims

	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// Manager mints and verifies session tokens and manages the session cookie.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewManager creates a session manager from the session configuration.
func NewManager(cfg *config.Session, logger *zap.Logger) *Manager {
	return &Manager{
		secret:     []byte(cfg.Secret),
		ttl:        time.Duration(cfg.TTL) * time.Minute,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		logger:     logger.Named("session"),
	}
}

// Mint signs a new session token for the given session.
func (m *Manager) Mint(session *Session) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username:    session.Username,
		DisplayName: session.DisplayName,
		AvatarURL:   session.AvatarURL,
		AccessToken: session.AccessToken,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a session token.
func (m *Manager) Verify(tokenString string) (*Session, error) {
	var parsed claims

	token, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}

		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if parsed.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserID:      parsed.Subject,
		Username:    parsed.Username,
		DisplayName: parsed.DisplayName,
		AvatarURL:   parsed.AvatarURL,
		AccessToken: parsed.AccessToken,
	}, nil
}

// SetCookie attaches the session token to the response as an HTTP-only cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}
