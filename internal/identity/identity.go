package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Provider resolves the id of the user the planner is acting for. The
// plan-item store consults it only when it must lazily create a week
// container.
type Provider interface {
	CurrentUserID() (string, error)
}

// Static is a fixed-user provider, used by the CLI and tests.
type Static struct {
	UserID string
}

// NewStatic creates a Static provider.
func NewStatic(userID string) *Static {
	return &Static{UserID: userID}
}

func (s *Static) CurrentUserID() (string, error) {
	if s.UserID == "" {
		return "", fmt.Errorf("no user configured")
	}
	return s.UserID, nil
}

// TokenProvider resolves the user from a signed HS256 session token, the way
// the hosted deployment hands identity to backend jobs.
type TokenProvider struct {
	token  string
	secret []byte
}

// NewTokenProvider creates a TokenProvider over a raw token and its signing
// secret.
func NewTokenProvider(token string, secret []byte) *TokenProvider {
	return &TokenProvider{token: token, secret: secret}
}

// CurrentUserID verifies the token and returns its subject claim.
func (p *TokenProvider) CurrentUserID() (string, error) {
	parsed, err := jwt.Parse(p.token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to verify session token: %w", err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return subject, nil
}
