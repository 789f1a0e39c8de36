// Package session keeps the logged-in identity and the one-shot notices of a browser client in signed cookies
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bookshelf/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the signed session token
const CookieName = "session_token"

const tokenType = "session"

// ErrNoSession is returned when the request carries no session cookie
var ErrNoSession = errors.New("no session")

// TokenManager handles session token generation and validation
type TokenManager struct {
	secret string
	expiry time.Duration
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: secret,
		expiry: expiry,
	}
}

// Generate signs a token holding the username and role of sess
func (tm *TokenManager) Generate(sess *models.Session) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"username": sess.Username,
		"role":     string(sess.Role),
		"exp":      now.Add(tm.expiry).Unix(),
		"iat":      now.Unix(),
		"type":     tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate checks signature, expiry and type of a token and returns the session it carries
func (tm *TokenManager) Validate(tokenString string) (*models.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if t, ok := claims["type"].(string); !ok || t != tokenType {
		return nil, fmt.Errorf("token is not a session token")
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil, fmt.Errorf("username not found in token")
	}

	role, _ := claims["role"].(string)
	switch models.Role(role) {
	case models.RoleUser, models.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q in token", role)
	}

	return &models.Session{
		Username: username,
		Role:     models.Role(role),
	}, nil
}

// SetSessionCookie writes the token cookie for a freshly logged-in client
func (tm *TokenManager) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tm.expiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the token cookie
func (tm *TokenManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromRequest returns the session carried by the request cookie.
// ErrNoSession means there is no cookie at all; any other error means the cookie is unusable.
func (tm *TokenManager) SessionFromRequest(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	return tm.Validate(cookie.Value)
}
