// Package auth wraps the hosted identity provider behind the Gateway
// interface: sign-up, sign-in, sign-out, session retrieval, attribute
// updates, and password reset. Tokens live in memory only; the durable
// identity cache keeps just the email and display name.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the user-visible part of a session.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
}

// Tokens holds the bearer tokens for the current session.
type Tokens struct {
	IDToken     string
	AccessToken string
	Expiry      time.Time
}

// Session represents the authentication state of the running client.
// Invariant: tokens present implies authenticated.
type Session struct {
	Identity Identity
	Tokens   Tokens
}

// IsAuthenticated reports whether the session carries tokens.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Tokens.IDToken != ""
}

// Expired reports whether the session tokens have passed their expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.Tokens.Expiry.IsZero() && now.After(s.Tokens.Expiry)
}

// sessionFromTokens builds a Session from the provider's ID and access
// tokens. The ID token is decoded without signature verification: the
// client only reads claims, verification is the API's job.
func sessionFromTokens(idToken, accessToken string) (*Session, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode id token: %w", err)
	}

	s := &Session{
		Tokens: Tokens{IDToken: idToken, AccessToken: accessToken},
	}

	if email, ok := claims["email"].(string); ok {
		s.Identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		s.Identity.DisplayName = name
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.Tokens.Expiry = exp.Time
	}

	return s, nil
}
