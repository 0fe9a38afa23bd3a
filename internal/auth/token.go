package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the current credential, or "" when unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a credential captured once and never refreshed here; its
// lifecycle belongs to the external auth system.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

const bearerPrefix = "Bearer "

// FromRequest extracts a bearer token from the Authorization header, falling
// back to the "token" cookie.
func FromRequest(r *http.Request) StaticToken {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return StaticToken(strings.TrimSpace(h[len(bearerPrefix):]))
	}
	if c, err := r.Cookie("token"); err == nil {
		return StaticToken(c.Value)
	}
	return ""
}

// Subject returns the "sub" claim of a JWT without verifying its signature.
// Anyone can mint a token with any subject, so use VerifiedSubject whenever
// the signing key is known. Opaque or malformed tokens yield "".
func Subject(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// VerifiedSubject is Subject for HS256 tokens signed with key. Tokens with a
// bad signature, another algorithm, or expired claims yield "". An empty key
// falls back to Subject.
func VerifiedSubject(token string, key []byte) string {
	if len(key) == 0 {
		return Subject(token)
	}
	if token == "" {
		return ""
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return ""
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
