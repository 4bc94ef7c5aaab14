package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const AuthCookieName = "authToken"

type TokenSource interface {
	Token() (string, error)
}

type StaticToken string

func (t StaticToken) Token() (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrMissingToken
	}
	return string(t), nil
}

// CookieToken reads the authToken cookie the jar holds for URL.
type CookieToken struct {
	Jar http.CookieJar
	URL *url.URL
}

func (c CookieToken) Token() (string, error) {
	if c.Jar == nil || c.URL == nil {
		return "", ErrMissingToken
	}
	for _, ck := range c.Jar.Cookies(c.URL) {
		if ck.Name == AuthCookieName && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", ErrMissingToken
}

// Claims is what the panel needs from the session token.
type Claims struct {
	UserID    string
	Email     string
	Name      string
	Role      string
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes the token payload without verifying the signature;
// the backend remains the authority, this only identifies the local user.
func ParseClaims(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("api: parse token: %w", err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("api: unexpected claims type %T", parsed.Claims)
	}
	out := Claims{
		UserID: firstString(mc, "id", "userId", "_id", "sub"),
		Email:  firstString(mc, "email"),
		Name:   firstString(mc, "name"),
		Role:   firstString(mc, "role"),
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func firstString(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := mc[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
