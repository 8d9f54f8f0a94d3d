// Package transport implements the per-request concerns attached to an
// outbound RDAP fetch: authentication, proxying, and compression
// (§4.5). All three are stateless and attached per-call; none own HTTP
// semantics beyond decorating a single request/response.
package transport

import (
	"encoding/base64"
	"net/http"
	"time"
)

// AuthScheme identifies which authentication mechanism is configured.
type AuthScheme string

const (
	AuthNone   AuthScheme = "none"
	AuthBasic  AuthScheme = "basic"
	AuthBearer AuthScheme = "bearer"
	AuthAPIKey AuthScheme = "apiKey"
	AuthOAuth2 AuthScheme = "oauth2"
)

// Auth configures outbound authentication (§4.5). Exactly one of the
// scheme-specific field groups is meaningful, selected by Scheme.
// Credentials are never logged.
type Auth struct {
	Scheme AuthScheme

	// basic
	User string
	Pass string

	// bearer
	Token string

	// apiKey
	KeyName  string
	KeyValue string

	// oauth2
	OAuth2Token *OAuth2Token
}

// OAuth2Token is a caller-managed bearer token with an expiry. The
// fetcher never refreshes it; the caller must call UpdateToken.
type OAuth2Token struct {
	Token     string
	ExpiresAt time.Time
}

// IsExpired reports whether the token has passed its expiry. A zero
// ExpiresAt means the token never expires.
func (t *OAuth2Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}

// UpdateToken replaces the token value and expiry in place.
func (t *OAuth2Token) UpdateToken(newToken string, expiresAt time.Time) {
	t.Token = newToken
	t.ExpiresAt = expiresAt
}

// Apply sets the authentication headers on req. It never logs what it
// sets.
func (a Auth) Apply(req *http.Request) {
	switch a.Scheme {
	case AuthBasic:
		req.SetBasicAuth(a.User, a.Pass)
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthAPIKey:
		if a.KeyName != "" {
			req.Header.Set(a.KeyName, a.KeyValue)
		}
	case AuthOAuth2:
		if a.OAuth2Token != nil {
			req.Header.Set("Authorization", "Bearer "+a.OAuth2Token.Token)
		}
	case AuthNone, "":
		// no-op
	}
}

// basicAuthHeader mirrors http.Request.SetBasicAuth's encoding, kept
// local so Auth can be unit-tested without constructing a Request.
func basicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
