// Package cookie centralizes the cookie policy for the login flows. Cookie
// attributes differ between local development and deployed environments:
// cross-site provider callbacks (Apple's form POST in particular) only carry
// cookies marked SameSite=None and Secure, while localhost development has no
// TLS and must fall back to SameSite=Lax.
package cookie

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// SessionName is the cookie holding the raw session bearer token.
	SessionName = "session"

	// CodeVerifierName is the cookie holding Google's PKCE verifier between
	// the redirect and the callback.
	CodeVerifierName = "google_code_verifier"

	// stateMaxAge bounds how long a login attempt may take.
	stateMaxAge = 10 * time.Minute
)

// IsLocalRequest reports whether the request targets a localhost deployment.
func IsLocalRequest(c echo.Context) bool {
	host := c.Request().Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return strings.EqualFold(host, "localhost") || host == "127.0.0.1" || host == "::1"
}

func attributes(c echo.Context, forceSecure bool) (http.SameSite, bool) {
	if IsLocalRequest(c) && !forceSecure {
		return http.SameSiteLaxMode, false
	}

	return http.SameSiteNoneMode, true
}

// SetState writes a short-lived login-attempt cookie (state or PKCE verifier).
func SetState(c echo.Context, name, value string, forceSecure bool) {
	sameSite, secure := attributes(c, forceSecure)
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(stateMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: sameSite,
		Secure:   secure,
	})
}

// Read returns the named cookie's value, or empty when absent.
func Read(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}

	return ck.Value
}

// Clear expires the named cookie immediately.
func Clear(c echo.Context, name string, forceSecure bool) {
	sameSite, secure := attributes(c, forceSecure)
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: sameSite,
		Secure:   secure,
	})
}

// SetSession writes the session bearer token cookie, valid until the
// session's expiry. Called on login and again whenever the sliding window
// extends the session.
func SetSession(c echo.Context, token string, expiresAt time.Time, forceSecure bool) {
	sameSite, secure := attributes(c, forceSecure)
	c.SetCookie(&http.Cookie{
		Name:     SessionName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: sameSite,
		Secure:   secure,
	})
}

// ClearSession expires the session cookie.
func ClearSession(c echo.Context, forceSecure bool) {
	Clear(c, SessionName, forceSecure)
}
