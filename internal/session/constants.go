// Package session holds the session cookie settings shared by the handler
// and middleware packages.
package session

const (
	// CookieName is the cookie carrying the raw session token.
	CookieName = "fetch_session"

	// CookiePath sends the cookie with every request.
	CookiePath = "/"

	// HeaderPrefix introduces a session token in the Authorization header,
	// which is how the mobile client sends it.
	HeaderPrefix = "Bearer "
)
