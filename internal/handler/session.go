package handler

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie names the HttpOnly cookie carrying the opaque session key.
// Exported so the rate limiter can key requests by session.
const SessionCookie = "storefront_session"

// sessionMaxAge keeps the cookie for thirty days of inactivity.
const sessionMaxAge = 30 * 24 * 60 * 60

// sessionKey returns the session key from the request cookie, or "" when the
// visitor has none yet.
func sessionKey(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// ensureSession returns the request's session key, minting and setting a new
// one when absent. Reads never mint; only cart mutations call this.
func ensureSession(w http.ResponseWriter, r *http.Request) string {
	if key := sessionKey(r); key != "" {
		return key
	}
	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    key,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}
