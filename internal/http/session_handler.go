package http

import (
	"net/http"
	"time"

	"pitchmate/internal/session"
)

// SessionHandler reports and clears the access_token session.
type SessionHandler struct {
	secureCookie bool
}

// NewSessionHandler returns a handler that writes cookies with the given Secure flag.
func NewSessionHandler(secureCookie bool) *SessionHandler {
	return &SessionHandler{secureCookie: secureCookie}
}

// Me returns the verified claims. It must run behind the auth middleware.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "claims": claims})
}

// Logout expires the session cookie.
func (h *SessionHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}

func sessionCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(ttl.Seconds()),
	}
}
