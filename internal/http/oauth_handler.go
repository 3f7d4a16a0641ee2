package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"pitchmate/internal/auth"
	"pitchmate/internal/session"
)

const (
	oauthStateCookieName = "pitchmate_oauth_state"
	oauthStateCookiePath = "/auth"
	oauthStateCookieTTL  = 10 * time.Minute

	postLoginPath = "/me"
)

// ProviderLookup resolves a provider name from the URL.
type ProviderLookup interface {
	Lookup(name string) (auth.Provider, error)
}

// UserUpserter records a successful login.
type UserUpserter interface {
	Upsert(ctx context.Context, provider string, identity auth.Identity) (auth.User, error)
}

// TokenIssuer signs the session token placed in the access_token cookie.
type TokenIssuer interface {
	Issue(p session.Principal) (string, error)
	TTL() time.Duration
}

// LoginRecorder counts login outcomes per provider.
type LoginRecorder interface {
	RecordLogin(provider string, ok bool)
}

// OAuthHandler runs the login redirect and the provider callback.
type OAuthHandler struct {
	providers    ProviderLookup
	users        UserUpserter
	issuer       TokenIssuer
	logins       LoginRecorder
	logger       *slog.Logger
	secureCookie bool
}

// NewOAuthHandler creates a new OAuthHandler. logins may be nil.
func NewOAuthHandler(providers ProviderLookup, users UserUpserter, issuer TokenIssuer, logins LoginRecorder, secureCookie bool, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		providers:    providers,
		users:        users,
		issuer:       issuer,
		logins:       logins,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Login handles GET /auth/{provider}/login by redirecting to the provider's consent screen.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.lookup(w, r)
	if !ok {
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     oauthStateCookiePath,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthStateCookieTTL.Seconds()),
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback: exchange, upsert, issue the session cookie.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.lookup(w, r)
	if !ok {
		return
	}
	name := provider.Name()
	query := r.URL.Query()

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("oauth callback: missing state cookie", "provider", name)
		h.fail(w, name, http.StatusBadRequest, "invalid OAuth state")
		return
	}
	if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(stateCookie.Value)) != 1 {
		h.logger.Warn("oauth callback: state mismatch", "provider", name)
		h.fail(w, name, http.StatusBadRequest, "invalid OAuth state")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     oauthStateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("oauth callback: provider error", "provider", name, "error", errParam)
		h.fail(w, name, http.StatusBadRequest, fmt.Sprintf("OAuth token exchange failed: %s - %s", errParam, query.Get("error_description")))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, name, http.StatusBadRequest, "missing authorization code")
		return
	}

	identity, err := provider.Authenticate(r.Context(), code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		switch {
		case errors.As(err, &retrieveErr):
			h.logger.Warn("oauth callback: token exchange rejected", "provider", name, "error", err)
			h.fail(w, name, http.StatusBadRequest, fmt.Sprintf("OAuth token exchange failed: %s - %s", retrieveErr.ErrorCode, retrieveErr.ErrorDescription))
		case errors.Is(err, auth.ErrMissingExternalID), errors.Is(err, auth.ErrProfileUnavailable):
			h.logger.Warn("oauth callback: unreadable profile", "provider", name, "error", err)
			h.fail(w, name, http.StatusBadRequest, "cannot read user info")
		default:
			h.logger.Error("oauth callback: authentication failed", "provider", name, "error", err)
			h.fail(w, name, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	user, err := h.users.Upsert(r.Context(), name, identity)
	if err != nil {
		h.logger.Error("oauth callback: user upsert failed", "provider", name, "error", err)
		h.fail(w, name, http.StatusInternalServerError, "failed to save user")
		return
	}

	token, err := h.issuer.Issue(session.Principal{
		Provider:   name,
		ExternalID: identity.ExternalID,
		Email:      identity.Email,
	})
	if err != nil {
		h.logger.Error("oauth callback: token issue failed", "provider", name, "error", err)
		h.fail(w, name, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, sessionCookie(token, h.issuer.TTL(), h.secureCookie))
	h.record(name, true)
	h.logger.Info("oauth login successful", "provider", name, "user_id", user.ID)

	http.Redirect(w, r, postLoginPath, http.StatusFound)
}

func (h *OAuthHandler) lookup(w http.ResponseWriter, r *http.Request) (auth.Provider, bool) {
	name := strings.ToLower(chi.URLParam(r, "provider"))
	provider, err := h.providers.Lookup(name)
	switch {
	case err == nil:
		return provider, true
	case errors.Is(err, auth.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, "unknown provider")
	case errors.Is(err, auth.ErrProviderNotConfigured):
		h.logger.Error("oauth provider not configured", "provider", name)
		writeError(w, http.StatusInternalServerError, "provider is not configured")
	default:
		h.logger.Error("oauth provider lookup failed", "provider", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
	return nil, false
}

func (h *OAuthHandler) fail(w http.ResponseWriter, provider string, status int, message string) {
	h.record(provider, false)
	writeError(w, status, message)
}

func (h *OAuthHandler) record(provider string, ok bool) {
	if h.logins != nil {
		h.logins.RecordLogin(provider, ok)
	}
}
