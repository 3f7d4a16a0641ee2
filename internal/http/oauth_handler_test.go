package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"pitchmate/internal/auth"
	"pitchmate/internal/session"
)

func strPtr(s string) *string { return &s }

func callbackRequest(provider, query, state string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/"+provider+"/callback?"+query, nil)
	if state != "" {
		req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: state})
	}
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsStateCookieAndRedirects(t *testing.T) {
	deps := testDependencies()
	deps.Providers = auth.NewRegistry(&providerStub{name: auth.ProviderKakao})

	rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/auth/kakao/login", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	stateCookie := findCookie(rec, oauthStateCookieName)
	if stateCookie == nil || stateCookie.Value == "" || !stateCookie.HttpOnly {
		t.Fatalf("expected HttpOnly state cookie, got %+v", stateCookie)
	}
	location := rec.Header().Get("Location")
	if location != "https://idp.example.com/authorize?state="+stateCookie.Value {
		t.Fatalf("unexpected redirect %q", location)
	}
}

func TestLoginUnknownProviderIs404(t *testing.T) {
	rec := serve(t, testDependencies(), httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "unknown provider" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestLoginUnconfiguredProviderIs500(t *testing.T) {
	rec := serve(t, testDependencies(), httptest.NewRequest(http.MethodGet, "/auth/naver/login", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCallbackIssuesSessionCookie(t *testing.T) {
	logins := &loginRecorderStub{}
	deps := testDependencies()
	deps.Logins = logins
	deps.Providers = auth.NewRegistry(&providerStub{
		name: auth.ProviderKakao,
		authenticate: func(ctx context.Context, code string) (auth.Identity, error) {
			if code != "the-code" {
				t.Errorf("unexpected code %q", code)
			}
			return auth.Identity{ExternalID: "4242", Email: strPtr("camper@example.com"), Name: strPtr("캠퍼")}, nil
		},
	})

	rec := serve(t, deps, callbackRequest("kakao", "state=abc&code=the-code", "abc"))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if location := rec.Header().Get("Location"); location != "/me" {
		t.Fatalf("expected redirect to /me, got %q", location)
	}

	cookie := findCookie(rec, session.CookieName)
	if cookie == nil {
		t.Fatal("expected access_token cookie")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" || cookie.MaxAge != 3600 || cookie.Secure {
		t.Fatalf("unexpected cookie attributes %+v", cookie)
	}

	claims, err := deps.Verifier.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Subject != "kakao:4242" || claims.Provider != "kakao" || claims.Email == nil || *claims.Email != "camper@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if cleared := findCookie(rec, oauthStateCookieName); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected state cookie to be cleared, got %+v", cleared)
	}
	if len(logins.calls) != 1 || logins.calls[0] != "kakao:success" {
		t.Fatalf("unexpected login metrics %v", logins.calls)
	}
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	deps := testDependencies()
	deps.Providers = auth.NewRegistry(&providerStub{name: auth.ProviderNaver})

	for name, req := range map[string]*http.Request{
		"missing cookie": callbackRequest("naver", "state=abc&code=c", ""),
		"mismatch":       callbackRequest("naver", "state=abc&code=c", "xyz"),
	} {
		rec := serve(t, deps, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
		if findCookie(rec, session.CookieName) != nil {
			t.Fatalf("%s: no session cookie expected", name)
		}
	}
}

func TestCallbackMapsAuthenticationErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "token exchange rejected",
			err:     fmt.Errorf("kakao token exchange: %w", &oauth2.RetrieveError{ErrorCode: "invalid_client", ErrorDescription: "Bad client credentials"}),
			status:  http.StatusBadRequest,
			message: "OAuth token exchange failed: invalid_client - Bad client credentials",
		},
		{
			name:    "missing external id",
			err:     auth.ErrMissingExternalID,
			status:  http.StatusBadRequest,
			message: "cannot read user info",
		},
		{
			name:    "profile unavailable",
			err:     fmt.Errorf("%w: kakao returned status 401", auth.ErrProfileUnavailable),
			status:  http.StatusBadRequest,
			message: "cannot read user info",
		},
		{
			name:    "unexpected",
			err:     errors.New("connection reset"),
			status:  http.StatusInternalServerError,
			message: "authentication failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logins := &loginRecorderStub{}
			deps := testDependencies()
			deps.Logins = logins
			deps.Providers = auth.NewRegistry(&providerStub{
				name: auth.ProviderKakao,
				authenticate: func(ctx context.Context, code string) (auth.Identity, error) {
					return auth.Identity{}, tc.err
				},
			})

			rec := serve(t, deps, callbackRequest("kakao", "state=s&code=c", "s"))

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if msg := decodeError(t, rec); msg != tc.message {
				t.Fatalf("unexpected error %q", msg)
			}
			if len(logins.calls) != 1 || logins.calls[0] != "kakao:failure" {
				t.Fatalf("unexpected login metrics %v", logins.calls)
			}
		})
	}
}

func TestCallbackReportsProviderError(t *testing.T) {
	deps := testDependencies()
	deps.Providers = auth.NewRegistry(&providerStub{name: auth.ProviderNaver})

	rec := serve(t, deps, callbackRequest("naver", "state=s&error=access_denied&error_description=user+cancelled", "s"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "OAuth token exchange failed: access_denied - user cancelled" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestCallbackRequiresCode(t *testing.T) {
	deps := testDependencies()
	deps.Providers = auth.NewRegistry(&providerStub{name: auth.ProviderNaver})

	rec := serve(t, deps, callbackRequest("naver", "state=s", "s"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
