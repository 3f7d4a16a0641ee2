package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Supported identity providers.
const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
	ProviderNaver  = "naver"
)

const (
	googleIssuer    = "https://accounts.google.com"
	kakaoProfileURL = "https://kapi.kakao.com/v2/user/me"
	naverProfileURL = "https://openapi.naver.com/v1/nid/me"

	maxProfileBytes = 1 << 20
)

var (
	kakaoEndpoint = oauth2.Endpoint{
		AuthURL:   "https://kauth.kakao.com/oauth/authorize",
		TokenURL:  "https://kauth.kakao.com/oauth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	naverEndpoint = oauth2.Endpoint{
		AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
		TokenURL:  "https://nid.naver.com/oauth2.0/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
)

var (
	// ErrProviderNotConfigured is returned for a known provider without client credentials.
	ErrProviderNotConfigured = errors.New("provider is not configured")
	// ErrProfileUnavailable is returned when the provider profile cannot be read.
	ErrProfileUnavailable = errors.New("provider profile unavailable")
)

// IsKnownProvider reports whether name is in the dispatch table.
func IsKnownProvider(name string) bool {
	_, ok := identityNormalizers[name]
	return ok
}

// Provider runs one identity provider's side of the authorization code flow.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	// Authenticate exchanges code for a token and returns the caller's identity.
	// Token endpoint rejections wrap *oauth2.RetrieveError.
	Authenticate(ctx context.Context, code string) (Identity, error)
}

// Credentials are the client settings registered with a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// profileProvider serves providers whose identity comes from a profile endpoint.
type profileProvider struct {
	name       string
	config     *oauth2.Config
	profileURL string
	httpClient *http.Client
}

// NewKakaoProvider builds the Kakao provider. The client secret is optional.
func NewKakaoProvider(creds Credentials, httpClient *http.Client) Provider {
	return newProfileProvider(ProviderKakao, creds, kakaoEndpoint, []string{"profile_nickname"}, kakaoProfileURL, httpClient)
}

// NewNaverProvider builds the Naver provider.
func NewNaverProvider(creds Credentials, httpClient *http.Client) Provider {
	return newProfileProvider(ProviderNaver, creds, naverEndpoint, []string{"name", "email"}, naverProfileURL, httpClient)
}

func newProfileProvider(name string, creds Credentials, endpoint oauth2.Endpoint, scopes []string, profileURL string, httpClient *http.Client) *profileProvider {
	return &profileProvider{
		name: name,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		profileURL: profileURL,
		httpClient: httpClient,
	}
}

func (p *profileProvider) Name() string { return p.name }

func (p *profileProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *profileProvider) Authenticate(ctx context.Context, code string) (Identity, error) {
	ctx = withHTTPClient(ctx, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%s token exchange: %w", p.name, err)
	}

	raw, err := p.fetchProfile(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	return NormalizeIdentity(p.name, raw)
}

func (p *profileProvider) fetchProfile(ctx context.Context, token *oauth2.Token) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s profile request: %w", p.name, err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfileUnavailable, p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrProfileUnavailable, p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfileUnavailable, p.name, err)
	}
	return body, nil
}

// googleProvider reads the identity from the verified ID token.
type googleProvider struct {
	config     *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

// NewGoogleProvider performs OpenID discovery against Google and builds the provider.
func NewGoogleProvider(ctx context.Context, creds Credentials, httpClient *http.Client) (Provider, error) {
	provider, err := oidc.NewProvider(withHTTPClient(ctx, httpClient), googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	return &googleProvider{
		config:     config,
		verifier:   provider.Verifier(&oidc.Config{ClientID: creds.ClientID}),
		httpClient: httpClient,
	}, nil
}

func (g *googleProvider) Name() string { return ProviderGoogle }

func (g *googleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (g *googleProvider) Authenticate(ctx context.Context, code string) (Identity, error) {
	ctx = withHTTPClient(ctx, g.httpClient)

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("google token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return Identity{}, fmt.Errorf("%w: no id_token in google response", ErrProfileUnavailable)
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: verify id_token: %v", ErrProfileUnavailable, err)
	}

	var claims json.RawMessage
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("%w: parse claims: %v", ErrProfileUnavailable, err)
	}
	return NormalizeIdentity(ProviderGoogle, claims)
}

func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// Registry is the provider dispatch table.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry indexes providers by name.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Lookup returns the provider for name.
func (r *Registry) Lookup(name string) (Provider, error) {
	if !IsKnownProvider(name) {
		return nil, ErrUnknownProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrProviderNotConfigured
	}
	return p, nil
}

// Names lists the configured providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateState returns a random OAuth state value.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
