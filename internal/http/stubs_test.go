package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pitchmate/internal/agent"
	"pitchmate/internal/auth"
	"pitchmate/internal/config"
	"pitchmate/internal/gocamping"
	"pitchmate/internal/places"
	"pitchmate/internal/session"
	"pitchmate/internal/tools"
	"pitchmate/internal/tourapi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type placeFinderStub struct {
	searchTour    func(ctx context.Context, q tourapi.KeywordQuery) ([]places.Place, error)
	nearbySports  func(ctx context.Context, areaCode, sigunguCode, page, size int) ([]places.Place, error)
	searchCamping func(ctx context.Context, keyword string, page, size int) ([]places.Place, error)
	listCamping   func(ctx context.Context, page, size int) ([]places.Place, error)
	nearbyCamping func(ctx context.Context, q gocamping.LocationQuery) ([]places.Place, error)
}

func (s *placeFinderStub) SearchTour(ctx context.Context, q tourapi.KeywordQuery) ([]places.Place, error) {
	if s.searchTour != nil {
		return s.searchTour(ctx, q)
	}
	return nil, nil
}

func (s *placeFinderStub) NearbySports(ctx context.Context, areaCode, sigunguCode, page, size int) ([]places.Place, error) {
	if s.nearbySports != nil {
		return s.nearbySports(ctx, areaCode, sigunguCode, page, size)
	}
	return nil, nil
}

func (s *placeFinderStub) SearchCamping(ctx context.Context, keyword string, page, size int) ([]places.Place, error) {
	if s.searchCamping != nil {
		return s.searchCamping(ctx, keyword, page, size)
	}
	return nil, nil
}

func (s *placeFinderStub) ListCamping(ctx context.Context, page, size int) ([]places.Place, error) {
	if s.listCamping != nil {
		return s.listCamping(ctx, page, size)
	}
	return nil, nil
}

func (s *placeFinderStub) NearbyCamping(ctx context.Context, q gocamping.LocationQuery) ([]places.Place, error) {
	if s.nearbyCamping != nil {
		return s.nearbyCamping(ctx, q)
	}
	return nil, nil
}

type providerStub struct {
	name         string
	authenticate func(ctx context.Context, code string) (auth.Identity, error)
}

func (p *providerStub) Name() string { return p.name }

func (p *providerStub) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (p *providerStub) Authenticate(ctx context.Context, code string) (auth.Identity, error) {
	if p.authenticate != nil {
		return p.authenticate(ctx, code)
	}
	return auth.Identity{}, auth.ErrMissingExternalID
}

type loginRecorderStub struct {
	calls []string
}

func (l *loginRecorderStub) RecordLogin(provider string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	l.calls = append(l.calls, provider+":"+outcome)
}

type toolRegistryStub struct {
	list func() []tools.Descriptor
	call func(ctx context.Context, name string, payload map[string]any) (json.RawMessage, error)
}

func (s *toolRegistryStub) List() []tools.Descriptor {
	if s.list != nil {
		return s.list()
	}
	return nil
}

func (s *toolRegistryStub) Call(ctx context.Context, name string, payload map[string]any) (json.RawMessage, error) {
	if s.call != nil {
		return s.call(ctx, name, payload)
	}
	return json.RawMessage(`{}`), nil
}

type agentSourceStub struct {
	agent agent.Agent
	err   error
}

func (s agentSourceStub) Get() (agent.Agent, error) {
	return s.agent, s.err
}

type askFunc func(ctx context.Context, query string) (string, error)

func (f askFunc) Ask(ctx context.Context, query string) (string, error) { return f(ctx, query) }

func testConfig() config.Config {
	return config.Config{
		Environment:    "test",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

// testDependencies returns working defaults that individual tests override.
func testDependencies() Dependencies {
	issuer := session.NewIssuer("test-secret", time.Hour)
	return Dependencies{
		Places:    &placeFinderStub{},
		Providers: auth.NewRegistry(),
		Users:     auth.NewService(auth.NewInMemoryRepository()),
		Issuer:    issuer,
		Verifier:  issuer,
		Tools:     &toolRegistryStub{},
		Agent:     agentSourceStub{err: agent.ErrNotReady},
	}
}

func serve(t *testing.T, deps Dependencies, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(testConfig(), deps, discardLogger()).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}
