package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pitchmate/internal/agent"
	"pitchmate/internal/auth"
	"pitchmate/internal/config"
	"pitchmate/internal/gocamping"
	transporthttp "pitchmate/internal/http"
	"pitchmate/internal/metrics"
	"pitchmate/internal/places"
	"pitchmate/internal/platform/database"
	"pitchmate/internal/platform/logging"
	"pitchmate/internal/platform/migrate"
	"pitchmate/internal/session"
	"pitchmate/internal/tools"
	"pitchmate/internal/tourapi"
	"pitchmate/internal/upstream"
)

const agentInitTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	userRepo, cleanup, err := buildUserRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	outbound := upstream.New(nil, upstream.WithObserver(collector), upstream.WithLogger(logger))
	// Tool and agent calls are not retried.
	singleShot := outbound.With(upstream.WithAttempts(1))

	tourClient := tourapi.New(outbound, cfg.TourAPIKey,
		tourapi.WithBaseURL(cfg.TourAPIBase),
		tourapi.WithClientIdentity(cfg.MobileOS, cfg.MobileApp),
	)
	campingClient := gocamping.New(outbound, cfg.GoCampingAPIKey,
		gocamping.WithBaseURL(cfg.GoCampingAPIBase),
		gocamping.WithClientIdentity(cfg.MobileOS, cfg.MobileApp),
	)

	toolRegistry := tools.NewRegistry(tools.Builtins(singleShot,
		tools.WebSearchConfig{APIKey: cfg.CustomSearchAPIKey, EngineID: cfg.CustomSearchEngineID},
		tools.DomainInfoConfig{APIKey: cfg.WhoisAPIKey},
	), tools.WithObserver(collector))

	issuer := session.NewIssuer(cfg.SecretKey, cfg.SessionTTL)
	agentHandle := agent.NewHandle()

	router := transporthttp.NewRouter(cfg, transporthttp.Dependencies{
		Places:    places.NewService(tourClient, campingClient),
		Providers: buildProviders(ctx, cfg, logger),
		Users:     auth.NewService(userRepo),
		Issuer:    issuer,
		Verifier:  issuer,
		Logins:    collector,
		Tools:     toolRegistry,
		Agent:     agentHandle,
		Metrics:   metrics.Handler(reg),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Error("failed to listen", "addr", srv.Addr, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("PitchMate API listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// The agent reads this server's own /mcp/tools, so it is built once the listener is up.
	go func() {
		initCtx, cancel := context.WithTimeout(ctx, agentInitTimeout)
		defer cancel()

		mcp := agent.NewMCPClient(singleShot, cfg.MCPServerURL)
		err := agentHandle.Init(initCtx, func(ctx context.Context) (agent.Agent, error) {
			return agent.New(ctx, agent.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel}, mcp, logger)
		})
		if err != nil {
			logger.Warn("agent disabled", "error", err)
			return
		}
		logger.Info("agent ready", "model", cfg.OpenAIModel)
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildUserRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.Repository, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory user repository")
		return auth.NewInMemoryRepository(), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, err
	}

	logger.Info("connected to postgres")
	return auth.NewPostgresRepository(db), cleanup, nil
}

// buildProviders registers every provider with a client id. The rest answer 500 at login.
func buildProviders(ctx context.Context, cfg config.Config, logger *slog.Logger) *auth.Registry {
	httpClient := &http.Client{Timeout: upstream.DefaultTimeout}
	redirect := func(provider string) string {
		return cfg.OAuthRedirectBase + "/auth/" + provider + "/callback"
	}

	var providers []auth.Provider

	if cfg.GoogleClientID != "" {
		google, err := auth.NewGoogleProvider(ctx, auth.Credentials{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  redirect(auth.ProviderGoogle),
		}, httpClient)
		if err != nil {
			logger.Warn("google login disabled", "error", err)
		} else {
			providers = append(providers, google)
		}
	}

	if cfg.KakaoClientID != "" {
		providers = append(providers, auth.NewKakaoProvider(auth.Credentials{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			RedirectURL:  redirect(auth.ProviderKakao),
		}, httpClient))
	}

	if cfg.NaverClientID != "" {
		providers = append(providers, auth.NewNaverProvider(auth.Credentials{
			ClientID:     cfg.NaverClientID,
			ClientSecret: cfg.NaverClientSecret,
			RedirectURL:  redirect(auth.ProviderNaver),
		}, httpClient))
	}

	registry := auth.NewRegistry(providers...)
	logger.Info("oauth providers configured", "providers", registry.Names())
	return registry
}
