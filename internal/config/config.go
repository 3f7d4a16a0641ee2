package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the PitchMate API.
type Config struct {
	Environment    string
	HTTPPort       int
	DatabaseURL    string
	DataStore      string
	LogLevel       string
	AllowedOrigins []string

	SecretKey         string
	SessionTTL        time.Duration
	CookieSecure      bool
	OAuthRedirectBase string

	GoogleClientID     string
	GoogleClientSecret string
	KakaoClientID      string
	KakaoClientSecret  string
	NaverClientID      string
	NaverClientSecret  string

	TourAPIKey       string
	TourAPIBase      string
	GoCampingAPIKey  string
	GoCampingAPIBase string
	MobileOS         string
	MobileApp        string

	CustomSearchAPIKey   string
	CustomSearchEngineID string
	WhoisAPIKey          string

	OpenAIAPIKey string
	OpenAIModel  string
	MCPServerURL string
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/pitchmate_database_url")
	if err != nil {
		return Config{}, err
	}

	secretKey, err := getEnvOrFile("SECRET_KEY", "/run/secrets/pitchmate_secret_key")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:    getEnv("APP_ENV", "development"),
		DatabaseURL:    databaseURL,
		DataStore:      strings.ToLower(getEnv("DATA_STORE", "memory")),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins: parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000")),

		SecretKey:         strings.TrimSpace(secretKey),
		OAuthRedirectBase: strings.TrimRight(getEnv("OAUTH_REDIRECT_BASE", "http://localhost:8000"), "/"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		KakaoClientID:      os.Getenv("KAKAO_CLIENT_ID"),
		KakaoClientSecret:  os.Getenv("KAKAO_CLIENT_SECRET"),
		NaverClientID:      os.Getenv("NAVER_CLIENT_ID"),
		NaverClientSecret:  os.Getenv("NAVER_CLIENT_SECRET"),

		TourAPIKey:       os.Getenv("TOUR_API_KEY"),
		TourAPIBase:      getEnv("TOUR_API_BASE", "https://apis.data.go.kr/B551011/KorService1"),
		GoCampingAPIKey:  os.Getenv("GOCAMPING_API_KEY"),
		GoCampingAPIBase: getEnv("GOCAMP_API_BASE", "https://apis.data.go.kr/B551011/GoCamping"),
		MobileOS:         getEnv("MOBILE_OS", "ETC"),
		MobileApp:        getEnv("MOBILE_APP", "PitchMate"),

		CustomSearchAPIKey:   os.Getenv("CUSTOM_SEARCH_API_KEY"),
		CustomSearchEngineID: os.Getenv("CUSTOM_SEARCH_ENGINE_ID"),
		WhoisAPIKey:          os.Getenv("WHOIS_API_KEY"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		MCPServerURL: strings.TrimRight(getEnv("MCP_SERVER_URL", "http://localhost:8000/mcp"), "/"),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8000"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	expireValue := getEnv("JWT_EXPIRE_MINUTES", "60")
	expireMinutes, err := strconv.Atoi(expireValue)
	if err != nil || expireMinutes <= 0 {
		return Config{}, fmt.Errorf("invalid JWT_EXPIRE_MINUTES %q", expireValue)
	}
	cfg.SessionTTL = time.Duration(expireMinutes) * time.Minute

	secureValue := getEnv("COOKIE_SECURE", "false")
	secure, err := strconv.ParseBool(secureValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid COOKIE_SECURE %q: %w", secureValue, err)
	}
	cfg.CookieSecure = secure

	if cfg.SecretKey == "" {
		if !cfg.IsDevelopment() {
			return Config{}, fmt.Errorf("SECRET_KEY is required when APP_ENV is %q", cfg.Environment)
		}
		cfg.SecretKey = "dev"
	}

	if !cfg.IsDevelopment() {
		if len(cfg.AllowedOrigins) == 0 {
			return Config{}, fmt.Errorf("ALLOWED_ORIGINS must define at least one origin outside development")
		}
		for _, origin := range cfg.AllowedOrigins {
			if origin == "*" {
				return Config{}, fmt.Errorf("ALLOWED_ORIGINS cannot contain wildcard when credentials are allowed")
			}
		}
	}

	switch cfg.DataStore {
	case "memory", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported DATA_STORE %q", cfg.DataStore)
	}

	if cfg.DataStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory user repository should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// IsDevelopment reports whether the service runs with development defaults.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
