package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pitchmate/internal/upstream"
)

const (
	// DefaultCustomSearchURL is the Google Custom Search JSON API endpoint.
	DefaultCustomSearchURL = "https://customsearch.googleapis.com/customsearch/v1"
	// DefaultWhoisURL is the API Ninjas WHOIS endpoint.
	DefaultWhoisURL = "https://api.api-ninjas.com/v1/whois"

	searchResultCount = "5"
)

// Getter is the subset of upstream.Client the built-in tools use.
type Getter interface {
	GetJSON(ctx context.Context, req upstream.Request) (json.RawMessage, error)
}

// WebSearchConfig holds Google Custom Search credentials.
type WebSearchConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string
}

// DomainInfoConfig holds WHOIS API credentials.
type DomainInfoConfig struct {
	APIKey  string
	BaseURL string
}

// Builtins returns web_search and domain_info in that order.
func Builtins(getter Getter, search WebSearchConfig, whois DomainInfoConfig) []Tool {
	return []Tool{WebSearch(getter, search), DomainInfo(getter, whois)}
}

// WebSearch returns the web_search tool.
func WebSearch(getter Getter, cfg WebSearchConfig) Tool {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultCustomSearchURL
	}

	return Tool{
		Descriptor: Descriptor{
			Name:        "web_search",
			Description: "Perform web search using the Google Custom Search JSON API",
			Params: map[string]Param{
				"query": {Type: "string", Description: "Search query text"},
			},
		},
		Required: []string{"query"},
		Invoke: func(ctx context.Context, args map[string]string) (json.RawMessage, error) {
			if cfg.APIKey == "" || cfg.EngineID == "" {
				return nil, fmt.Errorf("%w: CUSTOM_SEARCH_API_KEY and CUSTOM_SEARCH_ENGINE_ID must be set", ErrNotConfigured)
			}
			values := url.Values{}
			values.Set("key", cfg.APIKey)
			values.Set("cx", cfg.EngineID)
			values.Set("q", args["query"])
			values.Set("num", searchResultCount)
			return getter.GetJSON(ctx, upstream.Request{
				Service:  "web_search",
				URL:      baseURL,
				RawQuery: values.Encode(),
			})
		},
	}
}

// DomainInfo returns the domain_info tool.
func DomainInfo(getter Getter, cfg DomainInfoConfig) Tool {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultWhoisURL
	}

	return Tool{
		Descriptor: Descriptor{
			Name:        "domain_info",
			Description: "Retrieve WHOIS registration information for a domain",
			Params: map[string]Param{
				"domain": {Type: "string", Description: "Domain name to look up"},
			},
		},
		Required: []string{"domain"},
		Invoke: func(ctx context.Context, args map[string]string) (json.RawMessage, error) {
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("%w: WHOIS_API_KEY must be set", ErrNotConfigured)
			}
			return getter.GetJSON(ctx, upstream.Request{
				Service:  "domain_info",
				URL:      baseURL,
				RawQuery: url.Values{"domain": {args["domain"]}}.Encode(),
				Header:   http.Header{"X-Api-Key": {cfg.APIKey}},
			})
		},
	}
}
