// Package gocamping calls the GoCamping campsite API.
package gocamping

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"pitchmate/internal/upstream"
)

const (
	// DefaultBaseURL is the public data portal endpoint for GoCamping.
	DefaultBaseURL = "https://apis.data.go.kr/B551011/GoCamping"

	serviceName = "gocamping"
)

// ErrMissingAPIKey is returned when GOCAMPING_API_KEY is not configured.
var ErrMissingAPIKey = errors.New("gocamping: GOCAMPING_API_KEY is not configured")

// Getter is the subset of upstream.Client used here.
type Getter interface {
	GetJSON(ctx context.Context, req upstream.Request) (json.RawMessage, error)
}

// LocationQuery parameterizes locationBasedList.
type LocationQuery struct {
	MapX     float64
	MapY     float64
	RadiusKM int
	Page     int
	Size     int
}

// Client issues GoCamping list requests.
type Client struct {
	http      Getter
	apiKey    string
	baseURL   string
	mobileOS  string
	mobileApp string
}

// Option configures the Client during construction.
type Option func(*Client)

// WithBaseURL overrides the GoCamping base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithClientIdentity sets the MobileOS and MobileApp parameters.
func WithClientIdentity(mobileOS, mobileApp string) Option {
	return func(c *Client) {
		if mobileOS != "" {
			c.mobileOS = mobileOS
		}
		if mobileApp != "" {
			c.mobileApp = mobileApp
		}
	}
}

// New constructs a Client. An empty apiKey is reported on first use.
func New(getter Getter, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:      getter,
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		mobileOS:  "ETC",
		mobileApp: "PitchMate",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BasedList calls basedList.
func (c *Client) BasedList(ctx context.Context, page, size int) (json.RawMessage, error) {
	return c.get(ctx, "/basedList", c.pageParams(page, size))
}

// SearchList calls searchList.
func (c *Client) SearchList(ctx context.Context, keyword string, page, size int) (json.RawMessage, error) {
	values := c.pageParams(page, size)
	values.Set("keyword", keyword)
	return c.get(ctx, "/searchList", values)
}

// LocationBasedList calls locationBasedList. The radius is sent in metres.
func (c *Client) LocationBasedList(ctx context.Context, q LocationQuery) (json.RawMessage, error) {
	values := c.pageParams(q.Page, q.Size)
	values.Set("mapX", strconv.FormatFloat(q.MapX, 'f', -1, 64))
	values.Set("mapY", strconv.FormatFloat(q.MapY, 'f', -1, 64))
	values.Set("radius", strconv.Itoa(q.RadiusKM*1000))
	return c.get(ctx, "/locationBasedList", values)
}

func (c *Client) pageParams(page, size int) url.Values {
	values := url.Values{}
	values.Set("MobileOS", c.mobileOS)
	values.Set("MobileApp", c.mobileApp)
	values.Set("_type", "json")
	values.Set("pageNo", strconv.Itoa(page))
	values.Set("numOfRows", strconv.Itoa(size))
	return values
}

func (c *Client) get(ctx context.Context, path string, values url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	rawQuery := "serviceKey=" + url.QueryEscape(c.apiKey) + "&" + values.Encode()
	return c.http.GetJSON(ctx, upstream.Request{
		Service:  serviceName,
		URL:      c.baseURL + path,
		RawQuery: rawQuery,
	})
}
