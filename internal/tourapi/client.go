// Package tourapi calls the Korea Tourism Organization TourAPI (KorService1).
package tourapi

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
	// DefaultBaseURL is the public data portal endpoint for KorService1.
	DefaultBaseURL = "https://apis.data.go.kr/B551011/KorService1"

	serviceName = "tourapi"
)

// ErrMissingAPIKey is returned when TOUR_API_KEY is not configured.
var ErrMissingAPIKey = errors.New("tourapi: TOUR_API_KEY is not configured")

// Getter is the subset of upstream.Client used here.
type Getter interface {
	GetJSON(ctx context.Context, req upstream.Request) (json.RawMessage, error)
}

// KeywordQuery parameterizes searchKeyword1.
type KeywordQuery struct {
	Keyword string
	// ContentTypeID is sent whenever it is set.
	ContentTypeID *int
	// AreaCode and SigunguCode are sent only when non-zero.
	AreaCode    int
	SigunguCode int
	Page        int
	Size        int
}

// AreaQuery parameterizes areaBasedList1.
type AreaQuery struct {
	ContentTypeID *int
	AreaCode      int
	SigunguCode   int
	Page          int
	Size          int
}

// Client issues TourAPI list requests.
type Client struct {
	http      Getter
	apiKey    string
	baseURL   string
	mobileOS  string
	mobileApp string
}

// Option configures the Client during construction.
type Option func(*Client)

// WithBaseURL overrides the TourAPI base URL.
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

// SearchKeyword calls searchKeyword1.
func (c *Client) SearchKeyword(ctx context.Context, q KeywordQuery) (json.RawMessage, error) {
	values := c.listParams(q.ContentTypeID, q.AreaCode, q.SigunguCode, q.Page, q.Size)
	values.Set("keyword", q.Keyword)
	return c.get(ctx, "/searchKeyword1", values)
}

// AreaBasedList calls areaBasedList1.
func (c *Client) AreaBasedList(ctx context.Context, q AreaQuery) (json.RawMessage, error) {
	values := c.listParams(q.ContentTypeID, q.AreaCode, q.SigunguCode, q.Page, q.Size)
	return c.get(ctx, "/areaBasedList1", values)
}

func (c *Client) listParams(contentTypeID *int, areaCode, sigunguCode, page, size int) url.Values {
	values := url.Values{}
	values.Set("MobileOS", c.mobileOS)
	values.Set("MobileApp", c.mobileApp)
	values.Set("_type", "json")
	values.Set("pageNo", strconv.Itoa(page))
	values.Set("numOfRows", strconv.Itoa(size))
	values.Set("listYN", "Y")
	values.Set("arrange", "P")
	if contentTypeID != nil {
		values.Set("contentTypeId", strconv.Itoa(*contentTypeID))
	}
	if areaCode != 0 {
		values.Set("areaCode", strconv.Itoa(areaCode))
	}
	if sigunguCode != 0 {
		values.Set("sigunguCode", strconv.Itoa(sigunguCode))
	}
	return values
}

func (c *Client) get(ctx context.Context, path string, values url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	// serviceKey goes first and is escaped on its own; data.go.kr rejects keys that
	// are re-sorted or double-encoded by url.Values.
	rawQuery := "serviceKey=" + url.QueryEscape(c.apiKey) + "&" + values.Encode()
	return c.http.GetJSON(ctx, upstream.Request{
		Service:  serviceName,
		URL:      c.baseURL + path,
		RawQuery: rawQuery,
	})
}
