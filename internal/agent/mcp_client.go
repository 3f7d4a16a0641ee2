package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"pitchmate/internal/tools"
	"pitchmate/internal/upstream"
)

// Transport is the subset of upstream.Client the MCP client uses.
type Transport interface {
	GetJSON(ctx context.Context, req upstream.Request) (json.RawMessage, error)
	PostJSON(ctx context.Context, req upstream.Request, body any) (json.RawMessage, error)
}

// MCPClient talks to the /mcp REST surface.
type MCPClient struct {
	http    Transport
	baseURL string
}

// NewMCPClient constructs an MCPClient for baseURL, e.g. http://localhost:8000/mcp.
func NewMCPClient(transport Transport, baseURL string) *MCPClient {
	return &MCPClient{http: transport, baseURL: strings.TrimRight(baseURL, "/")}
}

// ListTools fetches the tool descriptors.
func (c *MCPClient) ListTools(ctx context.Context) ([]tools.Descriptor, error) {
	raw, err := c.http.GetJSON(ctx, upstream.Request{Service: "mcp", URL: c.baseURL + "/tools"})
	if err != nil {
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}

	var payload struct {
		Tools []tools.Descriptor `json:"tools"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode mcp tools: %w", err)
	}
	return payload.Tools, nil
}

// CallTool invokes name with a JSON object of arguments.
func (c *MCPClient) CallTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	if len(args) == 0 || !json.Valid(args) {
		return nil, fmt.Errorf("call mcp tool %s: arguments are not valid JSON", name)
	}
	raw, err := c.http.PostJSON(ctx, upstream.Request{
		Service: "mcp",
		URL:     c.baseURL + "/tools/" + url.PathEscape(name),
	}, args)
	if err != nil {
		return nil, fmt.Errorf("call mcp tool %s: %w", name, err)
	}
	return raw, nil
}
