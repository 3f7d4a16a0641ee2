package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pitchmate/internal/tools"
)

// ToolRegistry is the MCP tool table.
type ToolRegistry interface {
	List() []tools.Descriptor
	Call(ctx context.Context, name string, payload map[string]any) (json.RawMessage, error)
}

// ToolsHandler exposes the tool table under /mcp.
type ToolsHandler struct {
	registry ToolRegistry
	logger   *slog.Logger
}

// NewToolsHandler constructs a ToolsHandler.
func NewToolsHandler(registry ToolRegistry, logger *slog.Logger) *ToolsHandler {
	return &ToolsHandler{registry: registry, logger: logger}
}

// List handles GET /mcp/tools.
func (h *ToolsHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.registry.List()})
}

// Call handles POST /mcp/tools/{tool_name}.
func (h *ToolsHandler) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "tool_name")

	var payload map[string]any
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	result, err := h.registry.Call(r.Context(), name, payload)
	if err != nil {
		var missing *tools.MissingParameterError
		switch {
		case errors.Is(err, tools.ErrUnknownTool):
			writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown tool '%s'", name))
		case errors.As(err, &missing):
			writeError(w, http.StatusBadRequest, missing.Error())
		default:
			h.logger.Error("tool call failed", "tool", name, "error", err)
			writeError(w, http.StatusInternalServerError, "tool call failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}
