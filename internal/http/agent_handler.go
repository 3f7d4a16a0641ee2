package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"pitchmate/internal/agent"
)

// AgentSource hands out the process-wide agent.
type AgentSource interface {
	Get() (agent.Agent, error)
}

// AgentHandler serves POST /agent/ask.
type AgentHandler struct {
	agents AgentSource
	logger *slog.Logger
}

// NewAgentHandler constructs an AgentHandler.
func NewAgentHandler(agents AgentSource, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{agents: agents, logger: logger}
}

// Ask answers {"query": "..."} with {"response": "..."}.
func (h *AgentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	a, err := h.agents.Get()
	if err != nil {
		if !errors.Is(err, agent.ErrNotReady) {
			h.logger.Error("agent unavailable", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "agent is not initialized")
		return
	}

	var payload struct {
		Query string `json:"query"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	query := strings.TrimSpace(payload.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := a.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("agent ask failed", "error", err)
		writeError(w, http.StatusInternalServerError, "agent failed to answer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}
