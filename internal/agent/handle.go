package agent

import (
	"context"
	"errors"
	"sync"
)

// ErrNotReady is returned by Get before initialization has finished.
var ErrNotReady = errors.New("agent is not initialized")

// Agent answers free-form questions.
type Agent interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Builder constructs the Agent during Init.
type Builder func(ctx context.Context) (Agent, error)

type state int

const (
	stateNotReady state = iota
	stateReady
	stateFailed
)

// Handle holds the application's single Agent. It starts not ready, is
// initialized at most once and is read-only afterwards.
type Handle struct {
	once  sync.Once
	mu    sync.RWMutex
	state state
	agent Agent
	err   error
}

// NewHandle returns a Handle in the not-ready state.
func NewHandle() *Handle {
	return &Handle{}
}

// Init runs build the first time it is called. Later calls return the first result.
func (h *Handle) Init(ctx context.Context, build Builder) error {
	h.once.Do(func() {
		agent, err := build(ctx)

		h.mu.Lock()
		defer h.mu.Unlock()
		if err != nil {
			h.state = stateFailed
			h.err = err
			return
		}
		h.state = stateReady
		h.agent = agent
	})

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Get returns the Agent, ErrNotReady, or the initialization error.
func (h *Handle) Get() (Agent, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch h.state {
	case stateReady:
		return h.agent, nil
	case stateFailed:
		return nil, h.err
	default:
		return nil, ErrNotReady
	}
}
