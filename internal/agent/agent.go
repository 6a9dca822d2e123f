// Package agent defines the review assistant interface and its registry.
// An agent receives a prompt plus a source tree root and returns the raw
// textual review; everything past that point is the parser's problem.
package agent

import (
	"context"

	"github.com/mergewarden/mergewarden/internal/config"
)

// Request carries one assistant invocation
type Request struct {
	// Prompt is the full review instruction text
	Prompt string

	// WorkDir is the checked-out source tree the assistant may browse
	WorkDir string
}

// Agent is a review assistant implementation
type Agent interface {
	// Name returns the agent identifier
	Name() string

	// Available reports whether the agent can be invoked right now
	Available() bool

	// Invoke runs one review round-trip and returns the raw response text
	Invoke(ctx context.Context, req *Request) (string, error)
}

// Factory creates an Agent from configuration
type Factory func(cfg *config.AgentConfig) (Agent, error)

// registry holds registered agent factories
var registry = make(map[string]Factory)

// Register registers an agent factory under a name. Called from package
// init functions of implementations.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Create builds the named agent from configuration
func Create(name string, cfg *config.AgentConfig) (Agent, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, &Error{Agent: name, Message: "agent not registered"}
	}
	return factory(cfg)
}

// List returns all registered agent names
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Error represents an agent-related error
type Error struct {
	Agent   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "[agent:" + e.Agent + "] " + e.Message + ": " + e.Err.Error()
	}
	return "[agent:" + e.Agent + "] " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
