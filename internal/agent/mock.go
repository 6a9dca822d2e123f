package agent

import (
	"context"

	"github.com/mergewarden/mergewarden/internal/config"
)

// MockAgentName is the identifier for the canned-response agent used in
// tests and dry runs
const MockAgentName = "mock"

func init() {
	Register(MockAgentName, NewMockAgent)
}

// MockAgent returns a fixed response without invoking anything external
type MockAgent struct {
	// Response is the canned reply; set directly by tests
	Response string

	// Err, when set, is returned from every invocation
	Err error

	// LastRequest records the most recent invocation
	LastRequest *Request
}

// NewMockAgent creates a mock agent with an empty review response
func NewMockAgent(_ *config.AgentConfig) (Agent, error) {
	return &MockAgent{
		Response: `{"summary": "No issues found.", "comments": []}`,
	}, nil
}

func (a *MockAgent) Name() string {
	return MockAgentName
}

func (a *MockAgent) Available() bool {
	return true
}

func (a *MockAgent) Invoke(_ context.Context, req *Request) (string, error) {
	a.LastRequest = req
	if a.Err != nil {
		return "", a.Err
	}
	return a.Response, nil
}
