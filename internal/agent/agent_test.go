package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergewarden/mergewarden/internal/config"
	"github.com/mergewarden/mergewarden/pkg/errors"
)

func TestRegistry(t *testing.T) {
	names := List()
	assert.Contains(t, names, CLIAgentName)
	assert.Contains(t, names, MockAgentName)
}

func TestCreate_Unregistered(t *testing.T) {
	_, err := Create("no-such-agent", &config.AgentConfig{})
	require.Error(t, err)

	var agentErr *Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, "no-such-agent", agentErr.Agent)
}

func TestNewCLIAgent_MissingPath(t *testing.T) {
	_, err := NewCLIAgent(&config.AgentConfig{})
	assert.Error(t, err)
}

func TestNewCLIAgent_TimeoutDefault(t *testing.T) {
	a, err := NewCLIAgent(&config.AgentConfig{CLIPath: "/usr/bin/true"})
	require.NoError(t, err)
	assert.Equal(t, DefaultInvokeTimeout, a.(*CLIAgent).timeout)

	a, err = NewCLIAgent(&config.AgentConfig{CLIPath: "/usr/bin/true", Timeout: 30})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, a.(*CLIAgent).timeout)
}

func TestNewCLIAgent_APIKeyEnvDefault(t *testing.T) {
	a, err := NewCLIAgent(&config.AgentConfig{CLIPath: "/usr/bin/true"})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIKeyEnv, a.(*CLIAgent).apiKeyEnv)

	a, err = NewCLIAgent(&config.AgentConfig{CLIPath: "/usr/bin/true", APIKeyEnv: "MY_ASSISTANT_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "MY_ASSISTANT_KEY", a.(*CLIAgent).apiKeyEnv)
}

func TestCLIAgent_Available(t *testing.T) {
	a := &CLIAgent{cliPath: "/definitely/not/a/binary"}
	assert.False(t, a.Available())

	a = &CLIAgent{cliPath: "sh"}
	assert.True(t, a.Available())
}

// writeScript creates an executable shell script for exercising the CLI agent
func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-assistant.sh")
	require.NoError(t, os.WriteFile(path, []byte(content), 0700))
	return path
}

func TestCLIAgent_Invoke(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho \"review for: $1\"\n")

	a := &CLIAgent{cliPath: script, timeout: 10 * time.Second}
	out, err := a.Invoke(context.Background(), &Request{Prompt: "check this"})
	require.NoError(t, err)
	assert.Equal(t, "review for: check this\n", out)
}

func TestCLIAgent_Invoke_WorkDir(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\npwd\n")
	dir := t.TempDir()

	a := &CLIAgent{cliPath: script, timeout: 10 * time.Second}
	out, err := a.Invoke(context.Background(), &Request{Prompt: "p", WorkDir: dir})
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Base(dir))
}

func TestCLIAgent_Invoke_APIKeyEnv(t *testing.T) {
	// The key must surface under the configured variable name only
	script := writeScript(t, "#!/bin/sh\necho \"key=$MY_ASSISTANT_KEY\"\n")

	a := &CLIAgent{cliPath: script, apiKey: "sk-test", apiKeyEnv: "MY_ASSISTANT_KEY", timeout: 10 * time.Second}
	out, err := a.Invoke(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "key=sk-test\n", out)
}

func TestCLIAgent_Invoke_Failure(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho \"boom\" >&2\nexit 3\n")

	a := &CLIAgent{cliPath: script, timeout: 10 * time.Second}
	_, err := a.Invoke(context.Background(), &Request{Prompt: "p"})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAgentExecution, appErr.Code)
}

func TestCLIAgent_Invoke_Timeout(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nsleep 5\n")

	a := &CLIAgent{cliPath: script, timeout: 100 * time.Millisecond}
	_, err := a.Invoke(context.Background(), &Request{Prompt: "p"})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAgentTimeout, appErr.Code)
}

func TestMockAgent(t *testing.T) {
	a, err := Create(MockAgentName, &config.AgentConfig{})
	require.NoError(t, err)
	assert.True(t, a.Available())

	out, err := a.Invoke(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Contains(t, out, "summary")
}
