package agent

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/internal/config"
	"github.com/mergewarden/mergewarden/pkg/errors"
	"github.com/mergewarden/mergewarden/pkg/logger"
)

// CLIAgentName is the identifier for the CLI-based agent
const CLIAgentName = "cli"

// DefaultInvokeTimeout bounds an invocation when no timeout is configured
const DefaultInvokeTimeout = 10 * time.Minute

// DefaultAPIKeyEnv is the environment variable the API key is exported
// under when api_key_env is not configured
const DefaultAPIKeyEnv = "ANTHROPIC_API_KEY"

func init() {
	Register(CLIAgentName, NewCLIAgent)
}

// CLIAgent invokes an assistant binary as a subprocess. The prompt goes in
// as the final argument, the working directory is the checked-out source
// tree, and stdout is the raw review text.
type CLIAgent struct {
	cliPath   string
	args      []string
	apiKey    string
	apiKeyEnv string
	timeout   time.Duration
}

// NewCLIAgent creates a CLI agent from configuration
func NewCLIAgent(cfg *config.AgentConfig) (Agent, error) {
	if cfg.CLIPath == "" {
		return nil, &Error{Agent: CLIAgentName, Message: "cli_path is not configured"}
	}

	timeout := DefaultInvokeTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	apiKeyEnv := cfg.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = DefaultAPIKeyEnv
	}

	return &CLIAgent{
		cliPath:   cfg.CLIPath,
		args:      cfg.Args,
		apiKey:    cfg.APIKey,
		apiKeyEnv: apiKeyEnv,
		timeout:   timeout,
	}, nil
}

// Name returns the agent identifier
func (a *CLIAgent) Name() string {
	return CLIAgentName
}

// Available reports whether the configured binary can be found
func (a *CLIAgent) Available() bool {
	_, err := exec.LookPath(a.cliPath)
	return err == nil
}

// Invoke runs the assistant binary and returns its stdout
func (a *CLIAgent) Invoke(ctx context.Context, req *Request) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := make([]string, 0, len(a.args)+1)
	args = append(args, a.args...)
	args = append(args, req.Prompt)

	cmd := exec.CommandContext(execCtx, a.cliPath, args...)
	if req.WorkDir != "" {
		cmd.Dir = req.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Env = cmd.Environ()
	cmd.Env = append(cmd.Env, "LANG=en_US.UTF-8", "LC_ALL=en_US.UTF-8")
	if a.apiKey != "" {
		cmd.Env = append(cmd.Env, a.apiKeyEnv+"="+a.apiKey)
	}

	logger.Info("invoking assistant",
		zap.String("cli_path", a.cliPath),
		zap.String("work_dir", req.WorkDir),
		zap.Int("prompt_length", len(req.Prompt)))

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			return "", errors.Wrap(errors.ErrCodeAgentTimeout,
				"assistant invocation timed out", err).WithDetails(a.timeout.String())
		}
		return "", errors.Wrap(errors.ErrCodeAgentExecution,
			"assistant invocation failed", err).WithDetails(stderr.String())
	}

	logger.Info("assistant completed",
		zap.Duration("duration", duration),
		zap.Int("output_length", stdout.Len()))

	return stdout.String(), nil
}
