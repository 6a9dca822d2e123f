// Package workspace acquires throwaway source checkouts for review runs.
// Each run gets a fresh shallow clone under the configured base directory,
// exclusively owned by that run and removed exactly once when released.
package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/pkg/errors"
	"github.com/mergewarden/mergewarden/pkg/idgen"
	"github.com/mergewarden/mergewarden/pkg/logger"
)

// DefaultCheckoutTimeout bounds a clone when no timeout is configured
const DefaultCheckoutTimeout = 5 * time.Minute

// CloneSpec describes the branch to check out and how to authenticate
type CloneSpec struct {
	// URL is the repository's HTTPS clone URL, without embedded credentials
	URL string

	// Branch is the single branch to clone
	Branch string

	// Username is the account name presented to the credential prompt
	Username string

	// Token is the access token passed via a GIT_ASKPASS helper, never
	// embedded in the URL or the process argument list
	Token string

	// InsecureSkipVerify disables TLS verification for the clone
	InsecureSkipVerify bool
}

// Checkout is an acquired working directory plus its release capability.
// Release is safe to call more than once; only the first call removes the
// directory.
type Checkout struct {
	// Root is the filesystem root of the cloned source tree
	Root string

	releaseOnce sync.Once
}

// Release removes the checkout directory. Failures are logged, never
// propagated, so cleanup can never mask a run's real outcome.
func (c *Checkout) Release() {
	c.releaseOnce.Do(func() {
		if c.Root == "" {
			return
		}
		if err := os.RemoveAll(c.Root); err != nil {
			logger.Warn("failed to remove checkout directory",
				zap.String("root", c.Root),
				zap.Error(err))
			return
		}
		logger.Debug("released checkout", zap.String("root", c.Root))
	})
}

// Manager creates checkouts under a shared base directory
type Manager struct {
	baseDir string
	timeout time.Duration
}

// NewManager returns a Manager rooted at baseDir. timeoutSeconds bounds each
// clone; zero or negative selects the default.
func NewManager(baseDir string, timeoutSeconds int) *Manager {
	timeout := DefaultCheckoutTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &Manager{baseDir: baseDir, timeout: timeout}
}

// Acquire clones the requested branch into a fresh directory and returns the
// checkout. On any failure the partially created directory is removed before
// the error is returned.
func (m *Manager) Acquire(ctx context.Context, spec CloneSpec) (*Checkout, error) {
	if err := os.MkdirAll(m.baseDir, 0750); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCheckoutClone, "failed to create workspace base directory", err)
	}

	dir := filepath.Join(m.baseDir, idgen.NewID())

	timeoutCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.clone(timeoutCtx, spec, dir); err != nil {
		// Tolerate a nonexistent path; the clone may have failed before
		// creating anything
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn("failed to remove partial checkout",
				zap.String("dir", dir),
				zap.Error(rmErr))
		}
		return nil, err
	}

	logger.Info("acquired checkout",
		zap.String("root", dir),
		zap.String("branch", spec.Branch))

	return &Checkout{Root: dir}, nil
}

func (m *Manager) clone(ctx context.Context, spec CloneSpec, dir string) error {
	args := []string{"clone", "--depth", "1", "--single-branch"}
	if spec.Branch != "" {
		args = append(args, "--branch", spec.Branch)
	}
	args = append(args, spec.URL, dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	gitEnv := []string{"GIT_TERMINAL_PROMPT=0"}
	if spec.InsecureSkipVerify {
		gitEnv = append(gitEnv, "GIT_SSL_NO_VERIFY=true")
	}

	if spec.Token != "" {
		helperPath, cleanup, err := createCredentialHelper(spec.Username, spec.Token)
		if err != nil {
			return errors.Wrap(errors.ErrCodeCheckoutClone, "failed to create credential helper", err)
		}
		defer cleanup()
		gitEnv = append(gitEnv, "GIT_ASKPASS="+helperPath)
	}

	cmd.Env = append(cmd.Environ(), gitEnv...)

	logger.Debug("cloning repository",
		zap.String("url", spec.URL),
		zap.String("branch", spec.Branch),
		zap.String("token", MaskToken(spec.Token)))

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrap(errors.ErrCodeCheckoutTimeout,
				fmt.Sprintf("git clone timed out after %v", m.timeout), err)
		}
		return classifyCloneError(err, stderr.String())
	}

	return nil
}

// classifyCloneError maps git's stderr onto the checkout error taxonomy
func classifyCloneError(err error, stderr string) *errors.AppError {
	switch {
	case strings.Contains(stderr, "Authentication failed"),
		strings.Contains(stderr, "could not read Username"),
		strings.Contains(stderr, "HTTP Basic: Access denied"):
		return errors.Wrap(errors.ErrCodeCheckoutAuth,
			"git authentication failed", err).WithDetails(stderr)
	case strings.Contains(stderr, "not found"),
		strings.Contains(stderr, "Could not find remote branch"):
		return errors.Wrap(errors.ErrCodeCheckoutClone,
			"repository or branch not found", err).WithDetails(stderr)
	default:
		return errors.Wrap(errors.ErrCodeCheckoutClone,
			"git clone failed", err).WithDetails(stderr)
	}
}

// createCredentialHelper writes a temporary GIT_ASKPASS script answering
// git's username and password prompts. Returns the script path and a cleanup
// function to defer.
func createCredentialHelper(username, token string) (string, func(), error) {
	tmpFile, err := os.CreateTemp("", "git-askpass-*.sh")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create askpass script: %w", err)
	}

	if username == "" {
		username = "oauth2"
	}

	script := fmt.Sprintf("#!/bin/sh\ncase \"$1\" in\nUsername*) echo %q ;;\n*) echo %q ;;\nesac\n", username, token)

	if _, err := tmpFile.WriteString(script); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("failed to write askpass script: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("failed to close askpass script: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), 0700); err != nil {
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("failed to make askpass script executable: %w", err)
	}

	cleanup := func() { os.Remove(tmpFile.Name()) }
	return tmpFile.Name(), cleanup, nil
}

// MaskToken masks a token for safe logging
func MaskToken(token string) string {
	if token == "" {
		return "(empty)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
