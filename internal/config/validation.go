// Package config provides configuration management for the application.
// This file contains validation functions for configuration values.
package config

import (
	"net/url"
	"strings"

	"github.com/mergewarden/mergewarden/pkg/errors"
)

// Validate checks that the configuration is complete enough to serve.
// Returns the first problem found.
func (c *Config) Validate() *errors.AppError {
	if strings.TrimSpace(c.GitLab.URL) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "gitlab.url cannot be empty")
	}
	if u, err := url.Parse(c.GitLab.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "gitlab.url must be a valid http(s) URL")
	}

	if strings.TrimSpace(c.GitLab.Token) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "gitlab.token cannot be empty")
	}

	if c.GitLab.BotUserID <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "gitlab.bot_user_id must be set to the bot account's user id")
	}

	if strings.TrimSpace(c.Agent.CLIPath) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "agent.cli_path cannot be empty")
	}

	if c.Review.MaxConcurrent <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "review.max_concurrent must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.ErrCodeConfigInvalid, "server.port must be in range 1-65535")
	}

	return nil
}
