// Package config provides configuration management for the application.
// It supports YAML configuration files with environment variable overrides.
package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mergewarden/mergewarden/consts"
	"github.com/mergewarden/mergewarden/pkg/logger"
	"github.com/mergewarden/mergewarden/pkg/telemetry"
)

// Default configuration values
const (
	defaultWorkspace       = "./workspace"
	defaultCLIPath         = "/usr/local/bin/claude"
	defaultAgentTimeout    = 600
	defaultMaxConcurrent   = 3
	defaultRetentionDays   = 30
	defaultCheckoutTimeout = 300
	defaultOTLPEndpoint    = "localhost:4317"
	defaultPrometheusPort  = 9090
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	GitLab    GitLabConfig     `yaml:"gitlab"`
	Agent     AgentConfig      `yaml:"agent"`
	Review    ReviewConfig     `yaml:"review"`
	Logging   logger.Config    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

// GitLabConfig holds GitLab connection and bot identity settings
type GitLabConfig struct {
	// URL is the GitLab instance base URL (supports self-hosted instances)
	URL string `yaml:"url"`
	// Token is the bot account's personal access token
	Token string `yaml:"token"`
	// WebhookSecret validates incoming webhook deliveries.
	// When empty, webhook authenticity checking is disabled.
	WebhookSecret string `yaml:"webhook_secret"`
	// InsecureSkipVerify skips SSL certificate verification (for self-signed certs)
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
	// BotUserID is the numeric user id of the reviewing bot account.
	// A review run triggers only when this user is freshly added as reviewer.
	BotUserID int64 `yaml:"bot_user_id"`
	// BotUsername is the bot account's login name, used for checkout auth
	BotUsername string `yaml:"bot_username"`
}

// AgentConfig holds the review assistant CLI configuration
type AgentConfig struct {
	// Name selects the registered assistant implementation
	Name string `yaml:"name"`
	// CLIPath is the path to the assistant binary
	CLIPath string `yaml:"cli_path"`
	// Args are extra arguments passed before the prompt
	Args []string `yaml:"args"`
	// APIKey is passed to the assistant process environment when set
	APIKey string `yaml:"api_key"`
	// APIKeyEnv is the environment variable name the key is exported
	// under; defaults to the agent implementation's convention
	APIKeyEnv string `yaml:"api_key_env"`
	// Timeout bounds a single assistant invocation, in seconds
	Timeout int `yaml:"timeout"`
}

// ReviewConfig holds review pipeline configuration
type ReviewConfig struct {
	// Workspace is the working directory for cloned repositories
	Workspace string `yaml:"workspace"`
	// MaxConcurrent is the maximum number of concurrent review runs
	MaxConcurrent int `yaml:"max_concurrent"`
	// RetentionDays is how long run history records are kept
	RetentionDays int `yaml:"retention_days"`
	// CheckoutTimeout bounds workspace acquisition, in seconds
	CheckoutTimeout int `yaml:"checkout_timeout"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:  "0.0.0.0",
			Port:  8080,
			Debug: false,
		},
		GitLab: GitLabConfig{
			URL: "https://gitlab.com",
		},
		Agent: AgentConfig{
			Name:    "cli",
			CLIPath: defaultCLIPath,
			Timeout: defaultAgentTimeout,
		},
		Review: ReviewConfig{
			Workspace:       defaultWorkspace,
			MaxConcurrent:   defaultMaxConcurrent,
			RetentionDays:   defaultRetentionDays,
			CheckoutTimeout: defaultCheckoutTimeout,
		},
		Logging: logger.Config{
			Level:      "info",
			Format:     "text",
			File:       "",
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 5,
			Compress:   false,
		},
		Telemetry: telemetry.Config{
			Enabled:     false,
			ServiceName: consts.ServiceName,
			OTLP: telemetry.OTLPConfig{
				Enabled:  false,
				Endpoint: defaultOTLPEndpoint,
				Insecure: true,
			},
			Prometheus: telemetry.PrometheusConfig{
				Enabled: false,
				Port:    defaultPrometheusPort,
			},
		},
	}
}

// Load loads configuration from a YAML file with environment variable expansion
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
// Only matches ${VAR_NAME} format (not $VAR_NAME) to avoid mangling literal
// dollar signs in token values.
func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]

		// Support default values: ${VAR_NAME:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]

		if value := os.Getenv(varName); value != "" {
			return value
		}

		if len(parts) > 1 {
			return parts[1]
		}

		return ""
	})
}

// Address returns the server address string
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
