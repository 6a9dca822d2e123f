package check

import (
	"os/exec"

	"github.com/fatih/color"

	"github.com/mergewarden/mergewarden/internal/config"
)

// FileCheckResult represents the result of a file check
type FileCheckResult struct {
	Path    string
	Exists  bool
	Created bool
	Error   error
}

// ValidationResult represents the result of validating one configuration file
type ValidationResult struct {
	Path     string
	Valid    bool
	Error    error
	Warnings []string
}

// ToolCheckResult represents the result of checking one external tool
type ToolCheckResult struct {
	// Name describes the tool
	Name string
	// Path is the binary name or path that was looked up
	Path string
	// Found indicates the binary is available
	Found bool
	// Required indicates the server cannot operate without it
	Required bool
}

// validateConfigFile loads and validates the configuration file
func validateConfigFile(path string) ValidationResult {
	result := ValidationResult{Path: path}

	cfg, err := config.Load(path)
	if err != nil {
		result.Error = err
		printValidationStatus(result)
		return result
	}

	if err := cfg.Validate(); err != nil {
		result.Error = err
		printValidationStatus(result)
		return result
	}

	result.Valid = true
	if cfg.GitLab.WebhookSecret == "" {
		result.Warnings = append(result.Warnings,
			"gitlab.webhook_secret is empty, webhook authenticity checking is disabled")
	}
	if cfg.GitLab.InsecureSkipVerify {
		result.Warnings = append(result.Warnings,
			"gitlab.insecure_skip_verify is enabled, SSL certificates are not verified")
	}

	printValidationStatus(result)
	return result
}

// checkTools verifies the external binaries the review pipeline depends on.
// The assistant CLI path comes from the configuration when it loads; a git
// binary is always required for repository checkout.
func checkTools(configPath string) []ToolCheckResult {
	results := []ToolCheckResult{
		lookupTool("git binary", "git", true),
	}

	if cfg, err := config.Load(configPath); err == nil && cfg.Agent.CLIPath != "" {
		results = append(results, lookupTool("assistant CLI", cfg.Agent.CLIPath, false))
	}

	for _, r := range results {
		printToolStatus(r)
	}
	return results
}

// lookupTool resolves a binary name or path on the current system
func lookupTool(name, path string, required bool) ToolCheckResult {
	_, err := exec.LookPath(path)
	return ToolCheckResult{
		Name:     name,
		Path:     path,
		Found:    err == nil,
		Required: required,
	}
}

// printValidationStatus prints a single validation result
func printValidationStatus(result ValidationResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if result.Valid {
		green.Printf("  ✓ %s\n", result.Path)
	} else {
		red.Printf("  ✗ %s: %v\n", result.Path, result.Error)
	}

	for _, warning := range result.Warnings {
		yellow.Printf("    └─ %s\n", warning)
	}
}

// printToolStatus prints a single tool check result
func printToolStatus(result ToolCheckResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	switch {
	case result.Found:
		green.Printf("  ✓ %s (%s)\n", result.Name, result.Path)
	case result.Required:
		red.Printf("  ✗ %s not found (%s)\n", result.Name, result.Path)
	default:
		yellow.Printf("  ⚠ %s not found (%s)\n", result.Name, result.Path)
	}
}
