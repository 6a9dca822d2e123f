// Package check provides interactive environment checking and initialization.
// It helps operators set up a local MergeWarden deployment properly.
package check

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/mergewarden/mergewarden/internal/configfiles"
)

// CheckResult represents the result of a non-interactive environment check
type CheckResult struct {
	// Success indicates whether all required checks passed
	Success bool
	// Errors contains critical errors that prevent server startup
	Errors []string
	// Warnings contains non-critical issues that don't block startup
	Warnings []string
	// Suggestions contains helpful tips for fixing issues
	Suggestions []string
}

// Checker handles environment checking and initialization
type Checker struct {
	// configPath is the configuration file to check
	configPath string
	// report collects check results for final output
	report *Report
	// theme for consistent styling
	theme *huh.Theme
}

// NewChecker creates a new environment checker for the given config path
func NewChecker(configPath string) *Checker {
	return &Checker{
		configPath: configPath,
		report:     NewReport(),
		theme:      huh.ThemeCharm(),
	}
}

// Run executes the full interactive environment check
func (c *Checker) Run() error {
	c.printHeader()

	fmt.Println()
	printSection("Checking configuration file")
	if err := c.checkConfigFile(); err != nil {
		return fmt.Errorf("config file check failed: %w", err)
	}

	fmt.Println()
	printSection("Validating configuration")
	c.report.AddValidationResult(validateConfigFile(c.configPath))

	fmt.Println()
	printSection("Checking required tools")
	for _, result := range checkTools(c.configPath) {
		c.report.AddToolResult(result)
	}

	fmt.Println()
	c.report.Print()

	return nil
}

// printHeader prints the welcome header
func (c *Checker) printHeader() {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	fmt.Println(titleStyle.Render("🔍 MergeWarden Environment Check"))
}

// printSection prints a section header
func printSection(title string) {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15"))
	fmt.Println(style.Render(title + "..."))
}

// checkConfigFile checks the configuration file and offers to create it
// from the embedded template when missing
func (c *Checker) checkConfigFile() error {
	result := FileCheckResult{Path: c.configPath}

	if fileExists(c.configPath) {
		result.Exists = true
		printFileStatus(c.configPath, true, false)
		c.report.AddFileResult(result)
		return nil
	}

	printFileStatus(c.configPath, false, false)

	confirm, err := confirmCreate(c.configPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to get user confirmation: %w", err)
		c.report.AddFileResult(result)
		return result.Error
	}

	if confirm {
		if err := configfiles.WriteConfigExample(c.configPath); err != nil {
			result.Error = fmt.Errorf("failed to create %s: %w", c.configPath, err)
			c.report.AddFileResult(result)
			return result.Error
		}
		result.Created = true
		result.Exists = true
		printFileCreated(c.configPath)
	}

	c.report.AddFileResult(result)
	return nil
}

// confirmCreate asks the user to confirm file creation
func confirmCreate(path string) (bool, error) {
	var confirm bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Create %s from template?", path)).
		Affirmative("Yes").
		Negative("No").
		Value(&confirm).
		Run()
	if err != nil {
		return false, err
	}
	return confirm, nil
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// printFileStatus prints the status of a file check
func printFileStatus(path string, exists bool, created bool) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if exists {
		green.Printf("  ✓ %s\n", path)
	} else if created {
		green.Printf("  ✓ %s (created)\n", path)
	} else {
		yellow.Printf("  ⚠ %s does not exist\n", path)
	}
}

// printFileCreated prints a message when a file is created
func printFileCreated(path string) {
	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created %s\n", path)
}

// RunNonInteractive performs a non-interactive environment check.
// Unlike Run(), this method does not prompt for user input and does not
// create files. It returns a CheckResult with errors, warnings, and
// suggestions.
func (c *Checker) RunNonInteractive() *CheckResult {
	result := &CheckResult{
		Success:     true,
		Errors:      make([]string, 0),
		Warnings:    make([]string, 0),
		Suggestions: make([]string, 0),
	}

	if !fileExists(c.configPath) {
		result.Success = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("Configuration file not found: %s", c.configPath))
		result.Suggestions = append(result.Suggestions,
			"Run 'mergewarden check' to interactively create the configuration file")
		return result
	}

	validation := validateConfigFile(c.configPath)
	if !validation.Valid {
		result.Success = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("Invalid %s: %v", c.configPath, validation.Error))
	}
	result.Warnings = append(result.Warnings, validation.Warnings...)

	for _, tool := range checkTools(c.configPath) {
		if tool.Found {
			continue
		}
		if tool.Required {
			result.Success = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s not found: %s", tool.Name, tool.Path))
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s not found: %s", tool.Name, tool.Path))
		}
	}

	return result
}

// PrintCheckResult prints the check result in a formatted way
func PrintCheckResult(result *CheckResult) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	if len(result.Errors) > 0 {
		fmt.Println()
		red.Println("[ERROR] Environment check failed")
		fmt.Println()
		for _, err := range result.Errors {
			red.Printf("  ✗ %s\n", err)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Println()
		yellow.Println("[WARNING] Configuration warnings:")
		fmt.Println()
		for _, warn := range result.Warnings {
			yellow.Printf("  ⚠ %s\n", warn)
		}
	}

	if len(result.Suggestions) > 0 {
		cyan.Println("\nTo fix these issues:")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("  → %s\n", suggestion)
		}
	}

	fmt.Println()
}
