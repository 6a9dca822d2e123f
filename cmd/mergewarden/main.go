// Package main is the entry point for the MergeWarden application.
// MergeWarden is a webhook-driven AI-assisted merge request review service
// for GitLab.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/consts"
	"github.com/mergewarden/mergewarden/internal/agent"
	"github.com/mergewarden/mergewarden/internal/check"
	"github.com/mergewarden/mergewarden/internal/config"
	"github.com/mergewarden/mergewarden/internal/database"
	"github.com/mergewarden/mergewarden/internal/engine"
	"github.com/mergewarden/mergewarden/internal/gitlab"
	"github.com/mergewarden/mergewarden/internal/review"
	"github.com/mergewarden/mergewarden/internal/server"
	"github.com/mergewarden/mergewarden/internal/store"
	"github.com/mergewarden/mergewarden/internal/workspace"
	"github.com/mergewarden/mergewarden/pkg/idgen"
	"github.com/mergewarden/mergewarden/pkg/logger"
	"github.com/mergewarden/mergewarden/pkg/telemetry"
)

// defaultConfigPath is where the configuration file is looked up when the
// --config flag is not given
const defaultConfigPath = "config/config.yaml"

// Build information - set via ldflags during build
// These variables are linked to consts package for global access
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// init synchronizes build info to consts package for global access
func init() {
	consts.Version = Version
	consts.BuildTime = BuildTime
	consts.GitCommit = GitCommit
}

// configPath holds the path to the configuration file
var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mergewarden",
	Short: "MergeWarden - AI-assisted merge request review service for GitLab",
	Long: `MergeWarden watches GitLab merge requests and runs an AI review assistant
whenever the configured bot account is added as a reviewer. Findings are
posted back to the merge request as inline discussions.`,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MergeWarden webhook server",
	Long: `Start the HTTP server that receives GitLab webhook deliveries and runs
reviews in the background.

On first run, use the check command to set up your environment:
  mergewarden check

After initial setup, simply run:
  mergewarden serve`,
	Run: runServe,
}

// checkCmd represents the interactive environment check
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Interactively check and initialize the environment",
	Long: `Check the local environment and guide you through initial setup:
  - Creating the configuration file from a template
  - Validating the configuration format
  - Verifying the git binary and the assistant CLI are available`,
	Run: runCheck,
}

// reviewCmd represents the one-shot review command
var reviewCmd = &cobra.Command{
	Use:   "review <merge-request-url>",
	Short: "Run a single review against a merge request URL",
	Long: `Run one review synchronously against the given merge request and exit.
Useful for trying out the pipeline without configuring webhooks:

  mergewarden review https://gitlab.example.com/group/repo/-/merge_requests/7`,
	Args: cobra.ExactArgs(1),
	Run:  runReview,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MergeWarden %s\n", Version)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
	},
}

func init() {
	// Disable auto-generated completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file path")

	// Add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(versionCmd)

	// Serve command flags
	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "server port (overrides config)")
	serveCmd.Flags().Bool("debug", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCheck runs the full interactive environment check
func runCheck(cmd *cobra.Command, args []string) {
	checker := check.NewChecker(configPath)
	if err := checker.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Environment check failed: %v\n", err)
		os.Exit(1)
	}
}

// runServe starts the MergeWarden server
func runServe(cmd *cobra.Command, args []string) {
	// Run a non-interactive environment check before anything else
	checker := check.NewChecker(configPath)
	result := checker.RunNonInteractive()

	if !result.Success {
		check.PrintCheckResult(result)
		os.Exit(1)
	}

	// Print warnings if any (but don't block startup)
	if len(result.Warnings) > 0 {
		for _, warn := range result.Warnings {
			fmt.Fprintf(os.Stderr, "[WARNING] %s\n", warn)
		}
		fmt.Fprintln(os.Stderr)
	}

	// Record server start time
	consts.SetStartedAt(time.Now())

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting MergeWarden",
		zap.String("version", Version),
	)

	// Initialize telemetry (OpenTelemetry traces and metrics)
	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown telemetry", zap.Error(err))
		}
	}()

	// Initialize run history database
	if err := database.Init(); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	runs := store.NewRunStore(database.Get())

	// Start retention cleanup (runs daily)
	cleaner := store.NewRetentionCleaner(runs, cfg.Review.RetentionDays)
	if err := cleaner.Start(); err != nil {
		logger.Warn("Failed to start retention cleanup", zap.Error(err))
	} else {
		defer cleaner.Stop()
	}

	// Build the review pipeline collaborators
	glClient, err := gitlab.NewClient(gitlab.Options{
		BaseURL:            cfg.GitLab.URL,
		Token:              cfg.GitLab.Token,
		InsecureSkipVerify: cfg.GitLab.InsecureSkipVerify,
	})
	if err != nil {
		logger.Fatal("Failed to create GitLab client", zap.Error(err))
	}

	ag, err := agent.Create(cfg.Agent.Name, &cfg.Agent)
	if err != nil {
		logger.Fatal("Failed to create review assistant", zap.Error(err))
	}
	if !ag.Available() {
		logger.Warn("Review assistant is not available, runs will fail until it is installed",
			zap.String("agent", ag.Name()))
	}

	pipeline := review.NewPipeline(
		glClient,
		workspace.NewManager(cfg.Review.Workspace, cfg.Review.CheckoutTimeout),
		ag,
		review.CheckoutAuth{
			Username:           cfg.GitLab.BotUsername,
			Token:              cfg.GitLab.Token,
			InsecureSkipVerify: cfg.GitLab.InsecureSkipVerify,
		},
	)

	// Start the background dispatcher
	dispatcher := engine.NewDispatcher(pipeline, runs, cfg.Agent.Name, cfg.Review.MaxConcurrent)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// Create and configure server
	srv := server.New(cfg, dispatcher, runs)
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	logger.Info("MergeWarden server is running",
		zap.String("address", cfg.Server.Address()),
	)

	srv.WaitForShutdown()

	logger.Info("MergeWarden stopped")
}

// runReview runs one review synchronously against a merge request URL
func runReview(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ref, err := gitlab.ParseMRURL(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid merge request URL: %v\n", err)
		os.Exit(1)
	}

	glClient, err := gitlab.NewClient(gitlab.Options{
		BaseURL:            ref.BaseURL,
		Token:              cfg.GitLab.Token,
		InsecureSkipVerify: cfg.GitLab.InsecureSkipVerify,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create GitLab client: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	mr, err := glClient.GetMergeRequest(ctx, ref.ProjectPath, ref.IID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch %s: %v\n", ref.String(), err)
		os.Exit(1)
	}

	ag, err := agent.Create(cfg.Agent.Name, &cfg.Agent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create review assistant: %v\n", err)
		os.Exit(1)
	}

	pipeline := review.NewPipeline(
		glClient,
		workspace.NewManager(cfg.Review.Workspace, cfg.Review.CheckoutTimeout),
		ag,
		review.CheckoutAuth{
			Username:           cfg.GitLab.BotUsername,
			Token:              cfg.GitLab.Token,
			InsecureSkipVerify: cfg.GitLab.InsecureSkipVerify,
		},
	)

	in := &review.Input{
		RunID:        idgen.NewRunID(),
		ProjectID:    mr.ProjectID,
		MRIID:        mr.IID,
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		URL:          mr.WebURL,
		CloneURL:     strings.TrimSuffix(ref.BaseURL, "/") + "/" + ref.ProjectPath + ".git",
	}

	fmt.Printf("Reviewing %s ...\n", ref.String())

	outcome, err := pipeline.Run(ctx, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Review failed: %v\n", err)
		os.Exit(1)
	}

	switch outcome.Status {
	case review.StatusNoChanges:
		fmt.Println("No file changes detected, nothing to review.")
	default:
		fmt.Printf("Review completed: %d comment(s) posted, %d failed\n",
			outcome.CommentsPosted, outcome.CommentsFailed)
	}
}

// loadConfig loads the configuration file and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w\nRun 'mergewarden check' to create it", configPath, err)
	}

	// Override config with command line flags
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Server.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, validationErr
	}

	return cfg, nil
}
