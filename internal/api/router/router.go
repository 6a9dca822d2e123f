// Package router sets up the API routes for server mode.
package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mergewarden/mergewarden/consts"
	"github.com/mergewarden/mergewarden/internal/api/handler"
	"github.com/mergewarden/mergewarden/internal/api/middleware"
	"github.com/mergewarden/mergewarden/internal/config"
	"github.com/mergewarden/mergewarden/internal/store"
)

// Setup configures all API routes
func Setup(r *gin.Engine, cfg *config.Config, dispatcher handler.Submitter, runs store.RunStore) {
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(&middleware.LoggerConfig{AccessLog: cfg.Logging.AccessLog}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(cfg.Server.Debug))
	r.Use(otelgin.Middleware(consts.ServiceName))

	healthHandler := handler.NewHealthHandler()
	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")

	v1.GET("/status", healthHandler.Status)

	// Webhook route: public, guarded by the webhook secret instead of auth
	webhookHandler := handler.NewWebhookHandler(&cfg.GitLab, dispatcher)
	v1.POST("/webhooks/gitlab", webhookHandler.HandleWebhook)

	runsHandler := handler.NewRunsHandler(runs)
	v1.GET("/runs", runsHandler.ListRuns)
	v1.GET("/runs/:run_id", runsHandler.GetRun)
}
