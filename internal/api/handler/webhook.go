// Package handler implements the HTTP handlers for the API server.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/internal/config"
	"github.com/mergewarden/mergewarden/internal/event"
	"github.com/mergewarden/mergewarden/internal/trigger"
	"github.com/mergewarden/mergewarden/pkg/errors"
	"github.com/mergewarden/mergewarden/pkg/logger"
)

// Submitter accepts triggering events for background execution. Satisfied
// by *engine.Dispatcher.
type Submitter interface {
	Submit(ev *event.MergeRequestEvent) (string, error)
}

// WebhookHandler receives GitLab webhook deliveries
type WebhookHandler struct {
	gitlab     *config.GitLabConfig
	dispatcher Submitter
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(gitlab *config.GitLabConfig, dispatcher Submitter) *WebhookHandler {
	return &WebhookHandler{gitlab: gitlab, dispatcher: dispatcher}
}

// HandleWebhook processes one webhook delivery. Authenticity is checked
// before anything else; ineligible events are acknowledged with an ignored
// status so GitLab does not retry them.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	if !event.VerifyToken(c.GetHeader(event.HeaderToken), h.gitlab.WebhookSecret) {
		_ = c.Error(errors.New(errors.ErrCodeWebhookToken, "invalid webhook token"))
		return
	}

	ev, err := event.ParseRequest(c.Request)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !trigger.ShouldTrigger(ev, h.gitlab.BotUserID) {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	runID, err := h.dispatcher.Submit(ev)
	if err != nil {
		logger.Warn("failed to submit review run",
			zap.Int64("project_id", ev.ProjectID),
			zap.Int64("mr_iid", ev.IID),
			zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"run_id": runID,
	})
}
