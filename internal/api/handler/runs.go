package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mergewarden/mergewarden/internal/store"
)

const maxPageSize = 100

// RunsHandler exposes review run history
type RunsHandler struct {
	runs store.RunStore
}

// NewRunsHandler creates a runs handler
func NewRunsHandler(runs store.RunStore) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// ListRuns returns run history, newest first. Supports project_id, mr_iid,
// status, limit, and offset query parameters.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	opts := store.ListOptions{
		ProjectID: parseInt64Query(c, "project_id"),
		MRIID:     parseInt64Query(c, "mr_iid"),
		Status:    c.Query("status"),
		Limit:     int(parseInt64Query(c, "limit")),
		Offset:    int(parseInt64Query(c, "offset")),
	}
	if opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}

	runs, total, err := h.runs.List(opts)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"runs":  runs,
	})
}

// GetRun returns one run by its run id
func (h *RunsHandler) GetRun(c *gin.Context) {
	run, err := h.runs.GetByRunID(c.Param("run_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func parseInt64Query(c *gin.Context, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
