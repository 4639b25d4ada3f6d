package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusdigest/internal/service"
)

type DigestHandler struct {
	runner *service.Runner
	logger *zap.Logger
}

func NewDigestHandler(runner *service.Runner, logger *zap.Logger) *DigestHandler {
	return &DigestHandler{runner: runner, logger: logger}
}

// GetToday returns the current digest, building one if none exists yet.
func (h *DigestHandler) GetToday(c *gin.Context) {
	d, err := h.runner.Today(c.Request.Context())
	if err != nil {
		h.logger.Error("today digest failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "digest build failed"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// RunNow triggers a full build-and-push cycle.
func (h *DigestHandler) RunNow(c *gin.Context) {
	result, err := h.runner.RunNow(c.Request.Context())
	if err != nil {
		h.logger.Error("manual run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "digest build failed"})
		return
	}

	msg := "Manual run completed and push sent."
	if !result.PushSent {
		msg = "Manual run completed, push not sent."
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"message":    msg,
		"digest_id":  result.Digest.ID,
		"push_sent":  result.PushSent,
		"push_error": result.PushError,
	})
}

// GetHistory returns recent stored digests.
func (h *DigestHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "7"))
	digests, err := h.runner.History(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("digest history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"digests": digests})
}
