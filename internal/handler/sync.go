package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"survey_pipeline/internal/syncer"
)

// SyncHandler exposes the scheduler's operator surface: status, start, stop,
// and force.
type SyncHandler struct {
	syncer *syncer.Syncer
}

func NewSyncHandler(s *syncer.Syncer) *SyncHandler {
	return &SyncHandler{syncer: s}
}

func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.syncer.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *SyncHandler) Start(c *gin.Context) {
	h.syncer.Start()
	c.JSON(http.StatusOK, gin.H{"running": true})
}

func (h *SyncHandler) Stop(c *gin.Context) {
	h.syncer.Stop()
	c.JSON(http.StatusOK, gin.H{"running": false})
}

// Force triggers an out-of-band cycle. Detached from the request context so
// a client disconnect cannot abort a half-done import; the caller polls
// Status for the outcome.
func (h *SyncHandler) Force(c *gin.Context) {
	go h.syncer.Force(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"forced": true})
}
