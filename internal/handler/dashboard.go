package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"survey_pipeline/internal/analytics"
	"survey_pipeline/internal/insights"
)

// DashboardHandler serves the read-only aggregates the presentation layer
// consumes. Nothing here writes to the store.
type DashboardHandler struct {
	reader   *analytics.Reader
	insights *insights.Client
}

func NewDashboardHandler(reader *analytics.Reader, ins *insights.Client) *DashboardHandler {
	return &DashboardHandler{reader: reader, insights: ins}
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.reader.Overview()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *DashboardHandler) Surveys(c *gin.Context) {
	surveys, err := h.reader.ListSurveys()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, surveys)
}

func (h *DashboardHandler) SurveyDetail(c *gin.Context) {
	detail, ok := h.loadDetail(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *DashboardHandler) SurveyInsight(c *gin.Context) {
	detail, ok := h.loadDetail(c)
	if !ok {
		return
	}
	text := h.insights.SurveyInsight(c.Request.Context(), detail)
	c.JSON(http.StatusOK, gin.H{"survey_id": detail.ID, "insight": text})
}

func (h *DashboardHandler) loadDetail(c *gin.Context) (*analytics.SurveyDetail, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return nil, false
	}

	detail, err := h.reader.SurveyDetail(uint(id))
	if errors.Is(err, analytics.ErrSurveyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return detail, true
}
