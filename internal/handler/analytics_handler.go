package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/pkg/response"
)

type scoreReporter interface {
	Report(ctx context.Context) (*models.ScoreReport, error)
}

// AnalyticsHandler exposes the score analysis.
type AnalyticsHandler struct {
	analytics scoreReporter
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics scoreReporter) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Scores godoc
// @Summary Score statistics per subject, subject comparisons and hometown averages
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/analytics [get]
func (h *AnalyticsHandler) Scores(c *gin.Context) {
	start := time.Now()
	report, err := h.analytics.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{
		"count":              report.Total,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}
