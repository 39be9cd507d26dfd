package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type analyticsService interface {
	Applications(ctx context.Context, actor models.Principal) (*models.ApplicationAnalytics, bool, error)
	SystemMetrics(actor models.Principal) (*models.AnalyticsSystemMetrics, error)
}

// AnalyticsHandler exposes dashboard-ready analytics endpoints.
type AnalyticsHandler struct {
	analytics analyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Applications godoc
// @Summary Application counts by post, status and category
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/applications [get]
func (h *AnalyticsHandler) Applications(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.analytics.Applications(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := withProcessingMeta(c, cacheHit)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, meta)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	start := time.Now()
	metrics, err := h.analytics.SystemMetrics(principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := withProcessingMeta(c, false)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, metrics, meta)
}
