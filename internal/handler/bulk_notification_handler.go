package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type bulkNotificationService interface {
	Preview(ctx context.Context, req models.BulkNotificationRequest, actor models.Principal) (*models.BulkPreview, error)
	Dispatch(ctx context.Context, req models.BulkNotificationRequest, actor models.Principal) (*models.BulkDispatchResult, error)
	History(ctx context.Context, limit int, actor models.Principal) ([]models.BulkNotificationRecord, error)
}

// BulkNotificationHandler exposes templated bulk messaging for staff.
type BulkNotificationHandler struct {
	service bulkNotificationService
}

// NewBulkNotificationHandler constructs the handler.
func NewBulkNotificationHandler(svc bulkNotificationService) *BulkNotificationHandler {
	return &BulkNotificationHandler{service: svc}
}

// Send godoc
// @Summary Preview or dispatch a bulk notification
// @Description With dry_run=true the rendered messages are returned and nothing is sent or recorded.
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.BulkNotificationRequest true "Template and audience"
// @Success 200 {object} response.Envelope
// @Router /admin/notifications/bulk [post]
func (h *BulkNotificationHandler) Send(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.BulkNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}
	if req.DryRun {
		preview, err := h.service.Preview(c.Request.Context(), req, principal)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, preview, map[string]interface{}{"dry_run": true, "count": len(preview.Messages)})
		return
	}
	result, err := h.service.Dispatch(c.Request.Context(), req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"dry_run": false, "count": result.Record.CountSent})
}

// History godoc
// @Summary List recent bulk notifications
// @Tags Admin
// @Produce json
// @Param limit query int false "Maximum records"
// @Success 200 {object} response.Envelope
// @Router /admin/notifications/bulk [get]
func (h *BulkNotificationHandler) History(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter"))
			return
		}
		limit = parsed
	}
	records, err := h.service.History(c.Request.Context(), limit, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}
