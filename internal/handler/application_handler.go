package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serc-portal/recruitment-api/internal/dto"
	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type applicationService interface {
	Get(ctx context.Context, applicationID string, actor models.Principal) (*models.ApplicationDetail, error)
	ListMine(ctx context.Context, actor models.Principal) ([]models.Application, error)
	Transition(ctx context.Context, applicationID string, req models.TransitionRequest, actor models.Principal) (*models.Application, error)
	Dashboard(ctx context.Context, filter models.ApplicationFilter, actor models.Principal) (*models.Dashboard, error)
}

// ApplicationHandler serves applicant views and the staff review workflow.
type ApplicationHandler struct {
	service applicationService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(svc applicationService) *ApplicationHandler {
	return &ApplicationHandler{service: svc}
}

// Get godoc
// @Summary Get application detail
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// ListMine godoc
// @Summary List the caller's applications
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /applications/mine [get]
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	apps, err := h.service.ListMine(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps)
}

// Transition godoc
// @Summary Change application status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.TransitionRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/applications/{id}/status [patch]
func (h *ApplicationHandler) Transition(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	app, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app)
}

// Dashboard godoc
// @Summary Staff application dashboard
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter"
// @Param post_code query string false "Post code filter"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /admin/applications [get]
func (h *ApplicationHandler) Dashboard(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var query dto.ApplicationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	dashboard, err := h.service.Dashboard(c.Request.Context(), query.ToFilter(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, map[string]interface{}{"returned": len(dashboard.Applications)})
}
