package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type eligibilityService interface {
	Evaluate(ctx context.Context, req models.EligibilityRequest) (*models.EligibilityResult, error)
	Posts() []models.PostRule
}

// EligibilityHandler exposes the advertised posts and the standalone eligibility check.
type EligibilityHandler struct {
	service eligibilityService
}

// NewEligibilityHandler constructs the handler.
func NewEligibilityHandler(svc eligibilityService) *EligibilityHandler {
	return &EligibilityHandler{service: svc}
}

// Posts godoc
// @Summary List advertised posts with their eligibility rules
// @Tags Eligibility
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *EligibilityHandler) Posts(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Posts())
}

// Check godoc
// @Summary Check eligibility for a post
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param payload body models.EligibilityRequest true "Applicant facts"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /eligibility/check [post]
func (h *EligibilityHandler) Check(c *gin.Context) {
	var req models.EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid eligibility payload"))
		return
	}
	result, err := h.service.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
