package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type paymentService interface {
	Verify(ctx context.Context, paymentID string, verified bool, actor models.Principal) (*models.PaymentClaim, error)
	Get(ctx context.Context, paymentID string, actor models.Principal) (*models.PaymentClaim, error)
}

// PaymentHandler exposes staff payment verification.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(svc paymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// Get godoc
// @Summary Get payment claim
// @Tags Admin
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	claim, err := h.service.Get(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim)
}

// Verify godoc
// @Summary Record payment verification decision
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body models.PaymentVerificationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /admin/payments/{id}/verify [patch]
func (h *PaymentHandler) Verify(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.PaymentVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verification payload"))
		return
	}
	if req.Verified == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "verified is required"))
		return
	}
	claim, err := h.service.Verify(c.Request.Context(), c.Param("id"), *req.Verified, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim)
}
