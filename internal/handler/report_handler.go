package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serc-portal/recruitment-api/internal/dto"
	"github.com/serc-portal/recruitment-api/internal/models"
	"github.com/serc-portal/recruitment-api/internal/service"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type reportService interface {
	ExportApplications(ctx context.Context, filter models.ApplicationFilter, format string, actor models.Principal) (*service.ReportFile, error)
	ApplicationPDF(ctx context.Context, applicationID string, actor models.Principal) (*service.ReportFile, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Export godoc
// @Summary Export applications
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Status filter"
// @Param post_code query string false "Post code filter"
// @Success 200 {file} file
// @Router /admin/reports/applications [get]
func (h *ReportHandler) Export(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var query dto.ApplicationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.reports.ExportApplications(c.Request.Context(), query.ToFilter(), query.Format, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeFile(c, file)
}

// ApplicationPDF godoc
// @Summary Printable application form
// @Tags Applications
// @Produce application/pdf
// @Param id path string true "Application ID"
// @Success 200 {file} file
// @Router /applications/{id}/pdf [get]
func (h *ReportHandler) ApplicationPDF(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	file, err := h.reports.ApplicationPDF(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeFile(c, file)
}

func writeFile(c *gin.Context, file *service.ReportFile) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
