package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	"github.com/serc-portal/recruitment-api/internal/service"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type documentService interface {
	GetDownloadURL(ctx context.Context, documentID string, actor models.Principal) (*service.DocumentLink, error)
	Download(ctx context.Context, documentID, token string) (*service.DocumentDownload, error)
}

// DocumentHandler issues and redeems signed document links.
type DocumentHandler struct {
	service documentService
	logger  *zap.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc documentService, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{service: svc, logger: logger}
}

// Link godoc
// @Summary Signed download link for a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/link [get]
func (h *DocumentHandler) Link(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	link, err := h.service.GetDownloadURL(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// Download godoc
// @Summary Download a document with a signed token
// @Tags Documents
// @Produce application/octet-stream
// @Param id path string true "Document ID"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	download, err := h.service.Download(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		if cerr := download.Content.Close(); cerr != nil {
			h.logger.Debug("close document", zap.Error(cerr))
		}
	}()
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, -1, download.ContentType, download.Content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}
