package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/dto"
	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, owner models.Principal, in models.SubmissionInput) (*models.SubmissionResult, error)
}

// SubmissionHandler accepts the multipart application form.
type SubmissionHandler struct {
	service submissionService
	logger  *zap.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(svc submissionService, logger *zap.Logger) *SubmissionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionHandler{service: svc, logger: logger}
}

// Submit godoc
// @Summary Submit an application
// @Description Multipart form with profile, education, payment fields, photo, sign and optional PDF documents
// @Tags Applications
// @Accept multipart/form-data
// @Produce json
// @Param postcode formData string true "Post code"
// @Param dob formData string true "Date of birth (YYYY-MM-DD)"
// @Param photo formData file true "Photograph (jpg/png)"
// @Param sign formData file true "Signature (jpg/png)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /applications [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var form dto.SubmissionForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application form"))
		return
	}
	multipartForm, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart form required"))
		return
	}

	in := form.ToInput()
	var closers []io.Closer
	defer func() {
		for _, closer := range closers {
			if cerr := closer.Close(); cerr != nil {
				h.logger.Debug("close upload", zap.Error(cerr))
			}
		}
	}()

	open := func(field string, header *multipart.FileHeader) (*models.FileUpload, error) {
		file, err := header.Open()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload "+field)
		}
		closers = append(closers, file)
		return &models.FileUpload{Field: field, Filename: header.Filename, Size: header.Size, Content: file}, nil
	}

	fields := make([]string, 0, len(multipartForm.File))
	for field := range multipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		headers := multipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		switch field {
		case models.FieldPhoto:
			if in.Photo, err = open(field, headers[0]); err != nil {
				response.Error(c, err)
				return
			}
		case models.FieldSign:
			if in.Sign, err = open(field, headers[0]); err != nil {
				response.Error(c, err)
				return
			}
		default:
			for _, header := range headers {
				upload, err := open(field, header)
				if err != nil {
					response.Error(c, err)
					return
				}
				in.Documents = append(in.Documents, *upload)
			}
		}
	}

	result, err := h.service.Submit(c.Request.Context(), principal, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
