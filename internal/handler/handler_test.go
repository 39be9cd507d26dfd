package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/serc-portal/recruitment-api/internal/middleware"
	"github.com/serc-portal/recruitment-api/internal/models"
	"github.com/serc-portal/recruitment-api/internal/service"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func applicantClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "applicant-1", Email: "a@example.com", Role: models.RoleApplicant}
}

func reviewerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "reviewer-1", Email: "r@serc.res.in", Role: models.RoleReviewer}
}

func testContext(req *httptestRequest, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(req.method, req.target, req.body)
	if req.contentType != "" {
		c.Request.Header.Set("Content-Type", req.contentType)
	}
	c.Params = req.params
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

type httptestRequest struct {
	method      string
	target      string
	body        io.Reader
	contentType string
	params      gin.Params
}

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

type fakeApplicationService struct {
	detail     *models.ApplicationDetail
	mine       []models.Application
	transition *models.Application
	dashboard  *models.Dashboard
	err        error

	lastFilter models.ApplicationFilter
	lastReq    models.TransitionRequest
	lastActor  models.Principal
	lastID     string
}

func (f *fakeApplicationService) Get(_ context.Context, id string, actor models.Principal) (*models.ApplicationDetail, error) {
	f.lastID, f.lastActor = id, actor
	return f.detail, f.err
}

func (f *fakeApplicationService) ListMine(_ context.Context, actor models.Principal) ([]models.Application, error) {
	f.lastActor = actor
	return f.mine, f.err
}

func (f *fakeApplicationService) Transition(_ context.Context, id string, req models.TransitionRequest, actor models.Principal) (*models.Application, error) {
	f.lastID, f.lastReq, f.lastActor = id, req, actor
	return f.transition, f.err
}

func (f *fakeApplicationService) Dashboard(_ context.Context, filter models.ApplicationFilter, actor models.Principal) (*models.Dashboard, error) {
	f.lastFilter, f.lastActor = filter, actor
	if f.err != nil {
		return nil, f.err
	}
	if f.dashboard == nil {
		return &models.Dashboard{Counts: map[models.ApplicationStatus]int{}}, nil
	}
	return f.dashboard, nil
}

type fakeReportService struct {
	file       *service.ReportFile
	err        error
	lastFormat string
	lastFilter models.ApplicationFilter
}

func (f *fakeReportService) ExportApplications(_ context.Context, filter models.ApplicationFilter, format string, _ models.Principal) (*service.ReportFile, error) {
	f.lastFilter, f.lastFormat = filter, format
	return f.file, f.err
}

func (f *fakeReportService) ApplicationPDF(_ context.Context, _ string, _ models.Principal) (*service.ReportFile, error) {
	return f.file, f.err
}
