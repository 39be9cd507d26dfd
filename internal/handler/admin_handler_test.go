package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serc-portal/recruitment-api/internal/models"
	"github.com/serc-portal/recruitment-api/internal/service"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type fakePaymentService struct {
	verified *bool
	claim    *models.PaymentClaim
	err      error
}

func (f *fakePaymentService) Verify(_ context.Context, _ string, verified bool, _ models.Principal) (*models.PaymentClaim, error) {
	f.verified = &verified
	return f.claim, f.err
}

func (f *fakePaymentService) Get(_ context.Context, _ string, _ models.Principal) (*models.PaymentClaim, error) {
	return f.claim, f.err
}

type fakeBulkService struct {
	previewed  bool
	dispatched bool
	limit      int
}

func (f *fakeBulkService) Preview(_ context.Context, _ models.BulkNotificationRequest, _ models.Principal) (*models.BulkPreview, error) {
	f.previewed = true
	return &models.BulkPreview{Messages: []models.RenderedMessage{{To: "a@example.com"}}}, nil
}

func (f *fakeBulkService) Dispatch(_ context.Context, req models.BulkNotificationRequest, _ models.Principal) (*models.BulkDispatchResult, error) {
	f.dispatched = true
	return &models.BulkDispatchResult{Record: models.BulkNotificationRecord{Subject: req.Subject, CountSent: 3}}, nil
}

func (f *fakeBulkService) History(_ context.Context, limit int, _ models.Principal) ([]models.BulkNotificationRecord, error) {
	f.limit = limit
	return []models.BulkNotificationRecord{}, nil
}

type fakeDocumentService struct {
	token string
	body  string
	err   error
}

func (f *fakeDocumentService) GetDownloadURL(_ context.Context, id string, _ models.Principal) (*service.DocumentLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.DocumentLink{URL: "/api/v1/documents/" + id + "/download?token=t", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (f *fakeDocumentService) Download(_ context.Context, _ string, token string) (*service.DocumentDownload, error) {
	f.token = token
	if f.err != nil {
		return nil, f.err
	}
	return &service.DocumentDownload{Content: io.NopCloser(strings.NewReader(f.body)), Filename: "obc.pdf", ContentType: "application/pdf"}, nil
}

func TestPaymentHandlerVerify(t *testing.T) {
	svc := &fakePaymentService{claim: &models.PaymentClaim{ID: "pay-1"}}
	h := NewPaymentHandler(svc)
	c, w := testContext(&httptestRequest{
		method:      http.MethodPatch,
		target:      "/admin/payments/pay-1/verify",
		body:        bytes.NewBufferString(`{"verified":false}`),
		contentType: "application/json",
		params:      gin.Params{{Key: "id", Value: "pay-1"}},
	}, reviewerClaims())
	h.Verify(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.verified)
	assert.False(t, *svc.verified)
}

func TestPaymentHandlerVerifyRequiresDecision(t *testing.T) {
	svc := &fakePaymentService{}
	h := NewPaymentHandler(svc)
	c, w := testContext(&httptestRequest{
		method:      http.MethodPatch,
		target:      "/admin/payments/pay-1/verify",
		body:        bytes.NewBufferString(`{}`),
		contentType: "application/json",
	}, reviewerClaims())
	h.Verify(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.verified)
}

func TestBulkHandlerDryRunPreviewsOnly(t *testing.T) {
	svc := &fakeBulkService{}
	h := NewBulkNotificationHandler(svc)
	c, w := testContext(&httptestRequest{
		method:      http.MethodPost,
		target:      "/admin/notifications/bulk",
		body:        bytes.NewBufferString(`{"subject":"Interview","body":"Dear {name}","dry_run":true}`),
		contentType: "application/json",
	}, reviewerClaims())
	h.Send(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.previewed)
	assert.False(t, svc.dispatched)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["dry_run"])
	assert.EqualValues(t, 1, env.Meta["count"])
}

func TestBulkHandlerDispatch(t *testing.T) {
	svc := &fakeBulkService{}
	h := NewBulkNotificationHandler(svc)
	c, w := testContext(&httptestRequest{
		method:      http.MethodPost,
		target:      "/admin/notifications/bulk",
		body:        bytes.NewBufferString(`{"subject":"Interview","body":"Dear {name}"}`),
		contentType: "application/json",
	}, reviewerClaims())
	h.Send(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.dispatched)
	assert.EqualValues(t, 3, decodeEnvelope(t, w).Meta["count"])
}

func TestBulkHandlerHistoryLimit(t *testing.T) {
	svc := &fakeBulkService{}
	h := NewBulkNotificationHandler(svc)

	c, w := testContext(&httptestRequest{method: http.MethodGet, target: "/admin/notifications/bulk?limit=20"}, reviewerClaims())
	h.History(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, svc.limit)

	c, w = testContext(&httptestRequest{method: http.MethodGet, target: "/admin/notifications/bulk?limit=x"}, reviewerClaims())
	h.History(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerExportWritesAttachment(t *testing.T) {
	svc := &fakeReportService{file: &service.ReportFile{Filename: "applications.csv", ContentType: "text/csv", Data: []byte("id\n")}}
	h := NewReportHandler(svc)
	c, w := testContext(&httptestRequest{method: http.MethodGet, target: "/admin/reports/applications?format=csv&status=Submitted"}, reviewerClaims())
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.lastFormat)
	assert.Equal(t, models.StatusSubmitted, svc.lastFilter.Status)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="applications.csv"`)
	assert.Equal(t, "id\n", w.Body.String())
}

func TestReportHandlerPDFForbidden(t *testing.T) {
	h := NewReportHandler(&fakeReportService{err: appErrors.ErrForbidden})
	c, w := testContext(&httptestRequest{method: http.MethodGet, target: "/applications/app-1/pdf"}, applicantClaims())
	h.ApplicationPDF(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDocumentHandlerDownloadStreams(t *testing.T) {
	svc := &fakeDocumentService{body: "%PDF-1.4"}
	h := NewDocumentHandler(svc, nil)
	c, w := testContext(&httptestRequest{
		method: http.MethodGet,
		target: "/documents/doc-1/download?token=abc",
		params: gin.Params{{Key: "id", Value: "doc-1"}},
	}, nil)
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.token)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "obc.pdf")
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestDocumentHandlerDownloadRejectsBadToken(t *testing.T) {
	h := NewDocumentHandler(&fakeDocumentService{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired link")}, nil)
	c, w := testContext(&httptestRequest{method: http.MethodGet, target: "/documents/doc-1/download?token=bad"}, nil)
	h.Download(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDocumentHandlerLink(t *testing.T) {
	h := NewDocumentHandler(&fakeDocumentService{}, nil)
	c, w := testContext(&httptestRequest{
		method: http.MethodGet,
		target: "/documents/doc-1/link",
		params: gin.Params{{Key: "id", Value: "doc-1"}},
	}, applicantClaims())
	h.Link(c)

	require.Equal(t, http.StatusOK, w.Code)
	var link service.DocumentLink
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &link))
	assert.Contains(t, link.URL, "/documents/doc-1/download")
}
