package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/middleware"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Eligibility *EligibilityHandler
	Submission  *SubmissionHandler
	Application *ApplicationHandler
	Payment     *PaymentHandler
	Bulk        *BulkNotificationHandler
	Analytics   *AnalyticsHandler
	Report      *ReportHandler
	Document    *DocumentHandler
	Metrics     *MetricsHandler
}

// RouteDeps carries the cross-cutting middleware inputs.
type RouteDeps struct {
	Tokens        middleware.TokenValidator
	SubmitLimiter *middleware.RateLimiter
	AuditLogger   *zap.Logger
}

// RegisterRoutes mounts public, applicant and staff routes under the API prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, deps RouteDeps) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	public := api.Group("")
	public.Use(middleware.OptionalJWT(deps.Tokens))
	public.GET("/posts", h.Eligibility.Posts)
	public.POST("/eligibility/check", h.Eligibility.Check)
	api.GET("/documents/:id/download", h.Document.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))
	secured.GET("/auth/me", h.Auth.Me)

	submit := []gin.HandlerFunc{}
	if deps.SubmitLimiter != nil {
		submit = append(submit, deps.SubmitLimiter.Handler())
	}
	submit = append(submit, h.Submission.Submit)
	secured.POST("/applications", submit...)
	secured.GET("/applications/mine", h.Application.ListMine)
	secured.GET("/applications/:id", h.Application.Get)
	secured.GET("/applications/:id/pdf", h.Report.ApplicationPDF)
	secured.GET("/documents/:id/link", h.Document.Link)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireStaff())
	admin.GET("/applications", h.Application.Dashboard)
	admin.PATCH("/applications/:id/status", middleware.Audit(deps.AuditLogger, "application.transition"), h.Application.Transition)
	admin.GET("/payments/:id", h.Payment.Get)
	admin.PATCH("/payments/:id/verify", middleware.Audit(deps.AuditLogger, "payment.verify"), h.Payment.Verify)
	admin.POST("/notifications/bulk", middleware.Audit(deps.AuditLogger, "notification.bulk"), h.Bulk.Send)
	admin.GET("/notifications/bulk", h.Bulk.History)
	admin.GET("/reports/applications", h.Report.Export)
	admin.GET("/analytics/applications", h.Analytics.Applications)
	admin.GET("/analytics/system", h.Analytics.System)
}
