package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/serc-portal/recruitment-api/api/swagger"
	"github.com/serc-portal/recruitment-api/internal/handler"
	"github.com/serc-portal/recruitment-api/internal/middleware"
	"github.com/serc-portal/recruitment-api/internal/repository"
	"github.com/serc-portal/recruitment-api/internal/service"
	"github.com/serc-portal/recruitment-api/pkg/cache"
	"github.com/serc-portal/recruitment-api/pkg/config"
	"github.com/serc-portal/recruitment-api/pkg/database"
	"github.com/serc-portal/recruitment-api/pkg/export"
	"github.com/serc-portal/recruitment-api/pkg/logger"
	corsmiddleware "github.com/serc-portal/recruitment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/serc-portal/recruitment-api/pkg/middleware/requestid"
	"github.com/serc-portal/recruitment-api/pkg/notify"
	"github.com/serc-portal/recruitment-api/pkg/storage"
)

// @title SERC Recruitment Portal API
// @version 1.0.0
// @description Applicant registration, eligibility screening, application intake and staff review
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo service.CacheRepository
	var rdb *redis.Client
	if cfg.Analytics.Enabled {
		rdb, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, analytics cache disabled", zap.Error(err))
		} else {
			defer rdb.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(rdb, "serc", logr)
		}
	}

	blobs, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	rules := service.DefaultRulesTable()
	if cfg.Recruitment.RulesFile != "" {
		if rules, err = service.LoadRulesTable(cfg.Recruitment.RulesFile); err != nil {
			return fmt.Errorf("load eligibility rules: %w", err)
		}
	}

	notifier, err := buildNotifier(ctx, cfg.Notifier, logr)
	if err != nil {
		return err
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	txManager := repository.NewTxManager(db)
	users := repository.NewUserRepository(db)
	profiles := repository.NewProfileRepository(db)
	applications := repository.NewApplicationRepository(db)
	records := repository.NewRecordRepository(db)
	payments := repository.NewPaymentRepository(db)
	bulkRecords := repository.NewBulkNotificationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	dispatcher := service.NewNotificationDispatcher(notifier, metrics, logr.Named("notifications"), service.DispatcherConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		Timeout:    cfg.Notifier.Timeout,
	})
	// Stopped explicitly after the HTTP server drains.
	dispatcher.Start(context.WithoutCancel(ctx))

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	if err := authSvc.SeedAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logr.Warn("admin seed skipped", zap.Error(err))
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, cacheRepo != nil)
	eligibilitySvc := service.NewEligibilityService(rules, cfg.Recruitment.ClosingDate)

	adminAddress := cfg.Recruitment.AdminEmail
	if cfg.Notifier.AdminTopicARN != "" {
		adminAddress = cfg.Notifier.AdminTopicARN
	}
	submissionSvc := service.NewSubmissionService(
		txManager, profiles, applications, records, payments,
		service.NewDocumentIntake(blobs), eligibilitySvc, dispatcher, metrics, validate, logr,
		service.SubmissionConfig{
			FeeAmount:        cfg.Recruitment.FeeAmount,
			AdminEmail:       adminAddress,
			MaxPhotoBytes:    cfg.Uploads.MaxPhotoBytes,
			MaxSignBytes:     cfg.Uploads.MaxSignBytes,
			MaxPDFBytes:      cfg.Uploads.MaxPDFBytes,
			OneActivePerPost: cfg.Recruitment.OneActivePerPost,
		},
	)
	applicationSvc := service.NewApplicationService(
		txManager, applications, records, profiles, payments, users,
		dispatcher, cacheSvc, metrics, validate, logr, cfg.Recruitment.DashboardListLimit,
	)
	paymentSvc := service.NewPaymentService(payments, logr)
	bulkSvc := service.NewBulkNotificationService(applications, bulkRecords, dispatcher, validate, logr, cfg.Recruitment.BulkBodyPreviewLength)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheSvc, metrics, logr)
	reportSvc := service.NewReportService(applications, applicationSvc, blobs, export.NewCSVExporter(), export.NewPDFExporter(), logr, cfg.Uploads.MaxPhotoBytes)
	documentSvc := service.NewDocumentService(records, applications, blobs, signer, logr, cfg.APIPrefix)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.SubmitPerSecond, cfg.RateLimit.SubmitBurst, logr)
	cleanupStop := make(chan struct{})
	defer close(cleanupStop)
	limiter.StartCleanup(5*time.Minute, cleanupStop)

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.SecurityHeaders())
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Eligibility: handler.NewEligibilityHandler(eligibilitySvc),
		Submission:  handler.NewSubmissionHandler(submissionSvc, logr),
		Application: handler.NewApplicationHandler(applicationSvc),
		Payment:     handler.NewPaymentHandler(paymentSvc),
		Bulk:        handler.NewBulkNotificationHandler(bulkSvc),
		Analytics:   handler.NewAnalyticsHandler(analyticsSvc),
		Report:      handler.NewReportHandler(reportSvc),
		Document:    handler.NewDocumentHandler(documentSvc, logr),
		Metrics:     handler.NewMetricsHandler(metrics, readinessChecks(db, rdb)),
	}, handler.RouteDeps{
		Tokens:        authSvc,
		SubmitLimiter: limiter,
		AuditLogger:   logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "posts", len(rules.Posts()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	dispatcher.Stop(shutdownCtx)
	return nil
}

func buildNotifier(ctx context.Context, cfg config.NotifierConfig, logr *zap.Logger) (notify.Notifier, error) {
	var email notify.Notifier
	switch cfg.Driver {
	case config.NotifierSMTP:
		email = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			UseTLS:   cfg.SMTPUseTLS,
			From:     cfg.FromEmail,
			FromName: cfg.FromName,
		})
	case config.NotifierSES:
		ses, err := notify.NewSESNotifier(ctx, cfg.AWSRegion, cfg.FromEmail, cfg.FromName)
		if err != nil {
			return nil, fmt.Errorf("init ses notifier: %w", err)
		}
		email = ses
	default:
		email = notify.NewLogNotifier(logr)
	}

	router := notify.Router{Email: email}
	if cfg.AdminTopicARN != "" {
		sns, err := notify.NewSNSNotifier(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("init sns notifier: %w", err)
		}
		router.Topic = sns
	}
	logr.Info("notifier configured", zap.String("driver", cfg.Driver), zap.Bool("admin_topic", router.Topic != nil))
	return router, nil
}

func readinessChecks(db *sqlx.DB, rdb *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"postgres": db}
	if rdb != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	return checks
}
