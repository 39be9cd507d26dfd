package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	"github.com/serc-portal/recruitment-api/internal/repository"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type submissionProfileStore interface {
	Upsert(ctx context.Context, profile *models.ApplicantProfile) error
}

type submissionApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	HasActive(ctx context.Context, ownerID, postCode string) (bool, error)
}

type submissionRecordStore interface {
	CreateEducation(ctx context.Context, records []models.EducationRecord) error
	CreateEmployment(ctx context.Context, records []models.EmploymentRecord) error
	CreateDocument(ctx context.Context, doc *models.DocumentRef) error
}

type submissionPaymentStore interface {
	Create(ctx context.Context, claim *models.PaymentClaim) error
}

// SubmissionConfig carries the recruitment-cycle parameters used by submissions.
type SubmissionConfig struct {
	FeeAmount        int
	AdminEmail       string
	MaxPhotoBytes    int64
	MaxSignBytes     int64
	MaxPDFBytes      int64
	OneActivePerPost bool
}

// SubmissionService assembles one application from a multi-part submission.
type SubmissionService struct {
	tx           txRunner
	profiles     submissionProfileStore
	applications submissionApplicationStore
	records      submissionRecordStore
	payments     submissionPaymentStore
	intake       *DocumentIntake
	eligibility  *EligibilityService
	notifier     notificationPublisher
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          SubmissionConfig
	now          func() time.Time
}

// NewSubmissionService wires the orchestrator.
func NewSubmissionService(
	tx txRunner,
	profiles submissionProfileStore,
	applications submissionApplicationStore,
	records submissionRecordStore,
	payments submissionPaymentStore,
	intake *DocumentIntake,
	eligibility *EligibilityService,
	notifier notificationPublisher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SubmissionConfig,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.FeeAmount <= 0 {
		cfg.FeeAmount = 500
	}
	if cfg.MaxPhotoBytes <= 0 {
		cfg.MaxPhotoBytes = 100 * 1024
	}
	if cfg.MaxSignBytes <= 0 {
		cfg.MaxSignBytes = 50 * 1024
	}
	if cfg.MaxPDFBytes <= 0 {
		cfg.MaxPDFBytes = 5 * 1024 * 1024
	}
	return &SubmissionService{
		tx:           tx,
		profiles:     profiles,
		applications: applications,
		records:      records,
		payments:     payments,
		intake:       intake,
		eligibility:  eligibility,
		notifier:     notifier,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// parsedSubmission holds the input after every format check has passed.
type parsedSubmission struct {
	postCode   string
	dob        time.Time
	education  []models.EducationRecord
	degrees    []models.Degree
	employment []models.EmploymentRecord
	utrDate    *time.Time
	pwbd       bool
}

// Submit validates and persists one submission. Profile, application, records
// and payment are written in one transaction; blobs written by a failed
// attempt are removed afterwards.
func (s *SubmissionService) Submit(ctx context.Context, owner models.Principal, in models.SubmissionInput) (*models.SubmissionResult, error) {
	result, err := s.submit(ctx, owner, in)
	s.metrics.ObserveSubmission(submissionOutcome(err))
	return result, err
}

func (s *SubmissionService) submit(ctx context.Context, owner models.Principal, in models.SubmissionInput) (*models.SubmissionResult, error) {
	if owner.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	parsed, err := s.parse(in)
	if err != nil {
		return nil, err
	}

	var (
		written []string
		result  *models.SubmissionResult
	)
	txErr := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		res, err := s.persist(ctx, owner, in, parsed, &written)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if txErr != nil {
		if len(written) > 0 {
			if failed := s.intake.Discard(written); len(failed) > 0 {
				s.logger.Warn("orphaned upload blobs", zap.Strings("refs", failed))
			}
		}
		return nil, txErr
	}

	s.notifySubmitted(ctx, owner, result.Application)
	s.logger.Info("application submitted",
		zap.String("application_id", result.Application.ID),
		zap.String("owner_id", owner.ID),
		zap.String("post_code", result.Application.PostCode),
	)
	return result, nil
}

func (s *SubmissionService) persist(ctx context.Context, owner models.Principal, in models.SubmissionInput, parsed *parsedSubmission, written *[]string) (*models.SubmissionResult, error) {
	profile := &models.ApplicantProfile{
		OwnerID:      owner.ID,
		Name:         strings.TrimSpace(in.Profile.Name),
		FatherName:   strings.TrimSpace(in.Profile.FatherName),
		MotherName:   strings.TrimSpace(in.Profile.MotherName),
		DateOfBirth:  parsed.dob,
		Gender:       strings.TrimSpace(in.Profile.Gender),
		Nationality:  strings.TrimSpace(in.Profile.Nationality),
		Category:     strings.TrimSpace(in.Profile.Category),
		PwBD:         strings.TrimSpace(in.Profile.PwBD),
		ExServiceman: strings.TrimSpace(in.Profile.ExServiceman),
		Address1:     strings.TrimSpace(in.Profile.Address1),
		Address2:     strings.TrimSpace(in.Profile.Address2),
		City:         strings.TrimSpace(in.Profile.City),
		State:        strings.TrimSpace(in.Profile.State),
		PIN:          strings.TrimSpace(in.Profile.PIN),
	}

	photo, err := s.acceptRequired(owner.ID, in.Photo, models.FieldPhoto, s.cfg.MaxPhotoBytes, written)
	if err != nil {
		return nil, err
	}
	sign, err := s.acceptRequired(owner.ID, in.Sign, models.FieldSign, s.cfg.MaxSignBytes, written)
	if err != nil {
		return nil, err
	}
	profile.PhotoRef = photo.Reference
	profile.SignRef = sign.Reference

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}

	verdict := s.eligibility.Rules().Evaluate(parsed.postCode, profile.Category, parsed.pwbd,
		parsed.dob.Format(DateLayout), parsed.degrees, s.eligibility.ClosingDate(parsed.postCode))
	if !verdict.Eligible {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, verdict.Reason)
	}

	if s.cfg.OneActivePerPost {
		active, err := s.applications.HasActive(ctx, owner.ID, parsed.postCode)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing applications")
		}
		if active {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("an application for %s is already in progress", parsed.postCode))
		}
	}

	app := &models.Application{
		OwnerID:     owner.ID,
		ProfileID:   profile.ID,
		PostCode:    parsed.postCode,
		Status:      models.StatusSubmitted,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("an application for %s is already in progress", parsed.postCode))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	for i := range parsed.education {
		parsed.education[i].ApplicationID = app.ID
	}
	if err := s.records.CreateEducation(ctx, parsed.education); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save education")
	}
	for i := range parsed.employment {
		parsed.employment[i].ApplicationID = app.ID
	}
	if err := s.records.CreateEmployment(ctx, parsed.employment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save employment")
	}

	documents, receiptRef, err := s.acceptOptional(ctx, owner.ID, app.ID, in.Documents, written)
	if err != nil {
		return nil, err
	}

	claim := &models.PaymentClaim{
		ApplicationID: app.ID,
		Applicable:    in.Payment.FeeApplicable,
		UTR:           optionalString(in.Payment.UTR),
		UTRDate:       parsed.utrDate,
		ReceiptRef:    receiptRef,
	}
	if claim.Applicable {
		claim.Amount = s.cfg.FeeAmount
	}
	if err := s.payments.Create(ctx, claim); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save payment claim")
	}

	return &models.SubmissionResult{Application: *app, Documents: documents}, nil
}

func (s *SubmissionService) acceptRequired(ownerID string, upload *models.FileUpload, field string, maxBytes int64, written *[]string) (*StoredDocument, error) {
	stored, err := s.intake.Accept(ownerID, upload, field, ImageExtensions, maxBytes)
	if err != nil {
		var rejection *DocumentRejection
		if errors.As(err, &rejection) {
			return nil, appErrors.WithDetails(appErrors.ErrDocument, fmt.Sprintf("%s rejected: %s", field, rejection.Reason),
				map[string]string{"field": field, "reason": rejection.Reason})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store "+field)
	}
	*written = append(*written, stored.Reference)
	return stored, nil
}

// acceptOptional stores each supporting PDF independently; a rejected file is reported, not fatal.
func (s *SubmissionService) acceptOptional(ctx context.Context, ownerID, applicationID string, uploads []models.FileUpload, written *[]string) ([]models.DocumentResult, *string, error) {
	results := make([]models.DocumentResult, 0, len(uploads))
	var receiptRef *string
	for i := range uploads {
		upload := uploads[i]
		if !containsFold(models.OptionalPDFFields, upload.Field) {
			results = append(results, models.DocumentResult{Field: upload.Field, Filename: upload.Filename, Reason: models.RejectUnsupportedType})
			continue
		}
		if strings.TrimSpace(upload.Filename) == "" {
			continue
		}
		stored, err := s.intake.Accept(ownerID, &upload, upload.Field, PDFExtensions, s.cfg.MaxPDFBytes)
		if err != nil {
			var rejection *DocumentRejection
			if !errors.As(err, &rejection) {
				return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store "+upload.Field)
			}
			results = append(results, models.DocumentResult{Field: upload.Field, Filename: upload.Filename, Reason: rejection.Reason})
			continue
		}
		*written = append(*written, stored.Reference)

		doc := &models.DocumentRef{
			ApplicationID:    applicationID,
			DocType:          upload.Field,
			StorageReference: stored.Reference,
			OriginalName:     stored.OriginalName,
			SizeBytes:        stored.SizeBytes,
			UploadedAt:       s.now().UTC(),
		}
		if err := s.records.CreateDocument(ctx, doc); err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save document")
		}
		if upload.Field == models.FeeReceiptField && receiptRef == nil {
			ref := stored.Reference
			receiptRef = &ref
		}
		results = append(results, models.DocumentResult{Field: upload.Field, Filename: upload.Filename, Accepted: true})
	}
	return results, receiptRef, nil
}

// parse runs every format check so that no blob or row is written for malformed input.
func (s *SubmissionService) parse(in models.SubmissionInput) (*parsedSubmission, error) {
	postCode := normalizePostCode(in.PostCode)
	if postCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "post code is required")
	}
	if strings.TrimSpace(in.Profile.DateOfBirth) == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidDate, "date of birth is required")
	}
	dob, err := time.Parse(DateLayout, strings.TrimSpace(in.Profile.DateOfBirth))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, "date of birth must be in YYYY-MM-DD format")
	}
	if err := s.validator.Struct(in.Profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile fields")
	}
	if err := s.validator.Struct(in.Payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment fields")
	}

	parsed := &parsedSubmission{postCode: postCode, dob: dob, pwbd: isAffirmative(in.Profile.PwBD)}

	for _, entry := range in.Degrees {
		discipline := strings.TrimSpace(entry.Discipline)
		institute := strings.TrimSpace(entry.Institute)
		if discipline == "" || institute == "" {
			continue
		}
		year, err := parseYear(entry.Year)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid year for %s degree", entry.Level))
		}
		level := strings.TrimSpace(entry.Level)
		parsed.education = append(parsed.education, models.EducationRecord{
			Level: level, Discipline: discipline, Institute: institute, Year: year, Marks: strings.TrimSpace(entry.Marks),
		})
		parsed.degrees = append(parsed.degrees, models.Degree{
			Level: level, Discipline: discipline, Institute: institute, Year: year, Marks: strings.TrimSpace(entry.Marks),
		})
	}

	area := strings.TrimSpace(in.PhD.Area)
	status := strings.TrimSpace(in.PhD.Status)
	if area != "" || status != "" {
		var year *int
		if date := strings.TrimSpace(in.PhD.Date); date != "" {
			ym, err := time.Parse("2006-01", date)
			if err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "PhD date must be in YYYY-MM format")
			}
			y := ym.Year()
			year = &y
		}
		parsed.education = append(parsed.education, models.EducationRecord{
			Level: models.LevelPhD, Discipline: area, Year: year, Marks: status,
		})
		parsed.degrees = append(parsed.degrees, models.Degree{Level: models.LevelPhD, Discipline: area, Year: year, Marks: status})
	}

	for _, entry := range in.Employment {
		org := strings.TrimSpace(entry.Organization)
		if org == "" {
			continue
		}
		from, err := optionalDate(entry.DateFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start date for %s", org))
		}
		to, err := optionalDate(entry.DateTo)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end date for %s", org))
		}
		if from != nil && to != nil && to.Before(*from) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("employment at %s ends before it starts", org))
		}
		parsed.employment = append(parsed.employment, models.EmploymentRecord{
			Organization: org, Designation: strings.TrimSpace(entry.Designation), DateFrom: from, DateTo: to,
		})
	}

	utrDate, err := optionalDate(in.Payment.UTRDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "UTR date must be in YYYY-MM-DD format")
	}
	parsed.utrDate = utrDate
	return parsed, nil
}

func (s *SubmissionService) notifySubmitted(ctx context.Context, owner models.Principal, app models.Application) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, Notification{
		Kind:    NotificationSubmitted,
		To:      owner.Email,
		Subject: "CSIR-SERC - Application Submitted",
		Body:    fmt.Sprintf("Thank you. Your application #%s for %s has been submitted.", app.ID, app.PostCode),
	})
	if s.cfg.AdminEmail != "" {
		s.notifier.Publish(ctx, Notification{
			Kind:    NotificationSubmittedAdmin,
			To:      s.cfg.AdminEmail,
			Subject: "New Application Submitted",
			Body:    fmt.Sprintf("Application #%s submitted by %s for %s.", app.ID, owner.Email, app.PostCode),
		})
	}
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return SubmissionAccepted
	case errors.Is(err, appErrors.ErrNotEligible):
		return SubmissionIneligible
	case errors.Is(err, appErrors.ErrDocument):
		return SubmissionRejectedDoc
	case errors.Is(err, appErrors.ErrConflict):
		return SubmissionDuplicate
	case errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrInvalidDate):
		return SubmissionInvalid
	default:
		return SubmissionFailed
	}
}

func parseYear(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 2100 {
		return nil, fmt.Errorf("invalid year %q", raw)
	}
	return &year, nil
}

func optionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isAffirmative(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
