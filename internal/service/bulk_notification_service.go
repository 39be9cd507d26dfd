package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/notify"
)

type bulkRecipientLister interface {
	ListRecipients(ctx context.Context, filter models.ApplicationFilter) ([]models.BulkRecipient, error)
}

type bulkRecordStore interface {
	Create(ctx context.Context, record *models.BulkNotificationRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.BulkNotificationRecord, error)
}

type notificationDeliverer interface {
	Deliver(ctx context.Context, n Notification) notify.Result
}

// Skip reasons reported for bulk recipients.
const (
	SkipMissingEmail = "missing email"
	SkipMissingName  = "missing profile name"
)

// BulkNotificationService targets applications by filter and sends personalised messages.
type BulkNotificationService struct {
	recipients    bulkRecipientLister
	records       bulkRecordStore
	sender        notificationDeliverer
	validator     *validator.Validate
	logger        *zap.Logger
	previewLength int
	now           func() time.Time
}

// NewBulkNotificationService constructs the targeter. previewLength bounds the stored body preview.
func NewBulkNotificationService(recipients bulkRecipientLister, records bulkRecordStore, sender notificationDeliverer, validate *validator.Validate, logger *zap.Logger, previewLength int) *BulkNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if previewLength <= 0 {
		previewLength = 500
	}
	return &BulkNotificationService{
		recipients:    recipients,
		records:       records,
		sender:        sender,
		validator:     validate,
		logger:        logger,
		previewLength: previewLength,
		now:           time.Now,
	}
}

// Target lists the applications matching the optional status and post code filters.
func (s *BulkNotificationService) Target(ctx context.Context, status models.ApplicationStatus, postCode string) ([]models.BulkRecipient, error) {
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}
	list, err := s.recipients.ListRecipients(ctx, models.ApplicationFilter{Status: status, PostCode: normalizePostCode(postCode)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recipients")
	}
	return list, nil
}

// Render substitutes {key} placeholders by exact key. Unknown placeholders are left as written.
func Render(template string, values map[string]string) string {
	if len(values) == 0 {
		return template
	}
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Preview renders every message without sending or recording anything.
func (s *BulkNotificationService) Preview(ctx context.Context, req models.BulkNotificationRequest, actor models.Principal) (*models.BulkPreview, error) {
	if err := s.authorize(req, actor); err != nil {
		return nil, err
	}
	list, err := s.Target(ctx, req.FilterStatus, req.FilterPostCode)
	if err != nil {
		return nil, err
	}
	messages, skipped := s.renderAll(req, list)
	return &models.BulkPreview{Messages: messages, Skipped: skipped}, nil
}

// Dispatch sends every rendered message and writes one audit record with the success count.
func (s *BulkNotificationService) Dispatch(ctx context.Context, req models.BulkNotificationRequest, actor models.Principal) (*models.BulkDispatchResult, error) {
	if err := s.authorize(req, actor); err != nil {
		return nil, err
	}
	list, err := s.Target(ctx, req.FilterStatus, req.FilterPostCode)
	if err != nil {
		return nil, err
	}
	messages, skipped := s.renderAll(req, list)

	result := &models.BulkDispatchResult{Skipped: skipped, Failures: []models.DeliveryFailure{}}
	sent := 0
	for _, msg := range messages {
		res := s.sender.Deliver(ctx, Notification{Kind: NotificationBulk, To: msg.To, Subject: msg.Subject, Body: msg.Body})
		if res.Delivered {
			sent++
			continue
		}
		result.Failures = append(result.Failures, models.DeliveryFailure{ApplicationID: msg.ApplicationID, To: msg.To, Reason: res.Reason})
	}

	record := &models.BulkNotificationRecord{
		Subject:        req.Subject,
		BodyPreview:    s.bodyPreview(req.Body),
		FilterStatus:   optionalString(string(req.FilterStatus)),
		FilterPostCode: optionalString(normalizePostCode(req.FilterPostCode)),
		CountSent:      sent,
		SentBy:         actor.Email,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record bulk notification")
	}
	result.Record = *record

	s.logger.Info("bulk notification dispatched",
		zap.String("record_id", record.ID),
		zap.Int("sent", sent),
		zap.Int("skipped", len(skipped)),
		zap.Int("failed", len(result.Failures)),
		zap.String("actor_id", actor.ID),
	)
	return result, nil
}

// History lists the most recent dispatch records.
func (s *BulkNotificationService) History(ctx context.Context, limit int, actor models.Principal) ([]models.BulkNotificationRecord, error) {
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bulk notifications")
	}
	return records, nil
}

func (s *BulkNotificationService) authorize(req models.BulkNotificationRequest, actor models.Principal) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if !actor.IsStaff() {
		return appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk notification payload")
	}
	return nil
}

func (s *BulkNotificationService) renderAll(req models.BulkNotificationRequest, list []models.BulkRecipient) ([]models.RenderedMessage, []models.SkippedRecipient) {
	messages := make([]models.RenderedMessage, 0, len(list))
	skipped := []models.SkippedRecipient{}
	for _, r := range list {
		email := derefTrim(r.Email)
		name := derefTrim(r.Name)
		switch {
		case email == "":
			skipped = append(skipped, models.SkippedRecipient{ApplicationID: r.ApplicationID, Reason: SkipMissingEmail})
			continue
		case name == "":
			skipped = append(skipped, models.SkippedRecipient{ApplicationID: r.ApplicationID, Reason: SkipMissingName})
			continue
		}
		values := map[string]string{
			models.PlaceholderName:        name,
			models.PlaceholderPostCode:    r.PostCode,
			models.PlaceholderAppID:       r.ApplicationID,
			models.PlaceholderInterviewDT: req.InterviewDT,
			models.PlaceholderVenue:       req.Venue,
		}
		messages = append(messages, models.RenderedMessage{
			ApplicationID: r.ApplicationID,
			To:            email,
			Subject:       Render(req.Subject, values),
			Body:          Render(req.Body, values),
		})
	}
	return messages, skipped
}

func (s *BulkNotificationService) bodyPreview(body string) string {
	runes := []rune(body)
	if len(runes) <= s.previewLength {
		return body
	}
	return string(runes[:s.previewLength]) + "..."
}

func derefTrim(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
