package models

import "time"

// Bulk template placeholders.
const (
	PlaceholderName        = "name"
	PlaceholderPostCode    = "post_code"
	PlaceholderAppID       = "app_id"
	PlaceholderInterviewDT = "interview_dt"
	PlaceholderVenue       = "venue"
)

// BulkNotificationRecord is the append-only audit entry of one real dispatch.
type BulkNotificationRecord struct {
	ID             string    `db:"id" json:"id"`
	Subject        string    `db:"subject" json:"subject"`
	BodyPreview    string    `db:"body_preview" json:"body_preview"`
	FilterStatus   *string   `db:"filter_status" json:"filter_status,omitempty"`
	FilterPostCode *string   `db:"filter_post_code" json:"filter_post_code,omitempty"`
	CountSent      int       `db:"count_sent" json:"count_sent"`
	SentBy         string    `db:"sent_by" json:"sent_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// BulkRecipient is one targeted application joined with its owner's contact data.
type BulkRecipient struct {
	ApplicationID string            `db:"application_id" json:"application_id"`
	PostCode      string            `db:"post_code" json:"post_code"`
	Status        ApplicationStatus `db:"status" json:"status"`
	Email         *string           `db:"email" json:"email,omitempty"`
	Name          *string           `db:"name" json:"name,omitempty"`
}

// BulkNotificationRequest describes a bulk message and its audience.
type BulkNotificationRequest struct {
	FilterStatus   ApplicationStatus `json:"filter_status"`
	FilterPostCode string            `json:"filter_post_code"`
	Subject        string            `json:"subject" validate:"required,max=300"`
	Body           string            `json:"body" validate:"required"`
	InterviewDT    string            `json:"interview_dt"`
	Venue          string            `json:"venue"`
	DryRun         bool              `json:"dry_run"`
}

// RenderedMessage is one personalised message.
type RenderedMessage struct {
	ApplicationID string `json:"application_id"`
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// SkippedRecipient records why an application received no message.
type SkippedRecipient struct {
	ApplicationID string `json:"application_id"`
	Reason        string `json:"reason"`
}

// DeliveryFailure records a recipient whose notifier reported failure.
type DeliveryFailure struct {
	ApplicationID string `json:"application_id"`
	To            string `json:"to"`
	Reason        string `json:"reason"`
}

// BulkPreview is the dry-run output.
type BulkPreview struct {
	Messages []RenderedMessage  `json:"messages"`
	Skipped  []SkippedRecipient `json:"skipped"`
}

// BulkDispatchResult is the outcome of a real dispatch.
type BulkDispatchResult struct {
	Record   BulkNotificationRecord `json:"record"`
	Skipped  []SkippedRecipient     `json:"skipped"`
	Failures []DeliveryFailure      `json:"failures"`
}
