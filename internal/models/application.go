package models

import "time"

// ApplicationStatus is the reviewer-facing lifecycle state.
type ApplicationStatus string

const (
	StatusSubmitted   ApplicationStatus = "Submitted"
	StatusUnderReview ApplicationStatus = "Under Review"
	StatusShortlisted ApplicationStatus = "Shortlisted"
	StatusRejected    ApplicationStatus = "Rejected"
)

// AllStatuses lists the statuses in lifecycle order.
var AllStatuses = []ApplicationStatus{StatusSubmitted, StatusUnderReview, StatusShortlisted, StatusRejected}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no other status can follow s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusShortlisted || s == StatusRejected
}

// ApplicantProfile holds the biographical data of one applicant. One row per owner.
type ApplicantProfile struct {
	ID           string    `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	FatherName   string    `db:"father_name" json:"father_name"`
	MotherName   string    `db:"mother_name" json:"mother_name"`
	DateOfBirth  time.Time `db:"dob" json:"dob"`
	Gender       string    `db:"gender" json:"gender"`
	Nationality  string    `db:"nationality" json:"nationality"`
	Category     string    `db:"category" json:"category"`
	PwBD         string    `db:"pwbd" json:"pwbd"`
	ExServiceman string    `db:"exsm" json:"exsm"`
	Address1     string    `db:"addr1" json:"addr1"`
	Address2     string    `db:"addr2" json:"addr2"`
	City         string    `db:"city" json:"city"`
	State        string    `db:"state" json:"state"`
	PIN          string    `db:"pin" json:"pin"`
	PhotoRef     string    `db:"photo_ref" json:"photo_ref"`
	SignRef      string    `db:"sign_ref" json:"sign_ref"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Application is one submission for one post.
type Application struct {
	ID            string            `db:"id" json:"id"`
	OwnerID       string            `db:"owner_id" json:"owner_id"`
	ProfileID     string            `db:"profile_id" json:"profile_id"`
	PostCode      string            `db:"post_code" json:"post_code"`
	Status        ApplicationStatus `db:"status" json:"status"`
	ShortlistTag  *string           `db:"shortlist_tag" json:"shortlist_tag,omitempty"`
	ReviewerNotes *string           `db:"reviewer_notes" json:"reviewer_notes,omitempty"`
	SubmittedAt   time.Time         `db:"submitted_at" json:"submitted_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// EducationRecord is one degree attached to an application.
type EducationRecord struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	Level         string    `db:"degree_level" json:"level"`
	Discipline    string    `db:"discipline" json:"discipline"`
	Institute     string    `db:"institute" json:"institute"`
	Year          *int      `db:"year" json:"year,omitempty"`
	Marks         string    `db:"marks" json:"marks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// EmploymentRecord is one previous or current job attached to an application.
type EmploymentRecord struct {
	ID            string     `db:"id" json:"id"`
	ApplicationID string     `db:"application_id" json:"application_id"`
	Organization  string     `db:"organization" json:"organization"`
	Designation   string     `db:"designation" json:"designation"`
	DateFrom      *time.Time `db:"date_from" json:"date_from,omitempty"`
	DateTo        *time.Time `db:"date_to" json:"date_to,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// DocumentRef points at an uploaded supporting document.
type DocumentRef struct {
	ID               string    `db:"id" json:"id"`
	ApplicationID    string    `db:"application_id" json:"application_id"`
	DocType          string    `db:"doc_type" json:"doc_type"`
	StorageReference string    `db:"storage_ref" json:"-"`
	OriginalName     string    `db:"original_name" json:"original_name"`
	SizeBytes        int64     `db:"size_bytes" json:"size_bytes"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// PaymentClaim is the applicant's self-attested fee payment.
type PaymentClaim struct {
	ID            string     `db:"id" json:"id"`
	ApplicationID string     `db:"application_id" json:"application_id"`
	Applicable    bool       `db:"applicable" json:"applicable"`
	UTR           *string    `db:"utr" json:"utr,omitempty"`
	UTRDate       *time.Time `db:"utr_date" json:"utr_date,omitempty"`
	Amount        int        `db:"amount" json:"amount"`
	ReceiptRef    *string    `db:"receipt_ref" json:"-"`
	Verified      bool       `db:"verified" json:"verified"`
	VerifiedAt    *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	VerifiedBy    *string    `db:"verified_by" json:"verified_by,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ApplicationDetail bundles an application with all of its sub-records.
type ApplicationDetail struct {
	Application Application        `json:"application"`
	Profile     *ApplicantProfile  `json:"profile,omitempty"`
	OwnerEmail  string             `json:"owner_email"`
	Education   []EducationRecord  `json:"education"`
	Employment  []EmploymentRecord `json:"employment"`
	Documents   []DocumentRef      `json:"documents"`
	Payment     *PaymentClaim      `json:"payment,omitempty"`
}

// ApplicationFilter narrows staff listings by equality on status and post code.
type ApplicationFilter struct {
	Status   ApplicationStatus
	PostCode string
	OwnerID  string
	Limit    int
}

// ApplicationSummary is one dashboard or report row joined with profile and payment fields.
type ApplicationSummary struct {
	ID              string            `db:"id" json:"id"`
	OwnerID         string            `db:"owner_id" json:"owner_id"`
	OwnerEmail      string            `db:"owner_email" json:"owner_email"`
	PostCode        string            `db:"post_code" json:"post_code"`
	Status          ApplicationStatus `db:"status" json:"status"`
	ShortlistTag    *string           `db:"shortlist_tag" json:"shortlist_tag,omitempty"`
	SubmittedAt     time.Time         `db:"submitted_at" json:"submitted_at"`
	Name            *string           `db:"name" json:"name,omitempty"`
	Category        *string           `db:"category" json:"category,omitempty"`
	PwBD            *string           `db:"pwbd" json:"pwbd,omitempty"`
	PhotoRef        *string           `db:"photo_ref" json:"-"`
	PaymentID       *string           `db:"payment_id" json:"payment_id,omitempty"`
	UTR             *string           `db:"utr" json:"utr,omitempty"`
	Amount          *int              `db:"amount" json:"amount,omitempty"`
	PaymentVerified *bool             `db:"payment_verified" json:"payment_verified,omitempty"`
}

// StatusCount is the number of applications in one status.
type StatusCount struct {
	Status ApplicationStatus `db:"status" json:"status"`
	Count  int               `db:"count" json:"count"`
}

// Dashboard is the staff overview: recent applications plus per-status counts.
type Dashboard struct {
	Applications []ApplicationSummary      `json:"applications"`
	Counts       map[ApplicationStatus]int `json:"counts"`
}

// TransitionRequest is the reviewer's status change payload.
type TransitionRequest struct {
	Status        ApplicationStatus `json:"status"`
	ShortlistTag  *string           `json:"shortlist_tag" validate:"omitempty,max=64"`
	ReviewerNotes *string           `json:"reviewer_notes" validate:"omitempty,max=4000"`
}

// PaymentVerificationRequest records a staff decision on a payment claim.
type PaymentVerificationRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}
