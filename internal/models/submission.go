package models

import "io"

// Document field names accepted by intake.
const (
	FieldPhoto = "photo"
	FieldSign  = "sign"
)

// OptionalPDFFields are the supporting document categories collected best-effort.
var OptionalPDFFields = []string{
	"phd_synopsis", "phd_proof", "cat_cert", "pwbd_cert", "equivalence",
	"exp_cert", "other_docs", "noc", "fee_receipt", "exempt_proof",
}

// FeeReceiptField is the optional PDF linked to the payment claim.
const FeeReceiptField = "fee_receipt"

// ProfileFields enumerates the biographical inputs of a submission.
type ProfileFields struct {
	Name         string `json:"name" validate:"required,max=200"`
	FatherName   string `json:"father" validate:"max=200"`
	MotherName   string `json:"mother" validate:"max=200"`
	DateOfBirth  string `json:"dob" validate:"required"`
	Gender       string `json:"gender" validate:"max=20"`
	Nationality  string `json:"nationality" validate:"max=100"`
	Category     string `json:"category" validate:"max=20"`
	PwBD         string `json:"pwbd" validate:"max=20"`
	ExServiceman string `json:"exsm" validate:"max=10"`
	Address1     string `json:"addr1" validate:"max=250"`
	Address2     string `json:"addr2" validate:"max=250"`
	City         string `json:"city" validate:"max=120"`
	State        string `json:"state" validate:"max=120"`
	PIN          string `json:"pin" validate:"omitempty,numeric,len=6"`
}

// DegreeEntry is one education row as entered on the form.
type DegreeEntry struct {
	Level      string `json:"level"`
	Discipline string `json:"discipline"`
	Institute  string `json:"institute"`
	Year       string `json:"year"`
	Marks      string `json:"marks"`
}

// PhDEntry is the doctoral qualification; Date is YYYY-MM.
type PhDEntry struct {
	Area   string `json:"phd_area"`
	Status string `json:"phd_status"`
	Date   string `json:"phd_date"`
}

// EmploymentEntry is one job as entered on the form; dates are YYYY-MM-DD.
type EmploymentEntry struct {
	Organization string `json:"organization"`
	Designation  string `json:"designation"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
}

// PaymentFields is the applicant's fee attestation.
type PaymentFields struct {
	FeeApplicable bool   `json:"fee_applicable"`
	UTR           string `json:"utr" validate:"max=64"`
	UTRDate       string `json:"utr_date"`
}

// FileUpload is one uploaded file as received from the boundary layer.
type FileUpload struct {
	Field    string
	Filename string
	Size     int64
	Content  io.Reader
}

// SubmissionInput is everything the orchestrator needs for one submission.
type SubmissionInput struct {
	PostCode   string
	Profile    ProfileFields
	Degrees    []DegreeEntry
	PhD        PhDEntry
	Employment []EmploymentEntry
	Photo      *FileUpload
	Sign       *FileUpload
	Documents  []FileUpload
	Payment    PaymentFields
}

// Document rejection reasons.
const (
	RejectUnsupportedType = "UnsupportedType"
	RejectTooLarge        = "TooLarge"
	RejectMissing         = "Missing"
)

// DocumentResult reports the outcome for one optional document.
type DocumentResult struct {
	Field    string `json:"field"`
	Filename string `json:"filename"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// SubmissionResult is returned for a successful submission.
type SubmissionResult struct {
	Application Application      `json:"application"`
	Documents   []DocumentResult `json:"documents"`
}
