package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/export"
)

// Supported export formats.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

// applicationReportHeaders is the column layout of the applications export.
var applicationReportHeaders = []string{
	"ApplicationID", "Name", "Category", "PwBD", "PostCode", "Status",
	"SubmittedAt", "PhotoFile", "UTR", "Amount", "PaymentVerified",
}

type summaryLister interface {
	ListSummaries(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationSummary, error)
}

type applicationDetailLoader interface {
	Get(ctx context.Context, applicationID string, actor models.Principal) (*models.ApplicationDetail, error)
}

type blobReader interface {
	Open(ref string) (io.ReadCloser, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderForm(form export.Form) ([]byte, error)
}

// ReportFile is a rendered document ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders staff exports and printable application forms.
type ReportService struct {
	summaries    summaryLister
	applications applicationDetailLoader
	blobs        blobReader
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
	maxPhoto     int64
}

// NewReportService constructs the report service. maxPhoto bounds the photo bytes read into a form.
func NewReportService(summaries summaryLister, applications applicationDetailLoader, blobs blobReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, maxPhoto int64) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if maxPhoto <= 0 {
		maxPhoto = 100 * 1024
	}
	return &ReportService{summaries: summaries, applications: applications, blobs: blobs, csv: csv, pdf: pdf, logger: logger, maxPhoto: maxPhoto}
}

// ExportApplications renders every application matching filter as CSV or a PDF table.
func (s *ReportService) ExportApplications(ctx context.Context, filter models.ApplicationFilter, format string, actor models.Principal) (*ReportFile, error) {
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ReportFormatCSV
	}
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", filter.Status))
	}
	filter.PostCode = normalizePostCode(filter.PostCode)
	filter.Limit = 0

	rows, err := s.summaries.ListSummaries(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	dataset := buildApplicationDataset(rows)

	stamp := time.Now().UTC().Format("20060102_150405")
	switch format {
	case ReportFormatPDF:
		data, err := s.pdf.Render(dataset, "Applications")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ReportFile{Filename: "applications_" + stamp + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ReportFile{Filename: "applications_" + stamp + ".csv", ContentType: "text/csv", Data: data}, nil
	}
}

// ApplicationPDF renders the printable form of one application for its owner or staff.
func (s *ReportService) ApplicationPDF(ctx context.Context, applicationID string, actor models.Principal) (*ReportFile, error) {
	detail, err := s.applications.Get(ctx, applicationID, actor)
	if err != nil {
		return nil, err
	}
	form := s.buildForm(detail)
	data, err := s.pdf.RenderForm(form)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render application pdf")
	}
	return &ReportFile{
		Filename:    "application_" + detail.Application.ID + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *ReportService) buildForm(detail *models.ApplicationDetail) export.Form {
	app := detail.Application
	name := ""
	if detail.Profile != nil {
		name = detail.Profile.Name
	}
	form := export.Form{
		Title: "CSIR-SERC Scientist Application - " + app.PostCode,
		Fields: []export.Field{
			{Label: "Application", Value: app.ID},
			{Label: "Applicant", Value: name},
			{Label: "Email", Value: detail.OwnerEmail},
			{Label: "Status", Value: string(app.Status)},
			{Label: "Submitted", Value: app.SubmittedAt.UTC().Format("2006-01-02 15:04")},
		},
	}
	if detail.Profile != nil {
		p := detail.Profile
		form.Fields = append(form.Fields,
			export.Field{Label: "Date of birth", Value: p.DateOfBirth.Format(DateLayout)},
			export.Field{Label: "Category", Value: p.Category},
			export.Field{Label: "PwBD", Value: p.PwBD},
		)
		if photo, kind := s.loadPhoto(p.PhotoRef); photo != nil {
			form.Photo, form.PhotoType = photo, kind
		}
	}

	education := export.Section{Title: "Education"}
	for _, e := range detail.Education {
		year := ""
		if e.Year != nil {
			year = strconv.Itoa(*e.Year)
		}
		education.Lines = append(education.Lines, strings.Join([]string{e.Level, e.Discipline, e.Institute, year, e.Marks}, " - "))
	}
	employment := export.Section{Title: "Employment"}
	for _, e := range detail.Employment {
		employment.Lines = append(employment.Lines, fmt.Sprintf("%s - %s - %s to %s", e.Organization, e.Designation, formatDate(e.DateFrom), formatDate(e.DateTo)))
	}
	documents := export.Section{Title: "Documents"}
	for _, d := range detail.Documents {
		documents.Lines = append(documents.Lines, fmt.Sprintf("%s - %s", d.DocType, d.OriginalName))
	}
	payment := export.Section{Title: "Payment"}
	if p := detail.Payment; p != nil {
		payment.Lines = append(payment.Lines, fmt.Sprintf("Applicable: %t | UTR: %s | Amount: %d | Verified: %t", p.Applicable, derefTrim(p.UTR), p.Amount, p.Verified))
	} else {
		payment.Lines = append(payment.Lines, "No payment record")
	}
	form.Sections = []export.Section{education, employment, documents, payment}
	return form
}

// loadPhoto reads the stored photo for embedding. A missing or unreadable photo is left out.
func (s *ReportService) loadPhoto(ref string) ([]byte, string) {
	if ref == "" || s.blobs == nil {
		return nil, ""
	}
	rc, err := s.blobs.Open(ref)
	if err != nil {
		s.logger.Debug("photo unavailable for pdf", zap.String("ref", ref), zap.Error(err))
		return nil, ""
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, s.maxPhoto+1))
	if err != nil || int64(len(data)) > s.maxPhoto {
		return nil, ""
	}
	kind := extensionOf(ref)
	if kind == "jpeg" {
		kind = "jpg"
	}
	return data, kind
}

func buildApplicationDataset(rows []models.ApplicationSummary) export.Dataset {
	dataset := export.Dataset{Headers: applicationReportHeaders}
	for _, r := range rows {
		amount := "0"
		if r.Amount != nil {
			amount = strconv.Itoa(*r.Amount)
		}
		verified := false
		if r.PaymentVerified != nil {
			verified = *r.PaymentVerified
		}
		dataset.Append(
			r.ID,
			derefTrim(r.Name),
			derefTrim(r.Category),
			derefTrim(r.PwBD),
			r.PostCode,
			string(r.Status),
			r.SubmittedAt.UTC().Format(time.RFC3339),
			derefTrim(r.PhotoRef),
			derefTrim(r.UTR),
			amount,
			strconv.FormatBool(verified),
		)
	}
	return dataset
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(DateLayout)
}
