package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type submissionFixture struct {
	repo      *memRepo
	blobs     *memBlobs
	publisher *recordingPublisher
	tx        *memTx
	svc       *SubmissionService
	owner     models.Principal
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	repo := newMemRepo()
	blobs := newMemBlobs()
	publisher := &recordingPublisher{}
	tx := &memTx{repo: repo}
	svc := NewSubmissionService(
		tx, repo, repo, repo, memPayments{repo},
		NewDocumentIntake(blobs),
		NewEligibilityService(nil, testClosingDate),
		publisher, NewMetricsService(), nil, nil,
		SubmissionConfig{
			FeeAmount:        500,
			AdminEmail:       "admin@serc.res.in",
			MaxPhotoBytes:    102400,
			MaxSignBytes:     51200,
			MaxPDFBytes:      1 << 20,
			OneActivePerPost: true,
		},
	)
	owner := repo.addUser("owner-1", "asha@example.com", models.RoleApplicant)
	return &submissionFixture{repo: repo, blobs: blobs, publisher: publisher, tx: tx, svc: svc, owner: owner}
}

func (f *submissionFixture) assertNoRows(t *testing.T) {
	t.Helper()
	assert.Empty(t, f.repo.profiles)
	assert.Empty(t, f.repo.apps)
	assert.Empty(t, f.repo.education)
	assert.Empty(t, f.repo.employment)
	assert.Empty(t, f.repo.documents)
	assert.Empty(t, f.repo.payments)
}

func validSubmission() models.SubmissionInput {
	return models.SubmissionInput{
		PostCode: "SCI-01",
		Profile: models.ProfileFields{
			Name: "Asha Raman", DateOfBirth: "1986-06-01", Category: "OBC", PwBD: "No", PIN: "600113",
		},
		Degrees: []models.DegreeEntry{
			{Level: "Bachelor", Discipline: "Civil Engineering", Institute: "Anna University", Year: "2008", Marks: "78"},
			{Level: "Master", Discipline: "Structural Engineering", Institute: "IIT Madras", Year: "2010", Marks: "8.4"},
		},
		PhD:        models.PhDEntry{Area: "Seismic retrofitting", Status: "Awarded", Date: "2015-07"},
		Employment: []models.EmploymentEntry{{Organization: "L&T", Designation: "Engineer", DateFrom: "2010-08-01", DateTo: "2014-06-30"}},
		Photo:      upload(models.FieldPhoto, "photo.jpg", 2048),
		Sign:       upload(models.FieldSign, "sign.png", 1024),
		Payment:    models.PaymentFields{FeeApplicable: true, UTR: "UTR123456", UTRDate: "2025-11-30"},
	}
}

func TestSubmitCreatesFullApplication(t *testing.T) {
	f := newSubmissionFixture(t)
	in := validSubmission()
	in.Documents = []models.FileUpload{
		*upload("cat_cert", "obc.pdf", 4096),
		*upload("fee_receipt", "receipt.pdf", 2048),
	}

	res, err := f.svc.Submit(context.Background(), f.owner, in)
	require.NoError(t, err)

	app := res.Application
	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.Equal(t, "SCI-01", app.PostCode)
	assert.Equal(t, f.owner.ID, app.OwnerID)
	assert.Equal(t, 1, f.tx.calls)

	profile, err := f.repo.FindByOwner(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, app.ProfileID)
	assert.NotEmpty(t, profile.PhotoRef)
	assert.NotEmpty(t, profile.SignRef)

	education, _ := f.repo.ListEducation(context.Background(), app.ID)
	require.Len(t, education, 3)
	phd := education[2]
	assert.Equal(t, models.LevelPhD, phd.Level)
	require.NotNil(t, phd.Year)
	assert.Equal(t, 2015, *phd.Year)
	assert.Equal(t, "Awarded", phd.Marks)

	employment, _ := f.repo.ListEmployment(context.Background(), app.ID)
	assert.Len(t, employment, 1)

	docs, _ := f.repo.ListDocuments(context.Background(), app.ID)
	assert.Len(t, docs, 2)
	require.Len(t, res.Documents, 2)
	assert.True(t, res.Documents[0].Accepted)

	claim, err := memPayments{f.repo}.GetByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, claim.Amount)
	assert.True(t, claim.Applicable)
	require.NotNil(t, claim.ReceiptRef)
	require.NotNil(t, claim.UTRDate)
	assert.Equal(t, "2025-11-30", claim.UTRDate.Format(DateLayout))
	assert.False(t, claim.Verified)

	sent := f.publisher.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "asha@example.com", sent[0].To)
	assert.Equal(t, "CSIR-SERC - Application Submitted", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "#"+app.ID+" for SCI-01")
	assert.Equal(t, "admin@serc.res.in", sent[1].To)
	assert.Contains(t, sent[1].Body, "submitted by asha@example.com")
}

func TestSubmitFeeNotApplicableStoresZeroAmount(t *testing.T) {
	f := newSubmissionFixture(t)
	in := validSubmission()
	in.Payment = models.PaymentFields{FeeApplicable: false}

	res, err := f.svc.Submit(context.Background(), f.owner, in)
	require.NoError(t, err)
	claim, err := memPayments{f.repo}.GetByApplication(context.Background(), res.Application.ID)
	require.NoError(t, err)
	assert.Zero(t, claim.Amount)
	assert.Nil(t, claim.UTR)
}

func TestSubmitOversizedPhotoCreatesNothing(t *testing.T) {
	f := newSubmissionFixture(t)
	in := validSubmission()
	in.Photo = upload(models.FieldPhoto, "photo.jpg", 150000)

	_, err := f.svc.Submit(context.Background(), f.owner, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrDocument)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "photo", appErr.Details["field"])
	assert.Equal(t, models.RejectTooLarge, appErr.Details["reason"])

	assert.Empty(t, f.repo.apps)
	assert.Zero(t, f.blobs.count())
	assert.Empty(t, f.publisher.all())
}

func TestSubmitIneligibleCleansUpBlobs(t *testing.T) {
	f := newSubmissionFixture(t)
	in := validSubmission()
	in.Profile.DateOfBirth = "1984-06-01"

	_, err := f.svc.Submit(context.Background(), f.owner, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotEligible)
	assert.Contains(t, err.Error(), "age 41")
	f.assertNoRows(t)
	assert.Zero(t, f.blobs.count())
	assert.Len(t, f.blobs.deleted, 2)
}

func TestSubmitInvalidDateWritesNothing(t *testing.T) {
	f := newSubmissionFixture(t)
	in := validSubmission()
	in.Profile.DateOfBirth = "1986/06/01"

	_, err := f.svc.Submit(context.Background(), f.owner, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidDate)
	assert.Zero(t, f.tx.calls)
	assert.Zero(t, f.blobs.count())
	assert.Empty(t, f.blobs.deleted)
}

func TestSubmitInvalidUTRDateIsValidationError(t *testing.T) {
	f := newSubmissionFixture(t)
	in := validSubmission()
	in.Payment.UTRDate = "30-11-2025"

	_, err := f.svc.Submit(context.Background(), f.owner, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, f.tx.calls)
}

func TestSubmitRejectsSecondActiveApplicationForPost(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.svc.Submit(context.Background(), f.owner, validSubmission())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), f.owner, validSubmission())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Len(t, f.repo.apps, 1)
	assert.Equal(t, 2, f.blobs.count())
}

func TestSubmitOptionalDocumentsArePartialSuccess(t *testing.T) {
	f := newSubmissionFixture(t)
	in := validSubmission()
	in.Documents = []models.FileUpload{
		*upload("cat_cert", "obc.docx", 10),
		*upload("noc", "noc.pdf", 10),
		*upload("exp_cert", "huge.pdf", (1<<20)+1),
		*upload("unknown_field", "x.pdf", 10),
	}

	res, err := f.svc.Submit(context.Background(), f.owner, in)
	require.NoError(t, err)
	require.Len(t, res.Documents, 4)
	assert.Equal(t, models.RejectUnsupportedType, res.Documents[0].Reason)
	assert.True(t, res.Documents[1].Accepted)
	assert.Equal(t, models.RejectTooLarge, res.Documents[2].Reason)
	assert.Equal(t, models.RejectUnsupportedType, res.Documents[3].Reason)

	docs, _ := f.repo.ListDocuments(context.Background(), res.Application.ID)
	assert.Len(t, docs, 1)
}

func TestSubmitPaymentFailureRollsBackBlobs(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repo.failPayment = errors.New("connection reset")

	_, err := f.svc.Submit(context.Background(), f.owner, validSubmission())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	f.assertNoRows(t)
	assert.Zero(t, f.blobs.count())
	assert.Empty(t, f.publisher.all())
}

func TestSubmitRequiresPrincipal(t *testing.T) {
	f := newSubmissionFixture(t)
	_, err := f.svc.Submit(context.Background(), models.Principal{}, validSubmission())
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
