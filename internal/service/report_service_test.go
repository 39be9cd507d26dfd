package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

func newReportFixture(t *testing.T) (*ReportService, *memRepo, models.Principal, models.Principal, string) {
	t.Helper()
	repo := newMemRepo()
	blobs := newMemBlobs()
	owner := repo.addUser("owner-1", "asha@example.com", models.RoleApplicant)
	reviewer := repo.addUser("rev-1", "rev@serc.res.in", models.RoleReviewer)

	photoRef, err := blobs.Put([]byte("not really a jpeg"), "owner-1_photo.jpg")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), &models.ApplicantProfile{
		OwnerID: owner.ID, Name: "Asha Raman", Category: "OBC", PwBD: "No",
		DateOfBirth: time.Date(1986, 6, 1, 0, 0, 0, 0, time.UTC), PhotoRef: photoRef,
	}))
	app := &models.Application{OwnerID: owner.ID, PostCode: "SCI-01", Status: models.StatusSubmitted, SubmittedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(context.Background(), app))
	year := 2010
	require.NoError(t, repo.CreateEducation(context.Background(), []models.EducationRecord{
		{ApplicationID: app.ID, Level: "Master", Discipline: "Structural Engineering", Institute: "IIT Madras", Year: &year, Marks: "8.4"},
	}))

	apps := NewApplicationService(&memTx{}, repo, repo, repo, memPayments{repo}, repo, nil, nil, nil, nil, nil, 0)
	svc := NewReportService(repo, apps, blobs, nil, nil, nil, 0)
	return svc, repo, owner, reviewer, app.ID
}

func TestExportApplicationsCSV(t *testing.T) {
	svc, _, _, reviewer, appID := newReportFixture(t)

	file, err := svc.ExportApplications(context.Background(), models.ApplicationFilter{PostCode: "sci-01"}, "CSV", reviewer)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, applicationReportHeaders, records[0])
	assert.Equal(t, appID, records[1][0])
	assert.Equal(t, "Asha Raman", records[1][1])
	assert.Equal(t, "0", records[1][9])
	assert.Equal(t, "false", records[1][10])
}

func TestExportApplicationsPDFAndErrors(t *testing.T) {
	svc, _, owner, reviewer, _ := newReportFixture(t)

	file, err := svc.ExportApplications(context.Background(), models.ApplicationFilter{}, ReportFormatPDF, reviewer)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))

	_, err = svc.ExportApplications(context.Background(), models.ApplicationFilter{}, "xlsx", reviewer)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ExportApplications(context.Background(), models.ApplicationFilter{}, ReportFormatCSV, owner)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestApplicationPDF(t *testing.T) {
	svc, repo, owner, _, appID := newReportFixture(t)

	file, err := svc.ApplicationPDF(context.Background(), appID, owner)
	require.NoError(t, err)
	assert.Equal(t, "application_"+appID+".pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))

	stranger := repo.addUser("owner-2", "ravi@example.com", models.RoleApplicant)
	_, err = svc.ApplicationPDF(context.Background(), appID, stranger)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
