package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serc-portal/recruitment-api/internal/models"
)

var applicationRowColumns = []string{"id", "owner_id", "profile_id", "post_code", "status", "shortlist_tag", "reviewer_notes", "submitted_at", "updated_at"}

func TestApplicationRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_owner_post_active_idx"})

	err := repo.Create(context.Background(), &models.Application{OwnerID: "u-1", ProfileID: "p-1", PostCode: "SCI-01", Status: models.StatusSubmitted})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryGetForUpdateLocksRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM applications WHERE id = $1 FOR UPDATE")).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(applicationRowColumns).
			AddRow("app-1", "u-1", "p-1", "SCI-01", "Under Review", nil, "needs interview", now, now))

	app, err := repo.GetForUpdate(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, app.Status)
	require.NotNil(t, app.ReviewerNotes)
	assert.Equal(t, "needs interview", *app.ReviewerNotes)
	assert.Nil(t, app.ShortlistTag)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateReviewMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE applications SET status").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateReview(context.Background(), &models.Application{ID: "missing", Status: models.StatusRejected})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryHasActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("u-1", "SCI-01", models.StatusRejected).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasActive(context.Background(), "u-1", "SCI-01")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListSummariesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "owner_email", "post_code", "status", "shortlist_tag", "submitted_at",
		"name", "category", "pwbd", "photo_ref", "payment_id", "utr", "amount", "payment_verified"}).
		AddRow("app-1", "u-1", "asha@example.com", "SCI-01", "Submitted", nil, now, "Asha", "OBC", "No", "u-1_photo.jpg", "pay-1", "UTR1", 500, false)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.status = $1 AND a.post_code = $2 ORDER BY a.submitted_at DESC LIMIT 500")).
		WithArgs(models.StatusSubmitted, "SCI-01").
		WillReturnRows(rows)

	list, err := repo.ListSummaries(context.Background(), models.ApplicationFilter{Status: models.StatusSubmitted, PostCode: "SCI-01", Limit: 500})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "asha@example.com", list[0].OwnerEmail)
	require.NotNil(t, list[0].Amount)
	assert.Equal(t, 500, *list[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListRecipientsWithoutFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"application_id", "post_code", "status", "email", "name"}).
		AddRow("app-1", "SCI-01", "Shortlisted", "asha@example.com", "Asha").
		AddRow("app-2", "SCI-01", "Shortlisted", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN applicant_profiles p ON p.id = a.profile_id ORDER BY a.submitted_at ASC")).
		WillReturnRows(rows)

	recipients, err := repo.ListRecipients(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)
	require.Len(t, recipients, 2)
	assert.Nil(t, recipients[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
