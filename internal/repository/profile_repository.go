package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serc-portal/recruitment-api/internal/models"
)

const profileColumns = `id, owner_id, name, father_name, mother_name, dob, gender, nationality, category, pwbd, exsm,
	addr1, addr2, city, state, pin, photo_ref, sign_ref, created_at, updated_at`

// ProfileRepository persists applicant profiles, one per owner.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert inserts the owner's profile or overwrites the existing one. The unique
// owner_id index serializes concurrent upserts for the same owner.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.ApplicantProfile) error {
	now := time.Now().UTC()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	const query = `INSERT INTO applicant_profiles (` + profileColumns + `)
	VALUES (:id, :owner_id, :name, :father_name, :mother_name, :dob, :gender, :nationality, :category, :pwbd, :exsm,
		:addr1, :addr2, :city, :state, :pin, :photo_ref, :sign_ref, :created_at, :updated_at)
	ON CONFLICT (owner_id) DO UPDATE SET
		name = EXCLUDED.name, father_name = EXCLUDED.father_name, mother_name = EXCLUDED.mother_name,
		dob = EXCLUDED.dob, gender = EXCLUDED.gender, nationality = EXCLUDED.nationality,
		category = EXCLUDED.category, pwbd = EXCLUDED.pwbd, exsm = EXCLUDED.exsm,
		addr1 = EXCLUDED.addr1, addr2 = EXCLUDED.addr2, city = EXCLUDED.city, state = EXCLUDED.state,
		pin = EXCLUDED.pin, photo_ref = EXCLUDED.photo_ref, sign_ref = EXCLUDED.sign_ref,
		updated_at = EXCLUDED.updated_at
	RETURNING id, created_at`

	q := conn(ctx, r.db)
	named, args, err := q.BindNamed(query, profile)
	if err != nil {
		return fmt.Errorf("bind profile upsert: %w", err)
	}
	var stored struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := q.GetContext(ctx, &stored, named, args...); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	profile.ID = stored.ID
	profile.CreatedAt = stored.CreatedAt
	return nil
}

// FindByOwner returns the profile for the owner.
func (r *ProfileRepository) FindByOwner(ctx context.Context, ownerID string) (*models.ApplicantProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM applicant_profiles WHERE owner_id = $1`
	var profile models.ApplicantProfile
	if err := conn(ctx, r.db).GetContext(ctx, &profile, query, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by owner: %w", err)
	}
	return &profile, nil
}
