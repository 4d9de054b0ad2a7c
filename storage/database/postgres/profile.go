package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core/profile"
)

type dbEmployerProfile struct {
	ID              string         `db:"id"`
	UserID          string         `db:"user_id"`
	DisplayName     sql.NullString `db:"display_name"`
	Phone           sql.NullString `db:"phone"`
	Headline        sql.NullString `db:"headline"`
	Bio             sql.NullString `db:"bio"`
	Subjects        pq.StringArray `db:"subjects"`
	ExperienceYears int            `db:"experience_years"`
	ResumeURL       sql.NullString `db:"resume_url"`
	Settings        []byte         `db:"settings"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (p dbEmployerProfile) unrow() (profile.EmployerProfile, error) {
	prof := profile.EmployerProfile{
		ID:              p.ID,
		UserID:          p.UserID,
		DisplayName:     p.DisplayName.String,
		Phone:           p.Phone.String,
		Headline:        p.Headline.String,
		Bio:             p.Bio.String,
		Subjects:        p.Subjects,
		ExperienceYears: p.ExperienceYears,
		ResumeURL:       p.ResumeURL.String,
		Settings:        profile.DefaultSettings,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Settings != nil {
		if err := json.Unmarshal(p.Settings, &prof.Settings); err != nil {
			return profile.EmployerProfile{}, errors.Wrap(err, "decoding profile settings")
		}
	}
	return prof, nil
}

type dbCollegeProfile struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	CollegeName   sql.NullString `db:"college_name"`
	ContactPerson sql.NullString `db:"contact_person"`
	Phone         sql.NullString `db:"phone"`
	Website       sql.NullString `db:"website"`
	City          sql.NullString `db:"city"`
	Description   sql.NullString `db:"description"`
	Verified      bool           `db:"verified"`
	Settings      []byte         `db:"settings"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (p dbCollegeProfile) unrow() (profile.CollegeProfile, error) {
	prof := profile.CollegeProfile{
		ID:            p.ID,
		UserID:        p.UserID,
		CollegeName:   p.CollegeName.String,
		ContactPerson: p.ContactPerson.String,
		Phone:         p.Phone.String,
		Website:       p.Website.String,
		City:          p.City.String,
		Description:   p.Description.String,
		Verified:      p.Verified,
		Settings:      profile.DefaultSettings,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Settings != nil {
		if err := json.Unmarshal(p.Settings, &prof.Settings); err != nil {
			return profile.CollegeProfile{}, errors.Wrap(err, "decoding profile settings")
		}
	}
	return prof, nil
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sql.DB) *profileRepository {
	return &profileRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo profileRepository) GetEmployerProfile(ctx context.Context, userID string) (profile.EmployerProfile, error) {
	var row dbEmployerProfile
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM employer_profile WHERE user_id = $1`, userID); err != nil {
		return profile.EmployerProfile{}, trapNoRowsErr(err, profile.ErrNotFound, "finding employer profile")
	}
	return row.unrow()
}

// UpsertEmployerProfile inserts or replaces the profile keyed on user_id.
func (repo profileRepository) UpsertEmployerProfile(ctx context.Context, p profile.EmployerProfile) (profile.EmployerProfile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return profile.EmployerProfile{}, errors.Wrap(err, "encoding profile settings")
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO employer_profile (id, user_id, display_name, phone, headline, bio, subjects, experience_years, resume_url, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id) DO UPDATE SET
		     display_name = EXCLUDED.display_name, phone = EXCLUDED.phone,
		     headline = EXCLUDED.headline, bio = EXCLUDED.bio,
		     subjects = EXCLUDED.subjects, experience_years = EXCLUDED.experience_years,
		     resume_url = EXCLUDED.resume_url, settings = EXCLUDED.settings,
		     updated_at = EXCLUDED.updated_at`,
		p.ID, p.UserID, p.DisplayName, p.Phone, p.Headline, p.Bio,
		pq.StringArray(p.Subjects), p.ExperienceYears, p.ResumeURL, settings,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return profile.EmployerProfile{}, errors.Wrap(err, "upserting employer profile")
	}
	return repo.GetEmployerProfile(ctx, p.UserID)
}

func (repo profileRepository) GetCollegeProfile(ctx context.Context, userID string) (profile.CollegeProfile, error) {
	var row dbCollegeProfile
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM college_profile WHERE user_id = $1`, userID); err != nil {
		return profile.CollegeProfile{}, trapNoRowsErr(err, profile.ErrNotFound, "finding college profile")
	}
	return row.unrow()
}

// UpsertCollegeProfile inserts or replaces the profile keyed on user_id.
func (repo profileRepository) UpsertCollegeProfile(ctx context.Context, p profile.CollegeProfile) (profile.CollegeProfile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return profile.CollegeProfile{}, errors.Wrap(err, "encoding profile settings")
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO college_profile (id, user_id, college_name, contact_person, phone, website, city, description, verified, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id) DO UPDATE SET
		     college_name = EXCLUDED.college_name, contact_person = EXCLUDED.contact_person,
		     phone = EXCLUDED.phone, website = EXCLUDED.website,
		     city = EXCLUDED.city, description = EXCLUDED.description,
		     verified = EXCLUDED.verified, settings = EXCLUDED.settings,
		     updated_at = EXCLUDED.updated_at`,
		p.ID, p.UserID, p.CollegeName, p.ContactPerson, p.Phone, p.Website,
		p.City, p.Description, p.Verified, settings,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return profile.CollegeProfile{}, errors.Wrap(err, "upserting college profile")
	}
	return repo.GetCollegeProfile(ctx, p.UserID)
}
