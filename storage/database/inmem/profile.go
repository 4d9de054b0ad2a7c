package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/teacherconnect/backend/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetEmployerProfile(ctx context.Context, userID string) (profile.EmployerProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.employerProfiles[userID]; ok {
		return *p, nil
	}
	return profile.EmployerProfile{}, profile.ErrNotFound
}

func (repo *profileRepository) UpsertEmployerProfile(ctx context.Context, p profile.EmployerProfile) (profile.EmployerProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.db.employerProfiles[p.UserID] = &p
	return p, nil
}

func (repo *profileRepository) GetCollegeProfile(ctx context.Context, userID string) (profile.CollegeProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.collegeProfiles[userID]; ok {
		return *p, nil
	}
	return profile.CollegeProfile{}, profile.ErrNotFound
}

func (repo *profileRepository) UpsertCollegeProfile(ctx context.Context, p profile.CollegeProfile) (profile.CollegeProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.db.collegeProfiles[p.UserID] = &p
	return p, nil
}
