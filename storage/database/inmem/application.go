package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/application"
)

type applicationRepository struct {
	db *DB
}

var _ application.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db}
}

func (repo *applicationRepository) query() []application.Application {
	apps := make([]application.Application, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		apps = append(apps, *app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].UpdatedAt.After(apps[j].UpdatedAt) })
	return apps
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.applications {
		if existing.UserID == app.UserID && existing.JobID == app.JobID {
			return application.Application{}, application.ErrAlreadyApplied
		}
	}
	app.ID = uuid.New().String()
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return *app, nil
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) GetApplicationByUserAndJob(ctx context.Context, userID, jobID string) (application.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, app := range repo.db.applications {
		if app.UserID == userID && app.JobID == jobID {
			return *app, nil
		}
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) FilterApplications(ctx context.Context, filter application.QueryFilter) ([]application.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	match := func(app application.Application) bool {
		if filter.UserID != "" && app.UserID != filter.UserID {
			return false
		}
		if filter.JobID != "" && app.JobID != filter.JobID {
			return false
		}
		if filter.Status != "" && app.Status != filter.Status {
			return false
		}
		if filter.Category != "" && app.Category != filter.Category {
			return false
		}
		if filter.JobPostedBy != "" {
			j, ok := repo.db.jobs[app.JobID]
			if !ok || j.PostedBy != filter.JobPostedBy {
				return false
			}
		}
		return true
	}

	apps := make([]application.Application, 0)
	for _, app := range repo.query() {
		if match(app) {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

func (repo *applicationRepository) UpdateApplicationStatus(ctx context.Context, app application.Application, prev application.Status) (application.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.applications[app.ID]
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	if orig.Status != prev {
		return application.Application{}, core.ErrConflict
	}
	orig.Status = app.Status
	orig.Category = app.Category
	orig.AppliedDate = app.AppliedDate
	if app.Interview != nil {
		orig.Interview = app.Interview
	}
	if app.Offer != nil {
		orig.Offer = app.Offer
	}
	if app.OfferLetter != nil {
		orig.OfferLetter = app.OfferLetter
	}
	orig.UpdatedAt = app.UpdatedAt
	return *orig, nil
}
