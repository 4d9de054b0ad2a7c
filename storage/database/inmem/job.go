package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/job"
)

type jobRepository struct {
	db *DB
}

var _ job.Repository = (*jobRepository)(nil)

func NewJobRepository(db *DB) *jobRepository {
	return &jobRepository{db: db}
}

func (repo *jobRepository) query() []job.Job {
	jobs := make([]job.Job, 0, len(repo.db.jobs))
	for _, j := range repo.db.jobs {
		jobs = append(jobs, *j)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

func (repo *jobRepository) CreateJob(ctx context.Context, j job.Job) (job.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	j.ID = uuid.New().String()
	repo.db.jobs[j.ID] = &j
	return j, nil
}

func (repo *jobRepository) GetJobByID(ctx context.Context, id string) (job.Job, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if j, ok := repo.db.jobs[id]; ok {
		return *j, nil
	}
	return job.Job{}, job.ErrNotFound
}

func (repo *jobRepository) FilterJobs(ctx context.Context, filter job.QueryFilter) ([]job.Job, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	match := func(j job.Job) bool {
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(j.Title), s) &&
				!strings.Contains(strings.ToLower(j.SchoolName), s) &&
				!strings.Contains(strings.ToLower(j.Location), s) {
				return false
			}
		}
		if filter.Status != "" && j.Status != filter.Status {
			return false
		}
		if filter.PostedBy != "" && j.PostedBy != filter.PostedBy {
			return false
		}
		return true
	}

	jobs := make([]job.Job, 0)
	for _, j := range repo.query() {
		if !match(j) {
			continue
		}
		if filter.WithPostedByName {
			if p, ok := repo.db.collegeProfiles[j.PostedBy]; ok {
				j.PostedByName = p.CollegeName
			}
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (repo *jobRepository) UpdateJob(ctx context.Context, j job.Job) (job.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.jobs[j.ID]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	orig.Title = j.Title
	orig.SchoolName = j.SchoolName
	orig.Description = j.Description
	orig.Location = j.Location
	orig.JobType = j.JobType
	orig.Salary = j.Salary
	orig.UpdatedAt = j.UpdatedAt
	return *orig, nil
}

func (repo *jobRepository) UpdateJobStatus(ctx context.Context, id string, prev, next job.Status) (job.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.jobs[id]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	if orig.Status != prev {
		return job.Job{}, core.ErrConflict
	}
	orig.Status = next
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}

func (repo *jobRepository) DeleteJobsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.jobs, id)
	}
	return nil
}
