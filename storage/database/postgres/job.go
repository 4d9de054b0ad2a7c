package pgrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/job"
)

type dbJob struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	SchoolName   string         `db:"school_name"`
	Description  string         `db:"description"`
	Location     sql.NullString `db:"location"`
	JobType      sql.NullString `db:"job_type"`
	Salary       sql.NullString `db:"salary"`
	Status       string         `db:"status"`
	PostedBy     string         `db:"posted_by"`
	PostedByName sql.NullString `db:"posted_by_name"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (j dbJob) unrow() job.Job {
	return job.Job{
		ID:           j.ID,
		Title:        j.Title,
		SchoolName:   j.SchoolName,
		Description:  j.Description,
		Location:     j.Location.String,
		JobType:      j.JobType.String,
		Salary:       j.Salary.String,
		Status:       job.Status(j.Status),
		PostedBy:     j.PostedBy,
		PostedByName: j.PostedByName.String,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

type jobRepository struct {
	db *sqlx.DB
}

var _ job.Repository = (*jobRepository)(nil) // interface compliance check

func NewJobRepository(db *sql.DB) *jobRepository {
	return &jobRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo jobRepository) CreateJob(ctx context.Context, j job.Job) (job.Job, error) {
	j.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO job (id, title, school_name, description, location, job_type, salary, status, posted_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		j.ID, j.Title, j.SchoolName, j.Description, j.Location, j.JobType, j.Salary,
		string(j.Status), j.PostedBy, j.CreatedAt.UTC(), j.UpdatedAt.UTC(),
	)
	if err != nil {
		return job.Job{}, errors.Wrap(err, "inserting job")
	}
	return j, nil
}

func (repo jobRepository) GetJobByID(ctx context.Context, id string) (job.Job, error) {
	var row dbJob
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM job WHERE id = $1`, id); err != nil {
		return job.Job{}, trapNoRowsErr(err, job.ErrNotFound, "finding job")
	}
	return row.unrow(), nil
}

func (repo jobRepository) FilterJobs(ctx context.Context, filter job.QueryFilter) ([]job.Job, error) {
	conds := []string{"TRUE"}
	args := make([]interface{}, 0, 3)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	cols := `job.*`
	from := `job`
	if filter.WithPostedByName {
		// posting college's display name for the admin view
		cols += `, college_profile.college_name AS posted_by_name`
		from += ` LEFT JOIN college_profile ON college_profile.user_id = job.posted_by`
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(job.title ILIKE %[1]s OR job.school_name ILIKE %[1]s OR job.location ILIKE %[1]s)", p))
	}
	if filter.Status != "" {
		conds = append(conds, "job.status = "+arg(string(filter.Status)))
	}
	if filter.PostedBy != "" {
		conds = append(conds, "job.posted_by = "+arg(filter.PostedBy))
	}

	var rows []dbJob
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY job.created_at DESC`, cols, from, strings.Join(conds, " AND "))
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering jobs")
	}
	jobs := make([]job.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.unrow())
	}
	return jobs, nil
}

func (repo jobRepository) UpdateJob(ctx context.Context, j job.Job) (job.Job, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE job SET title = $1, school_name = $2, description = $3, location = $4, job_type = $5, salary = $6, updated_at = $7
		 WHERE id = $8`,
		j.Title, j.SchoolName, j.Description, j.Location, j.JobType, j.Salary, j.UpdatedAt.UTC(), j.ID,
	)
	if err != nil {
		return job.Job{}, errors.Wrap(err, "updating job")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return job.Job{}, job.ErrNotFound
	}
	return repo.GetJobByID(ctx, j.ID)
}

// UpdateJobStatus writes the new status only when the stored status still
// equals prev; a lost race surfaces as core.ErrConflict.
func (repo jobRepository) UpdateJobStatus(ctx context.Context, id string, prev, next job.Status) (job.Job, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE job SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(next), time.Now().UTC(), id, string(prev),
	)
	if err != nil {
		return job.Job{}, errors.Wrap(err, "updating job status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err = repo.GetJobByID(ctx, id); err != nil {
			return job.Job{}, err
		}
		return job.Job{}, core.ErrConflict
	}
	return repo.GetJobByID(ctx, id)
}

func (repo jobRepository) DeleteJobsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM job WHERE id = ANY($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting jobs")
}
