package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/application"
)

type dbApplication struct {
	ID               string       `db:"id"`
	UserID           string       `db:"user_id"`
	JobID            string       `db:"job_id"`
	Status           string       `db:"status"`
	Category         string       `db:"category"`
	AppliedDate      sql.NullTime `db:"applied_date"`
	InterviewDetails []byte       `db:"interview_details"`
	OfferDetails     []byte       `db:"offer_details"`
	OfferLetter      []byte       `db:"offer_letter"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

func (a dbApplication) unrow() (application.Application, error) {
	app := application.Application{
		ID:          a.ID,
		UserID:      a.UserID,
		JobID:       a.JobID,
		Status:      application.Status(a.Status),
		Category:    application.Category(a.Category),
		AppliedDate: a.AppliedDate.Time,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.InterviewDetails != nil {
		app.Interview = new(application.InterviewDetails)
		if err := json.Unmarshal(a.InterviewDetails, app.Interview); err != nil {
			return application.Application{}, errors.Wrap(err, "decoding interview details")
		}
	}
	if a.OfferDetails != nil {
		app.Offer = new(application.OfferDetails)
		if err := json.Unmarshal(a.OfferDetails, app.Offer); err != nil {
			return application.Application{}, errors.Wrap(err, "decoding offer details")
		}
	}
	if a.OfferLetter != nil {
		app.OfferLetter = new(application.OfferLetter)
		if err := json.Unmarshal(a.OfferLetter, app.OfferLetter); err != nil {
			return application.Application{}, errors.Wrap(err, "decoding offer letter")
		}
	}
	return app, nil
}

func marshalOrNil(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

type applicationRepository struct {
	db *sqlx.DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *sql.DB) *applicationRepository {
	return &applicationRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	app.ID = uuid.New().String()
	var appliedDate interface{}
	if !app.AppliedDate.IsZero() {
		appliedDate = app.AppliedDate.UTC()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO application (id, user_id, job_id, status, category, applied_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		app.ID, app.UserID, app.JobID, string(app.Status), string(app.Category),
		appliedDate, app.CreatedAt.UTC(), app.UpdatedAt.UTC(),
	)
	if err != nil {
		// unique (user_id, job_id) violation
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
			return application.Application{}, application.ErrAlreadyApplied
		}
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo applicationRepository) getApplication(ctx context.Context, where string, args ...interface{}) (application.Application, error) {
	var row dbApplication
	q := `SELECT * FROM application WHERE ` + where
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return application.Application{}, trapNoRowsErr(err, application.ErrNotFound, "finding application")
	}
	return row.unrow()
}

func (repo applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.Application, error) {
	return repo.getApplication(ctx, `id = $1`, id)
}

func (repo applicationRepository) GetApplicationByUserAndJob(ctx context.Context, userID, jobID string) (application.Application, error) {
	return repo.getApplication(ctx, `user_id = $1 AND job_id = $2`, userID, jobID)
}

func (repo applicationRepository) FilterApplications(ctx context.Context, filter application.QueryFilter) ([]application.Application, error) {
	conds := []string{"TRUE"}
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	from := `application`
	if filter.JobPostedBy != "" {
		from += ` JOIN job ON job.id = application.job_id`
		conds = append(conds, "job.posted_by = "+arg(filter.JobPostedBy))
	}
	if filter.UserID != "" {
		conds = append(conds, "application.user_id = "+arg(filter.UserID))
	}
	if filter.JobID != "" {
		conds = append(conds, "application.job_id = "+arg(filter.JobID))
	}
	if filter.Status != "" {
		conds = append(conds, "application.status = "+arg(string(filter.Status)))
	}
	if filter.Category != "" {
		conds = append(conds, "application.category = "+arg(string(filter.Category)))
	}

	var rows []dbApplication
	q := fmt.Sprintf(`SELECT application.* FROM %s WHERE %s ORDER BY application.updated_at DESC`, from, strings.Join(conds, " AND "))
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering applications")
	}
	apps := make([]application.Application, 0, len(rows))
	for _, row := range rows {
		app, err := row.unrow()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// UpdateApplicationStatus conditionally writes status, category and detail
// fields; the WHERE clause on the previous status makes the read-modify-write
// atomic per document. RowsAffected 0 with the row present means a concurrent
// writer won: core.ErrConflict.
func (repo applicationRepository) UpdateApplicationStatus(ctx context.Context, app application.Application, prev application.Status) (application.Application, error) {
	interview, err := marshalOrNil(app.Interview)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "encoding interview details")
	}
	offer, err := marshalOrNil(app.Offer)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "encoding offer details")
	}
	letter, err := marshalOrNil(app.OfferLetter)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "encoding offer letter")
	}
	var appliedDate interface{}
	if !app.AppliedDate.IsZero() {
		appliedDate = app.AppliedDate.UTC()
	}

	res, err := repo.db.ExecContext(ctx,
		`UPDATE application
		 SET status = $1, category = $2, applied_date = $3,
		     interview_details = COALESCE($4, interview_details),
		     offer_details = COALESCE($5, offer_details),
		     offer_letter = COALESCE($6, offer_letter),
		     updated_at = $7
		 WHERE id = $8 AND status = $9`,
		string(app.Status), string(app.Category), appliedDate,
		interview, offer, letter, app.UpdatedAt.UTC(), app.ID, string(prev),
	)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "updating application status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err = repo.GetApplicationByID(ctx, app.ID); err != nil {
			return application.Application{}, err
		}
		return application.Application{}, core.ErrConflict
	}
	return repo.GetApplicationByID(ctx, app.ID)
}
